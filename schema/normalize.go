package schema

import "strings"

// ValidateWorkspaceID ensures a workspace id matches [a-z0-9._-] with no
// normalization applied.
func ValidateWorkspaceID(workspaceID WorkspaceID) error {
	raw := string(workspaceID)
	if raw == "" {
		return ErrInvalidWorkspace
	}
	if strings.TrimSpace(raw) != raw {
		return ErrInvalidWorkspace
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidWorkspace
	}
	return nil
}
