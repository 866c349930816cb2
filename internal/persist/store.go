package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// WorkspaceSnapshot captures workspace preferences for persistence.
type WorkspaceSnapshot struct {
	ActiveTab      schema.TabID                      `json:"active_tab"`
	LoadedDiagrams map[schema.TabID]schema.DiagramID `json:"loaded_diagrams,omitempty"`
}

// Store persists workspace snapshots to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a workspace snapshot from disk.
func (s *Store) Load(workspaceID schema.WorkspaceID) (WorkspaceSnapshot, bool, error) {
	path := s.pathForWorkspace(workspaceID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "workspace", workspaceID)
			}
			return WorkspaceSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "workspace", workspaceID, "err", err)
		}
		return WorkspaceSnapshot{}, false, err
	}
	var snapshot WorkspaceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "workspace", workspaceID, "err", err)
		}
		return WorkspaceSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "workspace", workspaceID, "active", snapshot.ActiveTab)
	}
	return snapshot, true, nil
}

// Save writes a workspace snapshot to disk.
func (s *Store) Save(workspaceID schema.WorkspaceID, snapshot WorkspaceSnapshot) error {
	path := s.pathForWorkspace(workspaceID)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.json")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "workspace", workspaceID, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "workspace", workspaceID)
	}
	return nil
}

func (s *Store) pathForWorkspace(workspaceID schema.WorkspaceID) string {
	name := sanitize(string(workspaceID))
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
