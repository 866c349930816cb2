package logx

import (
	"context"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	workspaceKey contextKey = iota
	tabKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithWorkspace annotates the logger with the workspace id if present.
func WithWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if workspaceID != "" {
		if current, ok := ctx.Value(workspaceKey).(schema.WorkspaceID); ok && current == workspaceID {
			return log
		}
		log = log.With("workspace", workspaceID)
	}
	return log
}

// WithWorkspaceTab annotates the logger with workspace and tab identifiers.
func WithWorkspaceTab(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID) pslog.Logger {
	log := WithWorkspace(ctx, workspaceID)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// ContextWithWorkspace stores the workspace marker on the context for log de-duplication.
func ContextWithWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) context.Context {
	if ctx == nil || workspaceID == "" {
		return ctx
	}
	return context.WithValue(ctx, workspaceKey, workspaceID)
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithWorkspaceTab stores workspace/tab markers on the context for log de-duplication.
func ContextWithWorkspaceTab(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID) context.Context {
	return ContextWithTab(ContextWithWorkspace(ctx, workspaceID), tabID)
}

// ContextWithWorkspaceLogger attaches the logger and workspace marker to the context.
func ContextWithWorkspaceLogger(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithWorkspace(ctx, workspaceID)
}

// ContextWithWorkspaceTabLogger attaches the logger and workspace/tab markers to the context.
func ContextWithWorkspaceTabLogger(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID, tabID schema.TabID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithWorkspaceTab(ctx, workspaceID, tabID)
}

// CopyContextFields copies workspace/tab markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if workspace, ok := src.Value(workspaceKey).(schema.WorkspaceID); ok && workspace != "" {
		dst = ContextWithWorkspace(dst, workspace)
	}
	if tab, ok := src.Value(tabKey).(schema.TabID); ok && tab != "" {
		dst = ContextWithTab(dst, tab)
	}
	return dst
}
