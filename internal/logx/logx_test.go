package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

func TestWithWorkspaceAddsField(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	log := WithWorkspace(ctx, "thesis-1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["workspace"] != "thesis-1" {
		t.Fatalf("expected workspace field, got %+v", entry)
	}
}

func TestWithWorkspaceTabAddsFields(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	log := WithWorkspaceTab(ctx, "thesis-1", "tab-r1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["workspace"] != "thesis-1" {
		t.Fatalf("expected workspace field, got %+v", entry)
	}
	if entry["tab"] != "tab-r1" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestWithWorkspaceSkipsDuplicateMarker(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	base := logger.With("workspace", "thesis-1")
	ctx := ContextWithWorkspaceLogger(context.Background(), base, "thesis-1")
	log := WithWorkspace(ctx, "thesis-1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["workspace"] != "thesis-1" {
		t.Fatalf("expected workspace field, got %+v", entry)
	}
}

func TestCopyContextFields(t *testing.T) {
	src := ContextWithWorkspaceTab(context.Background(), "thesis-1", "tab-diagram")
	dst := CopyContextFields(context.Background(), src)

	if got := dst.Value(workspaceKey); got != schema.WorkspaceID("thesis-1") {
		t.Fatalf("expected workspace marker, got %v", got)
	}
	if got := dst.Value(tabKey); got != schema.TabID("tab-diagram") {
		t.Fatalf("expected tab marker, got %v", got)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
