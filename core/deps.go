package core

import "pkt.systems/pslog"

// ServiceDeps captures dependencies for the core service.
type ServiceDeps struct {
	Chat       ChatBackend
	History    HistoryBackend
	Workspaces WorkspaceBackend
	Diagrams   DiagramBackend
	Uploads    Uploader
	Converter  SceneConverter
	EventSink  EventSink
	Logger     pslog.Logger
}
