package skripsihub

import (
	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnMessage(event schema.MessageEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnMessage(event)
	}
}

func (f eventFanout) OnMessageDelta(event schema.MessageDeltaEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnMessageDelta(event)
	}
}

func (f eventFanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabEvent(event)
	}
}

func (f eventFanout) OnDiagram(event schema.DiagramEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnDiagram(event)
	}
}

func (f eventFanout) OnDocument(event schema.DocumentEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnDocument(event)
	}
}
