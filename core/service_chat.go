package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

var stopSleep = time.Sleep

// stopGrace is how long a stopped backend gets to deliver its final message
// before the stream context is cancelled.
const stopGrace = 2 * time.Second

func (s *service) SendMessage(ctx context.Context, req schema.SendMessageRequest) (schema.SendMessageResponse, error) {
	if s.chat == nil {
		return schema.SendMessageResponse{}, errors.New("chat backend is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return schema.SendMessageResponse{}, schema.ErrEmptyMessage
	}
	if ctx == nil {
		return schema.SendMessageResponse{}, errors.New("missing context")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.SendMessageResponse{}, err
	}
	baseLog := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)
	ctx = logx.ContextWithWorkspaceTabLogger(ctx, baseLog, workspaceID, req.TabID)
	log := baseLog

	now := time.Now()
	userMsg := schema.Message{
		ID:        newMessageID(),
		TabID:     req.TabID,
		Sender:    schema.SenderUser,
		Content:   req.Content,
		CreatedAt: now,
	}
	placeholder := schema.Message{
		ID:        newStreamingID(),
		TabID:     req.TabID,
		Sender:    schema.SenderAssistant,
		CreatedAt: now,
	}

	streamCtx, streamCancel := detachStreamContext(ctx)

	s.mu.Lock()
	ws, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		streamCancel()
		log.Warn("service message rejected", "err", err)
		return schema.SendMessageResponse{}, err
	}
	if tab.Status.Streaming() {
		s.mu.Unlock()
		streamCancel()
		log.Warn("service message rejected", "err", schema.ErrAlreadyStreaming)
		return schema.SendMessageResponse{}, schema.ErrAlreadyStreaming
	}
	// Claim the tab before any network call so a concurrent send fails fast.
	// The cancel func is registered here, not after the transport call, so a
	// stop that lands while the stream is still opening can cancel it.
	tab.Status = schema.TabStatusSending
	tab.placeholderID = placeholder.ID
	tab.streamCancel = streamCancel
	tab.window.Append(userMsg)
	tab.window.Append(placeholder)
	active := ws.active
	event := schema.TabEvent{
		WorkspaceID: workspaceID,
		Type:        schema.TabEventStatus,
		Tab:         tab.Snapshot(req.TabID == active),
		ActiveTab:   active,
	}
	s.mu.Unlock()
	s.emitMessage(schema.MessageEvent{WorkspaceID: workspaceID, TabID: req.TabID, Message: userMsg})
	s.emitMessage(schema.MessageEvent{WorkspaceID: workspaceID, TabID: req.TabID, Message: placeholder})
	s.emitTabEvent(event)
	log = log.With("kind", tab.Kind, "content_len", len(req.Content))
	log.Info("service message send start")

	handle, err := s.chat.StreamMessage(streamCtx, StreamMessageRequest{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Kind:        tab.Kind,
		Content:     req.Content,
	})
	if err != nil {
		log.Error("service stream start failed", "err", err)
		streamCancel()
		// A cancelled open means a stop arrived first; that is not a failure.
		failed := !errors.Is(err, context.Canceled)
		s.finalizeStream(context.Background(), workspaceID, req.TabID, placeholder.ID, nil, failed)
		return schema.SendMessageResponse{}, fmt.Errorf("%w: %v", schema.ErrTransport, err)
	}

	s.mu.Lock()
	tab.stream = handle
	tab.streamCancel = streamCancel
	snapshot := tab.Snapshot(req.TabID == active)
	s.mu.Unlock()
	log.Info("service stream started", "stream", handle.ID())

	go s.consumeStream(streamCtx, workspaceID, req.TabID, placeholder.ID, handle, streamCancel, time.Now())
	return schema.SendMessageResponse{
		Tab:           snapshot,
		UserMessage:   userMsg,
		PlaceholderID: placeholder.ID,
		Accepted:      true,
	}, nil
}

func (s *service) StopStreaming(ctx context.Context, req schema.StopStreamingRequest) (schema.StopStreamingResponse, error) {
	if ctx == nil {
		return schema.StopStreamingResponse{}, errors.New("missing context")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.StopStreamingResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	ws, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service stop failed", "err", err)
		return schema.StopStreamingResponse{}, err
	}
	active := ws.active
	if !tab.Status.Streaming() || tab.Status == schema.TabStatusStopping {
		snapshot := tab.Snapshot(req.TabID == active)
		s.mu.Unlock()
		log.Info("service stop ignored", "reason", "no active stream", "status", snapshot.Status)
		return schema.StopStreamingResponse{Tab: snapshot}, nil
	}
	tab.Status = schema.TabStatusStopping
	handle := tab.stream
	cancel := tab.streamCancel
	event := schema.TabEvent{
		WorkspaceID: workspaceID,
		Type:        schema.TabEventStatus,
		Tab:         tab.Snapshot(req.TabID == active),
		ActiveTab:   active,
	}
	s.mu.Unlock()
	s.emitTabEvent(event)
	log.Info("service stop requested")
	go s.stopStreamAsync(log, workspaceID, req.TabID, handle, cancel)
	return schema.StopStreamingResponse{Tab: event.Tab}, nil
}

// stopStreamAsync asks the backend to finalize, then cancels the stream
// context so the consume goroutine commits whatever arrived.
func (s *service) stopStreamAsync(log pslog.Logger, workspaceID schema.WorkspaceID, tabID schema.TabID, handle StreamHandle, cancel context.CancelFunc) {
	lateOpen := handle == nil
	s.signalStop(log, workspaceID, tabID, handle)
	stopSleep(stopGrace)
	if lateOpen {
		// The stop landed while the stream was still opening. The send path
		// registers the handle once the transport call returns, so pick it
		// up now and deliver the stop signal late.
		s.mu.Lock()
		if _, tab, err := s.tabLocked(workspaceID, tabID); err == nil && tab.Status == schema.TabStatusStopping {
			handle = tab.stream
			if cancel == nil {
				cancel = tab.streamCancel
			}
		}
		s.mu.Unlock()
		s.signalStop(log, workspaceID, tabID, handle)
	}
	if cancel != nil {
		cancel()
	}
	if log != nil {
		log.Info("service stop completed")
	}
}

func (s *service) signalStop(log pslog.Logger, workspaceID schema.WorkspaceID, tabID schema.TabID, handle StreamHandle) {
	if handle == nil || s.chat == nil {
		return
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := s.chat.StopStream(stopCtx, StopStreamRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		StreamID:    handle.ID(),
	})
	stopCancel()
	if err != nil && log != nil {
		log.Warn("service stop signal failed", "err", err)
	}
}

func (s *service) consumeStream(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID, placeholderID schema.MessageID, handle StreamHandle, cancel context.CancelFunc, started time.Time) {
	log := logx.WithWorkspaceTab(ctx, workspaceID, tabID)
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()
	log.Info("service stream consume start")
	stream := handle.Events()
	var final *schema.Message
	failed := false
	chunks := 0
	for {
		chunk, err := stream.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, context.Canceled) {
				log.Debug("service stream cancelled")
				break
			}
			log.Warn("service stream error", "err", err)
			failed = true
			break
		}
		if chunk.Delta != "" {
			chunks++
			s.applyDelta(workspaceID, tabID, placeholderID, chunk.Delta)
		}
		if chunk.Final != nil {
			finalCopy := *chunk.Final
			final = &finalCopy
		}
	}
	if err := handle.Close(); err != nil {
		log.Warn("service stream close failed", "err", err)
	}
	log.Info("service stream finished", "chunks", chunks, "failed", failed, "duration_ms", time.Since(started).Milliseconds())
	s.finalizeStream(ctx, workspaceID, tabID, placeholderID, final, failed)
}

// applyDelta appends token text to the placeholder and flips the tab from
// sending to typing on the first chunk.
func (s *service) applyDelta(workspaceID schema.WorkspaceID, tabID schema.TabID, placeholderID schema.MessageID, delta string) {
	s.mu.Lock()
	ws, tab, err := s.tabLocked(workspaceID, tabID)
	if err != nil {
		s.mu.Unlock()
		return
	}
	updated, ok := tab.window.AppendContent(placeholderID, delta)
	var statusEvent *schema.TabEvent
	if ok && tab.Status == schema.TabStatusSending {
		tab.Status = schema.TabStatusTyping
		event := schema.TabEvent{
			WorkspaceID: workspaceID,
			Type:        schema.TabEventStatus,
			Tab:         tab.Snapshot(tabID == ws.active),
			ActiveTab:   ws.active,
		}
		statusEvent = &event
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if statusEvent != nil {
		s.emitTabEvent(*statusEvent)
	}
	s.emitDelta(schema.MessageDeltaEvent{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		MessageID:   placeholderID,
		Delta:       delta,
		Content:     updated.Content,
	})
}

// finalizeStream swaps the placeholder for the final message and returns the
// tab to idle. It runs exactly once per stream, in the consume goroutine or
// on a failed start.
func (s *service) finalizeStream(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID, placeholderID schema.MessageID, final *schema.Message, failed bool) {
	log := logx.WithWorkspaceTab(ctx, workspaceID, tabID)
	s.mu.Lock()
	ws, tab, err := s.tabLocked(workspaceID, tabID)
	if err != nil {
		s.mu.Unlock()
		return
	}
	committed := final
	if committed == nil {
		partial, _ := tab.window.AppendContent(placeholderID, "")
		msg := schema.Message{
			ID:        newMessageID(),
			TabID:     tabID,
			Sender:    schema.SenderAssistant,
			Content:   partial.Content,
			CreatedAt: time.Now(),
			Failed:    failed,
		}
		committed = &msg
	}
	replaced := tab.window.Replace(placeholderID, *committed)
	var events []schema.TabEvent
	if tab.placeholderID == placeholderID {
		tab.Status = schema.TabStatusIdle
		tab.stream = nil
		tab.streamCancel = nil
		tab.placeholderID = ""
		events = append(events, schema.TabEvent{
			WorkspaceID: workspaceID,
			Type:        schema.TabEventStatus,
			Tab:         tab.Snapshot(tabID == ws.active),
			ActiveTab:   ws.active,
		})
	}
	s.mu.Unlock()
	if replaced {
		s.emitMessage(schema.MessageEvent{
			WorkspaceID: workspaceID,
			TabID:       tabID,
			Message:     *committed,
			Replaced:    placeholderID,
		})
	}
	for _, event := range events {
		s.emitTabEvent(event)
	}
	log.Info("service stream finalized", "failed", failed, "replaced", replaced)
}
