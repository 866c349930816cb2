package restbackend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// streamIDHeader carries the backend stream identifier on chat responses.
const streamIDHeader = "X-Stream-Id"

type chatRequest struct {
	Kind    schema.TabKind `json:"kind"`
	Content string         `json:"content"`
}

// wireChunk is one newline-delimited JSON unit on a chat response body.
type wireChunk struct {
	Delta   string          `json:"delta,omitempty"`
	Message *schema.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// StreamMessage opens a streaming chat exchange and returns a handle that
// yields chunks as the backend writes them.
func (c *Client) StreamMessage(ctx context.Context, req core.StreamMessageRequest) (core.StreamHandle, error) {
	payload, err := json.Marshal(chatRequest{Kind: req.Kind, Content: req.Content})
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/chat", req.WorkspaceID, req.TabID)
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("backend chat start failed", "path", path, "err", err)
		return nil, fmt.Errorf("%w: %v", schema.ErrTransport, err)
	}
	if err := c.statusError(resp, schema.ErrTabNotFound); err != nil {
		resp.Body.Close()
		return nil, err
	}
	streamID := strings.TrimSpace(resp.Header.Get(streamIDHeader))
	c.log.Debug("backend chat stream open", "path", path, "stream", streamID)
	return newChatHandle(ctx, streamID, resp.Body, c.log), nil
}

// StopStream asks the backend to finalize an in-flight stream.
func (c *Client) StopStream(ctx context.Context, req core.StopStreamRequest) error {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/streams/%s/stop", req.WorkspaceID, req.TabID, req.StreamID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, nil)
}

type chatHandle struct {
	id     string
	stream *chatStream
}

func newChatHandle(ctx context.Context, id string, body io.ReadCloser, log pslog.Logger) *chatHandle {
	return &chatHandle{id: id, stream: newChatStream(ctx, body, log)}
}

func (h *chatHandle) ID() string              { return h.id }
func (h *chatHandle) Events() core.ChatStream { return h.stream }
func (h *chatHandle) Close() error            { return h.stream.Close() }

// chatStream drains a newline-delimited JSON body into a channel so Next can
// honor context cancellation while the reader goroutine owns the body.
type chatStream struct {
	chunks    chan core.StreamChunk
	body      io.ReadCloser
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
	log       pslog.Logger
}

func newChatStream(ctx context.Context, body io.ReadCloser, log pslog.Logger) *chatStream {
	stream := &chatStream{
		chunks: make(chan core.StreamChunk, 256),
		body:   body,
		log:    log,
	}
	go stream.read(ctx)
	return stream
}

func (s *chatStream) read(ctx context.Context) {
	defer close(s.chunks)
	scanner := bufio.NewScanner(s.body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk wireChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			if s.log != nil {
				s.log.Warn("backend chat decode failed", "err", err)
			}
			s.setErr(fmt.Errorf("%w: decode chunk: %v", schema.ErrTransport, err))
			return
		}
		if chunk.Error != "" {
			s.setErr(fmt.Errorf("%w: %s", schema.ErrTransport, chunk.Error))
			return
		}
		select {
		case s.chunks <- core.StreamChunk{Delta: chunk.Delta, Final: chunk.Message}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		if s.log != nil {
			s.log.Warn("backend chat read failed", "err", err)
		}
		s.setErr(fmt.Errorf("%w: %v", schema.ErrTransport, err))
	}
}

func (s *chatStream) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *chatStream) Next(ctx context.Context) (core.StreamChunk, error) {
	select {
	case <-ctx.Done():
		return core.StreamChunk{}, ctx.Err()
	case chunk, ok := <-s.chunks:
		if ok {
			return chunk, nil
		}
		s.errMu.Lock()
		err := s.err
		s.errMu.Unlock()
		if err != nil {
			return core.StreamChunk{}, err
		}
		return core.StreamChunk{}, io.EOF
	}
}

func (s *chatStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
