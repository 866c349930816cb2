package restbackend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestRecentMessages(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workspaces/thesis-1/tabs/tab-r1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "30" {
			t.Errorf("unexpected limit %q", got)
		}
		fmt.Fprint(w, `{"messages":[{"id":"m10","tab_id":"tab-r1","sender":"assistant","content":"halo"}],"has_more":true}`)
	}))

	page, err := client.RecentMessages(context.Background(), core.RecentMessagesRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", Limit: 30,
	})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ID != "m10" || !page.HasMore {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestMessagesBeforeStaleAnchor(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("before"); got != "m10" {
			t.Errorf("unexpected anchor %q", got)
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"anchor pruned"}`)
	}))

	_, err := client.MessagesBefore(context.Background(), core.MessagesBeforeRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", Before: "m10", Limit: 30,
	})
	if !errors.Is(err, schema.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	status := http.StatusBadRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":"nope"}`)
	}))
	ctx := context.Background()

	_, err := client.RecentMessages(ctx, core.RecentMessagesRequest{WorkspaceID: "thesis-1", TabID: "tab-r1"})
	if !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for 400, got %v", err)
	}

	status = http.StatusBadGateway
	_, err = client.RecentMessages(ctx, core.RecentMessagesRequest{WorkspaceID: "thesis-1", TabID: "tab-r1"})
	if !errors.Is(err, schema.ErrTransport) {
		t.Fatalf("expected ErrTransport for 502, got %v", err)
	}
}

func TestFetchWorkspace(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workspaces/thesis-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"title":"Skripsi","tabs":[{"id":"tab-r1","kind":"researcher-1"}],"document_html":"<p>Bab 1</p>"}`)
	}))

	info, err := client.FetchWorkspace(context.Background(), "thesis-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if info.Title != "Skripsi" || len(info.Tabs) != 1 || info.Tabs[0].Kind != schema.TabResearcher1 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.DocumentHTML != "<p>Bab 1</p>" {
		t.Fatalf("unexpected document %q", info.DocumentHTML)
	}
}

func TestFetchWorkspaceNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.FetchWorkspace(context.Background(), "thesis-404")
	if !errors.Is(err, schema.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestStreamMessageChunks(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/workspaces/thesis-1/tabs/tab-r1/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set(streamIDHeader, "stream-77")
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"delta":"Hiper"}`)
		flusher.Flush()
		fmt.Fprintln(w, `{"delta":"tensi adalah"}`)
		fmt.Fprintln(w, `{"delta":" tekanan darah tinggi."}`)
		fmt.Fprintln(w, `{"message":{"id":"m-final","tab_id":"tab-r1","sender":"assistant","content":"Hipertensi adalah tekanan darah tinggi."}}`)
	}))
	ctx := context.Background()

	handle, err := client.StreamMessage(ctx, core.StreamMessageRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", Kind: schema.TabResearcher1, Content: "Apa itu hipertensi?",
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer handle.Close()
	if handle.ID() != "stream-77" {
		t.Fatalf("expected stream id from header, got %q", handle.ID())
	}

	var deltas []string
	var final *schema.Message
	stream := handle.Events()
	for {
		chunk, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if chunk.Delta != "" {
			deltas = append(deltas, chunk.Delta)
		}
		if chunk.Final != nil {
			final = chunk.Final
		}
	}
	want := []string{"Hiper", "tensi adalah", " tekanan darah tinggi."}
	if len(deltas) != len(want) {
		t.Fatalf("expected %d deltas, got %v", len(want), deltas)
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, deltas)
		}
	}
	if final == nil || final.ID != "m-final" {
		t.Fatalf("expected final message, got %+v", final)
	}
}

func TestStreamMessageWireError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"delta":"sebagian"}`)
		fmt.Fprintln(w, `{"error":"model overloaded"}`)
	}))
	ctx := context.Background()

	handle, err := client.StreamMessage(ctx, core.StreamMessageRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", Content: "halo",
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer handle.Close()

	stream := handle.Events()
	chunk, err := stream.Next(ctx)
	if err != nil || chunk.Delta != "sebagian" {
		t.Fatalf("expected first delta, got %+v %v", chunk, err)
	}
	_, err = stream.Next(ctx)
	if !errors.Is(err, schema.ErrTransport) {
		t.Fatalf("expected ErrTransport from wire error, got %v", err)
	}
}

func TestStreamMessageNextHonorsContext(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-release
	}))
	defer close(release)

	handle, err := client.StreamMessage(context.Background(), core.StreamMessageRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", Content: "halo",
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer handle.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = handle.Events().Next(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestStopStream(t *testing.T) {
	stopped := make(chan string, 1)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stopped <- r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.StopStream(context.Background(), core.StopStreamRequest{
		WorkspaceID: "thesis-1", TabID: "tab-r1", StreamID: "stream-77",
	})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := <-stopped; got != "/v1/workspaces/thesis-1/tabs/tab-r1/streams/stream-77/stop" {
		t.Fatalf("unexpected stop path %s", got)
	}
}

func TestUploadMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("purpose"); got != string(schema.AssetDocumentImage) {
			t.Errorf("unexpected purpose %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "grafik.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		fmt.Fprintf(w, `{"id":"asset-1","url":"https://assets.example/asset-1","purpose":"document-image","size":%d}`, len(data))
	}))

	asset, err := client.Upload(context.Background(), core.UploadRequest{
		WorkspaceID: "thesis-1",
		Filename:    "grafik.png",
		Purpose:     schema.AssetDocumentImage,
		Data:        []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.ID != "asset-1" || asset.Size != int64(len("png-bytes")) {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestUpdateDiagramNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.UpdateDiagram(context.Background(), core.DiagramRevision{
		WorkspaceID: "thesis-1", TabID: "tab-diagram", DiagramID: "diag-404",
	})
	if !errors.Is(err, schema.ErrDiagramNotFound) {
		t.Fatalf("expected ErrDiagramNotFound, got %v", err)
	}
}
