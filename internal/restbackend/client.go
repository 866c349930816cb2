// Package restbackend implements the platform transport over HTTP. It backs
// chat streaming, history paging, workspace metadata, diagram storage and
// uploads with the hosted REST API.
package restbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// Options configures the platform client.
type Options struct {
	// BaseURL is the platform API root, e.g. https://api.example.com.
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// HTTPClient overrides the default client. Streaming requests need a
	// client without a global timeout.
	HTTPClient *http.Client
	Logger     pslog.Logger
}

// Client talks to the platform REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     pslog.Logger
}

// NewClient constructs a platform client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		http:    httpClient,
		log:     logger.With("backend", base),
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doJSON performs a JSON round trip. A nil out discards the response body.
// notFound, when non-nil, replaces 404 responses.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, notFound error) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %v", schema.ErrTransport, err)
	}
	defer resp.Body.Close()
	c.log.Trace("backend request done", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(started).Milliseconds())
	if err := c.statusError(resp, notFound); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", schema.ErrTransport, err)
	}
	return nil
}

func decodeJSONBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", schema.ErrTransport, err)
	}
	return nil
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) statusError(resp *http.Response, notFound error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var detail apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &detail)
	message := strings.TrimSpace(detail.Error)
	if message == "" {
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		message = resp.Status
	}
	switch {
	case resp.StatusCode == http.StatusNotFound && notFound != nil:
		return fmt.Errorf("%w: %s", notFound, message)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", schema.ErrInvalidRequest, message)
	default:
		return fmt.Errorf("%w: %s (status %d)", schema.ErrTransport, message, resp.StatusCode)
	}
}
