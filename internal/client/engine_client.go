// Package client communicates with the upstream event engine REST API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurator-news/kurator/internal/models"
)

// EngineClient talks to the event engine. The engine is the system of
// record; this client only reads from it.
type EngineClient struct {
	baseURL    string
	archiveURL string
	httpClient *http.Client
}

// NewEngineClient creates a client for the given engine base URL.
// archiveURL may be empty, in which case the archive endpoint is served
// from the same base.
func NewEngineClient(baseURL, archiveURL string, timeout time.Duration) *EngineClient {
	if archiveURL == "" {
		archiveURL = baseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EngineClient{
		baseURL:    baseURL,
		archiveURL: archiveURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListEvents fetches the current event list.
// GET /events?limit=&lang=&category= -> { data: [Event] }
func (c *EngineClient) ListEvents(ctx context.Context, limit int, lang, category string) ([]models.Event, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("lang", lang)
	if category != "" {
		q.Set("category", category)
	}

	var result struct {
		Data []models.Event `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/events?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ArchiveEvents fetches the historical pool and maps it onto the
// canonical event shape.
// GET /events/archive?limit=&lang= -> { data: [ArchiveEvent] }
func (c *EngineClient) ArchiveEvents(ctx context.Context, limit int, lang string) ([]models.Event, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("lang", lang)

	var result struct {
		Data []models.ArchiveEvent `json:"data"`
	}
	if err := c.getJSON(ctx, c.archiveURL+"/events/archive?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	events := make([]models.Event, len(result.Data))
	for i := range result.Data {
		events[i] = result.Data[i].ToEvent()
	}
	return events, nil
}

// Status probes the engine. A nil error means the engine answered 2xx.
func (c *EngineClient) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach engine: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("engine status returned %d", resp.StatusCode)
	}
	return nil
}

// Stream opens the long-lived NDJSON event stream. The caller owns the
// returned body and must close it. No client timeout is applied since
// the connection is expected to stay open indefinitely.
func (c *EngineClient) Stream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	// The shared httpClient carries a request timeout, which would kill
	// a long-lived stream. Use a dedicated client without one.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *EngineClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
