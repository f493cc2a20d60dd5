// ABOUTME: Gong REST API client for listing calls and fetching transcripts
// ABOUTME: Thin adapter with basic auth, cursor pagination, and transient-error retry
package gong

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/harperreed/salesdesk/models"
)

const (
	defaultTimeout   = 30 * time.Second
	retryBaseDelay   = 500 * time.Millisecond
	maxRetryAttempts = 3
)

// Client talks to the Gong public API. Timeout policy for individual
// requests lives here, not in the sync engine.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a Gong API client from config.
func NewClient(config *Config) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ListCallsRequest is one page request. Cursor is empty for the first page.
type ListCallsRequest struct {
	FromDateTime time.Time
	ToDateTime   time.Time
	Cursor       string
}

// ListCallsResponse is one page of calls. NextCursor is empty on the last
// page.
type ListCallsResponse struct {
	Calls        []models.RawCall `json:"calls"`
	NextCursor   string           `json:"nextCursor,omitempty"`
	TotalRecords int              `json:"totalRecords,omitempty"`
}

// listCallsWire is the provider's wire shape; pagination metadata arrives
// under a "records" envelope.
type listCallsWire struct {
	Calls   []models.RawCall `json:"calls"`
	Records struct {
		Cursor       string `json:"cursor"`
		TotalRecords int    `json:"totalRecords"`
	} `json:"records"`
}

// ListCalls fetches one page of calls in a date window. Safe to call
// repeatedly with the same cursor; the provider pages idempotently.
func (c *Client) ListCalls(ctx context.Context, req ListCallsRequest) (*ListCallsResponse, error) {
	params := url.Values{}
	params.Set("fromDateTime", req.FromDateTime.UTC().Format(time.RFC3339))
	params.Set("toDateTime", req.ToDateTime.UTC().Format(time.RFC3339))
	if req.Cursor != "" {
		params.Set("cursor", req.Cursor)
	}

	endpoint := c.config.BaseURL + "/v2/calls?" + params.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var wire listCallsWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode calls response: %w", err)
	}

	return &ListCallsResponse{
		Calls:        wire.Calls,
		NextCursor:   wire.Records.Cursor,
		TotalRecords: wire.Records.TotalRecords,
	}, nil
}

// GetTranscripts fetches transcripts for the given call ids.
func (c *Client) GetTranscripts(ctx context.Context, callIDs []string) ([]models.Transcript, error) {
	payload, err := json.Marshal(map[string]any{
		"filter": map[string]any{"callIds": callIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript request: %w", err)
	}

	body, err := c.post(ctx, c.config.BaseURL+"/v2/calls/transcript", payload)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Transcripts []models.Transcript `json:"transcripts"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode transcript response: %w", err)
	}

	return wire.Transcripts, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, payload)
}

// do issues one API request with a bounded retry budget. Rate-limit
// rejections and server errors are retried with exponential backoff; other
// failures surface immediately.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var result []byte

	backoff := retry.WithMaxRetries(maxRetryAttempts, retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.SetBasicAuth(c.config.AccessKey, c.config.AccessSecret)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to read response: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("gong API returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gong API returned %d: %s", resp.StatusCode, truncate(body, 200))
		}

		result = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
