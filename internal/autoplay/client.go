package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/simulation"
)

const defaultClientTimeout = 10 * time.Second

// Client is a Driver backed by the HTTP API of a running server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL. A non-positive
// timeout uses the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Scenarios lists the server's catalog.
func (c *Client) Scenarios(ctx context.Context) ([]model.Scenario, error) {
	var out []model.Scenario
	if err := c.do(ctx, http.MethodGet, "/scenarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartRun starts a run of scenarioID.
func (c *Client) StartRun(ctx context.Context, scenarioID int) (simulation.Snapshot, error) {
	var snap simulation.Snapshot
	err := c.do(ctx, http.MethodPost, "/runs", map[string]int{"scenarioId": scenarioID}, &snap)
	return snap, err
}

// Run fetches the current snapshot of runID.
func (c *Client) Run(ctx context.Context, runID string) (simulation.Snapshot, error) {
	var snap simulation.Snapshot
	err := c.do(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID), nil, &snap)
	return snap, err
}

// Resolve answers the pending decision of runID.
func (c *Client) Resolve(ctx context.Context, runID string, optionIndex int) (simulation.Resolution, simulation.Snapshot, error) {
	var out struct {
		simulation.Resolution
		Run simulation.Snapshot `json:"run"`
	}
	err := c.do(ctx, http.MethodPost, "/runs/"+url.PathEscape(runID)+"/decision", map[string]int{"option": optionIndex}, &out)
	return out.Resolution, out.Run, err
}

// do sends a JSON request and decodes a 2xx reply into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(data, &e); jsonErr != nil || e.Code == "" {
			e.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
			e.Message = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("%s %s: %d %s: %s: %w", method, path, resp.StatusCode, e.Code, e.Message, ErrRemote)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
