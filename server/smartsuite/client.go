package smartsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/config"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ComponentType defines the upstream client component type identifier
const ComponentType = "upstream"

// Client talks to the SmartSuite REST API. All mutating tool calls pass
// through here; the cache never calls upstream itself.
type Client struct {
	baseURL    string
	apiKey     string
	accountID  string
	maxRetries int
	httpClient *http.Client
	logger     zerolog.Logger

	statsMu sync.Mutex
	stats   APIStats
}

// APIStats tracks request counters for the get-api-stats tool.
type APIStats struct {
	Requests    int64      `json:"requests"`
	Errors      int64      `json:"errors"`
	RateLimited int64      `json:"rate_limited"`
	LastRequest *time.Time `json:"last_request,omitempty"`
}

// NewClient creates a new SmartSuite API client.
func NewClient(cfg *config.UpstreamConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(ErrMissingCredential, "SMARTSUITE_API_KEY is not set", nil)
	}
	if cfg.AccountID == "" {
		return nil, errors.New(ErrMissingCredential, "SMARTSUITE_ACCOUNT_ID is not set", nil)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		accountID:  cfg.AccountID,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout.D()},
		logger:     logger.With().Str("component", "upstream-client").Logger(),
	}, nil
}

// GetType returns the component type identifier
func (c *Client) GetType() string {
	return ComponentType
}

// Shutdown gracefully shuts down the client
func (c *Client) Shutdown(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do performs one API call with exponential backoff on 429 and 5xx.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.New(ErrRequestFailed, "failed to encode request body", err)
		}
		payload = encoded
	}

	var result []byte
	operation := func() error {
		c.recordRequest()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(errors.New(ErrRequestFailed, "failed to build request", err))
		}
		req.Header.Set("Authorization", "Token "+c.apiKey)
		req.Header.Set("ACCOUNT-ID", c.accountID)
		req.Header.Set("X-Request-Id", utils.GenerateULIDString())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.recordError()
			return errors.New(ErrRequestFailed, "request failed", err).AddContext("path", path)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			c.recordError()
			return errors.New(ErrRequestFailed, "failed to read response body", err).AddContext("path", path)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			c.recordRateLimited()
			return errors.New(ErrRateLimited, "upstream rate limit hit", nil).AddContext("path", path)
		case resp.StatusCode >= 500:
			c.recordError()
			return errors.Newf(ErrUnexpectedStatus, "upstream returned %d", resp.StatusCode).AddContext("path", path)
		default:
			c.recordError()
			return backoff.Permanent(errors.Newf(ErrUnexpectedStatus, "upstream returned %d", resp.StatusCode).
				AddContext("path", path).
				AddContext("body", string(data)))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) recordRequest() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	now := time.Now()
	c.stats.Requests++
	c.stats.LastRequest = &now
}

func (c *Client) recordError() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.Errors++
}

func (c *Client) recordRateLimited() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.RateLimited++
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() APIStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// ResetStats zeroes the request counters.
func (c *Client) ResetStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = APIStats{}
}

// ListSolutions fetches all solutions visible to the account.
func (c *Client) ListSolutions(ctx context.Context) ([]Solution, error) {
	data, err := c.do(ctx, http.MethodGet, "/solutions/", nil)
	if err != nil {
		return nil, err
	}
	return ParseSolutions(data)
}

// ListTables fetches tables, optionally restricted to one solution.
func (c *Client) ListTables(ctx context.Context, solutionID string) ([]Table, error) {
	path := "/applications/"
	if solutionID != "" {
		path += "?solution=" + solutionID
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return ParseTables(data)
}

// ListRecords fetches all records of one table.
func (c *Client) ListRecords(ctx context.Context, tableID string) ([]Record, error) {
	path := fmt.Sprintf("/applications/%s/records/list/", tableID)
	data, err := c.do(ctx, http.MethodPost, path, map[string]any{})
	if err != nil {
		return nil, err
	}
	return ParseRecords(data)
}

// GetRecord fetches a single record.
func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (Record, error) {
	path := fmt.Sprintf("/applications/%s/records/%s/", tableID, recordID)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.New(ErrPayloadShape, "failed to decode record", err)
	}
	return record, nil
}

// ListMembers fetches all workspace members.
func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	data, err := c.do(ctx, http.MethodPost, "/members/list/", map[string]any{})
	if err != nil {
		return nil, err
	}
	return ParseMembers(data)
}

// ListTeams fetches all teams.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	data, err := c.do(ctx, http.MethodPost, "/teams/list/", map[string]any{})
	if err != nil {
		return nil, err
	}
	return ParseTeams(data)
}

// CreateRecord creates a record and returns the stored version.
func (c *Client) CreateRecord(ctx context.Context, tableID string, fields map[string]any) (Record, error) {
	path := fmt.Sprintf("/applications/%s/records/", tableID)
	data, err := c.do(ctx, http.MethodPost, path, fields)
	if err != nil {
		return nil, err
	}
	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.New(ErrPayloadShape, "failed to decode created record", err)
	}
	return record, nil
}

// UpdateRecord patches a record and returns the stored version.
func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]any) (Record, error) {
	path := fmt.Sprintf("/applications/%s/records/%s/", tableID, recordID)
	data, err := c.do(ctx, http.MethodPatch, path, fields)
	if err != nil {
		return nil, err
	}
	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.New(ErrPayloadShape, "failed to decode updated record", err)
	}
	return record, nil
}

// DeleteRecord deletes a record.
func (c *Client) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	path := fmt.Sprintf("/applications/%s/records/%s/", tableID, recordID)
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}
