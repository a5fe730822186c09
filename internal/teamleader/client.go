package teamleader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.focus.teamleader.eu"
	// Only the first page is ever requested; larger result sets are truncated.
	PageSize = 100
)

// ErrUnauthorized signals an expired or insufficient bearer token.
var ErrUnauthorized = errors.New("teamleader: unauthorized")

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *slog.Logger
}

// NewClient creates a client. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		maxRetries: 3,
		backoff:    backoff,
		logger:     logger,
	}
}

// SetRetryPolicy overrides how often 429/5xx responses are retried.
func (c *Client) SetRetryPolicy(maxRetries int, backoff func(attempt int) time.Duration) {
	c.maxRetries = maxRetries
	if backoff != nil {
		c.backoff = backoff
	}
}

func (c *Client) doRequest(ctx context.Context, token, method, endpoint string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/" + endpoint
	c.logger.Debug("teamleader API request", "method", method, "endpoint", endpoint)

	var resp *http.Response
	requestStart := time.Now()
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == c.maxRetries || ctx.Err() != nil {
				c.logger.Error("API request transport error", "endpoint", endpoint, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "endpoint", endpoint, "attempt", attempt+1, "error", err)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("sending request: %w", err)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				c.logger.Error("API request failed after retries", "endpoint", endpoint, "status", resp.StatusCode, "attempts", c.maxRetries+1, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.logger.Debug("API request retryable error", "endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt+1)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("waiting to retry: %w", err)
			}
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("teamleader API response", "endpoint", endpoint, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "endpoint", endpoint, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return respBody, nil
}

// call POSTs body to an RPC endpoint and decodes the "data" envelope into out.
func (c *Client) call(ctx context.Context, token, endpoint string, body, out any) error {
	method := http.MethodPost
	if body == nil {
		method = http.MethodGet
	}
	data, err := c.doRequest(ctx, token, method, endpoint, body)
	if err != nil {
		return err
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("parsing %s response: %w", endpoint, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("parsing %s data: %w", endpoint, err)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ListTimeEntries returns the first page of time entries of a user that
// started after and ended before the given instants.
func (c *Client) ListTimeEntries(ctx context.Context, token, userID string, after, before time.Time) ([]TimeEntry, error) {
	body := map[string]any{
		"filter": map[string]any{
			"user_id":       userID,
			"started_after": after.Format(time.RFC3339),
			"ended_before":  before.Format(time.RFC3339),
		},
		"sort": []sortField{{Field: "starts_on"}},
		"page": page{Size: PageSize, Number: 1},
	}

	var entries []TimeEntry
	if err := c.call(ctx, token, "timeTracking.list", body, &entries); err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return entries, nil
}

// ListDaysOff returns the days-off records of a user inside the date range.
func (c *Client) ListDaysOff(ctx context.Context, token, userID string, after, before time.Time) ([]DayOff, error) {
	body := map[string]any{
		"id": userID,
		"filter": map[string]any{
			"starts_after": after.Format("2006-01-02"),
			"ends_before":  before.Format("2006-01-02"),
		},
		"page": page{Size: PageSize, Number: 1},
	}

	var days []DayOff
	if err := c.call(ctx, token, "users.listDaysOff", body, &days); err != nil {
		return nil, fmt.Errorf("listing days off: %w", err)
	}
	return days, nil
}

// ListTeams returns the given teams, or every team when ids is empty.
func (c *Client) ListTeams(ctx context.Context, token string, ids ...string) ([]Team, error) {
	filter := map[string]any{}
	if len(ids) > 0 {
		filter["ids"] = ids
	}

	var teams []Team
	if err := c.call(ctx, token, "teams.list", map[string]any{"filter": filter}, &teams); err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

func (c *Client) UserInfo(ctx context.Context, token, userID string) (*User, error) {
	var user User
	if err := c.call(ctx, token, "users.info", map[string]any{"id": userID}, &user); err != nil {
		return nil, fmt.Errorf("getting user %s: %w", userID, err)
	}
	return &user, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.call(ctx, token, "users.me", nil, &user); err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return &user, nil
}

// ListActiveUsers returns active users sorted by first name.
func (c *Client) ListActiveUsers(ctx context.Context, token string) ([]User, error) {
	body := map[string]any{
		"filter": map[string]any{"status": []string{"active"}},
		"sort":   []sortField{{Field: "first_name"}},
		"page":   page{Size: PageSize, Number: 1},
	}

	var users []User
	if err := c.call(ctx, token, "users.list", body, &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ListContacts returns active contacts matching the filter.
func (c *Client) ListContacts(ctx context.Context, token string, f ContactFilter) ([]Contact, error) {
	filter := map[string]any{"status": "active"}
	if f.CompanyID != "" {
		filter["company_id"] = f.CompanyID
	}
	if len(f.Tags) > 0 {
		filter["tags"] = f.Tags
	}
	body := map[string]any{
		"filter": filter,
		"page":   page{Size: PageSize, Number: 1},
	}

	var contacts []Contact
	if err := c.call(ctx, token, "contacts.list", body, &contacts); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}
