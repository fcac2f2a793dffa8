package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/shared"
)

const defaultDriverURL = "http://127.0.0.1:8089"

// Client implements [Session] against the driver sidecar's HTTP API.
//
// The persisted storage-state path travels in the X-State-File header on
// every request; the driver reads and writes the blob itself, so this
// process never interprets its contents.
type Client struct {
	baseURL    string
	stateFile  string
	headless   bool
	timeout    time.Duration
	httpClient *http.Client
	sessionID  string
}

// ClientOpts contains configuration for creating a Client.
type ClientOpts struct {
	BaseURL       string
	StateFile     string
	ActionTimeout time.Duration
	HTTPClient    *http.Client
}

// NewHeadless creates a Client that starts headless worker sessions from the
// persisted auth state. This is the normal construction path.
func NewHeadless(opts ClientOpts) *Client {
	return newClient(opts, true)
}

// NewInteractive creates a Client that starts a visible browser window, used
// for the one-time interactive login on first run.
func NewInteractive(opts ClientOpts) *Client {
	return newClient(opts, false)
}

func newClient(opts ClientOpts, headless bool) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultDriverURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}

	return &Client{
		baseURL:    opts.BaseURL,
		stateFile:  opts.StateFile,
		headless:   headless,
		timeout:    opts.ActionTimeout,
		httpClient: opts.HTTPClient,
	}
}

// Start establishes a new browser context on the driver.
func (c *Client) Start(ctx context.Context) error {
	body := map[string]any{"headless": c.headless}

	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/session", body, &resp); err != nil {
		return err
	}
	if resp.SessionID == "" {
		return fmt.Errorf("%w: driver returned no session id", shared.ErrAPIRequest)
	}

	c.sessionID = resp.SessionID
	return nil
}

// Subscribe drives one subscription action on the live context.
func (c *Client) Subscribe(ctx context.Context, entry models.ChannelEntry) (*models.Outcome, error) {
	if c.sessionID == "" {
		return nil, shared.ErrNoSession
	}

	body := map[string]any{
		"url":          entry.Ref(),
		"title":        entry.Title,
		"timeout_secs": int(c.timeout.Seconds()),
	}

	var resp struct {
		Status string `json:"status"`
		Detail string `json:"detail"`
	}
	endpoint := fmt.Sprintf("/session/%s/subscribe", c.sessionID)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}

	if resp.Status == "subscribed" {
		return models.Success(), nil
	}
	return models.Failure(models.ParseFailureReason(resp.Status), resp.Detail), nil
}

// Restart discards the current context and starts a fresh one.
func (c *Client) Restart(ctx context.Context) error {
	// Best-effort teardown; a dead context is replaced either way
	_ = c.Close(ctx)

	if err := c.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Close tears down the current context on the driver.
func (c *Client) Close(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}

	endpoint := fmt.Sprintf("/session/%s", c.sessionID)
	err := c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
	c.sessionID = ""
	return err
}

// BeginLogin asks the driver to open a visible window on the login page.
func (c *Client) BeginLogin(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/login", nil, nil)
}

// CheckAuth reports whether the driver sees a logged-in context, either from
// the persisted state blob or the in-progress interactive login.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/auth/check", nil, &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

// SaveAuth persists the live context's storage state to the state file.
func (c *Client) SaveAuth(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/save", nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := c.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.stateFile != "" {
		req.Header.Set("X-State-File", c.stateFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrDriverUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: driver has no valid auth state", shared.ErrAuthRequired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: driver error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: driver error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
