// Package client is a REST client for the school backend's /students API,
// plus an offline-aware wrapper that reads through the offline cache and
// queues mutations while the backend is unreachable.
package client

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

	"github.com/achu-1612/offcache/log"
)

const defaultTimeout = 20 * time.Second

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://host/api.
	BaseURL string

	// Timeout bounds every request. Defaults to 20 seconds.
	Timeout time.Duration

	// Local switches list, count, register and search to the public
	// endpoints and disables authentication.
	Local bool

	Username string
	Password string

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client

	SupressLog bool
	DebugLogs  bool
}

// Client is the students API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	local      bool
	username   string
	password   string

	l log.Logger
}

// New creates a new API client.
func New(opt Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opt.BaseURL, "/"),
		httpClient: opt.HTTPClient,
		local:      opt.Local,
		username:   opt.Username,
		password:   opt.Password,
		l:          log.New("client", opt.SupressLog, opt.DebugLogs),
	}

	if c.httpClient == nil {
		timeout := opt.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		c.httpClient = &http.Client{Timeout: timeout}
	}

	if !c.local && c.username == "" {
		c.l.Warn("no credentials configured, requests are sent without authentication")
	}

	return c
}

// endpoint maps an operation path to the URL path the backend serves it on.
func (c *Client) endpoint(path string) string {
	if c.local {
		switch path {
		case "", "/", "/all":
			return "/students/public/list"
		case "/count", "/register", "/search":
			return "/students/public" + path
		}
	}

	return "/students" + path
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if !c.local && c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.l.Debugf("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}

		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}

		c.l.Warnf("%s %s: %v", method, path, apiErr)

		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

func (c *Client) delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, result)
}
