// Package gas talks to the legacy script-hosted storage endpoint. Every call
// is a JSON POST carrying an "action" discriminator; the reply always has a
// "status" field that must equal "success".
package gas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/resilience"
)

const (
	statusSuccess = "success"
	maxReplyBytes = 64 << 20
)

// ErrRejected is returned when the endpoint answers with a non-success status.
var ErrRejected = errors.New("gas: request rejected")

// Client posts actions to the main endpoint or to a specific storage node.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	nodeHosts  map[string]bool
}

// NewClient returns a client for the endpoint at baseURL. Node-addressed
// calls may only target the host of baseURL until AllowNodeHosts adds more.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		nodeHosts:  make(map[string]bool),
	}
	if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
		c.nodeHosts[strings.ToLower(u.Hostname())] = true
	}
	return c
}

// AllowNodeHosts adds storage node hostnames that node urls may point at.
func (c *Client) AllowNodeHosts(hosts ...string) {
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			c.nodeHosts[h] = true
		}
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type reply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// post sends body to target (the main endpoint when empty) and decodes the
// reply into out after checking its status.
func (c *Client) post(ctx context.Context, target string, body, out any) error {
	if target == "" {
		target = c.baseURL
	}
	if err := c.checkURL(target); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gas marshal: %w", err)
	}

	call := func(ctx context.Context) error {
		// The endpoint answers CORS-simple requests only, hence text/plain.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("gas request: %w", err)
		}
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: gas: %w", domain.ErrUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
		if err != nil {
			return fmt.Errorf("gas read: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: gas status %d", domain.ErrUnavailable, resp.StatusCode)
		}

		var r reply
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("gas decode: %w", err)
		}
		if r.Status != statusSuccess {
			if r.Message != "" {
				return fmt.Errorf("%w: %s", ErrRejected, r.Message)
			}
			return ErrRejected
		}
		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("gas decode: %w", err)
			}
		}
		return nil
	}

	if c.breaker != nil {
		return c.breaker.ExecuteContext(ctx, call)
	}
	return call(ctx)
}

// checkURL rejects node urls that are not absolute http(s) urls on an
// allowed storage host.
func (c *Client) checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: storage endpoint is not configured", domain.ErrUnavailable)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: invalid node url %q", domain.ErrValidation, raw)
	}
	if !c.nodeHosts[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("%w: node host %q is not an allowed storage node", domain.ErrValidation, u.Hostname())
	}
	return nil
}
