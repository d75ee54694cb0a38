// Package peer provides the outbound HTTP client services use to call each other.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PeerClient = (*Client)(nil)

// DefaultTimeout bounds a call when the context carries no deadline.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a peer reply is read.
const maxBodyBytes = 4 << 20

// Option configures the client.
type Option func(*Client)

// Client posts JSON to peer services.
type Client struct {
	http    *http.Client
	headers http.Header
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// WithHeader adds a static header to all outgoing requests.
func WithHeader(name, value string) Option {
	return func(cl *Client) {
		cl.headers.Add(name, value)
	}
}

// New creates a peer client.
func New(opts ...Option) *Client {
	cl := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cl)
		}
	}
	return cl
}

// Send posts payload and decodes the peer's reply.
func (c *Client) Send(ctx context.Context, url string, payload any) (domain.PeerReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PeerReply{}, fmt.Errorf("%w: encode request: %v", domain.ErrInvalidInput, err)
	}

	resp, err := c.post(ctx, url, body)
	if err != nil {
		return domain.PeerReply{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.PeerReply{}, fmt.Errorf("%w: %s returned status %d%s",
			domain.ErrDownstreamUnavailable, url, resp.StatusCode, snippet(resp.Body))
	}

	var reply domain.PeerReply
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		return domain.PeerReply{}, fmt.Errorf("%w: decode reply from %s: %v",
			domain.ErrMalformedDownstreamResponse, url, err)
	}
	return reply, nil
}

// Relay posts payload and returns whatever the peer answered.
func (c *Client) Relay(ctx context.Context, url string, payload json.RawMessage) (driven.RelayResponse, error) {
	return c.post(ctx, url, payload)
}

// Ping performs GET url.
func (c *Client) Ping(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (driven.RelayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return driven.RelayResponse{}, fmt.Errorf("%w: create request: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return driven.RelayResponse{}, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return driven.RelayResponse{}, fmt.Errorf("%w: read reply from %s: %v", domain.ErrDownstreamUnavailable, url, err)
	}
	return driven.RelayResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

// classify wraps a transport error so callers can tell timeouts apart.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %v", domain.ErrDownstreamUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrDownstreamUnavailable, err)
}

// snippet returns the start of a body for error messages.
func snippet(body []byte) string {
	const limit = 200
	if len(body) == 0 {
		return ""
	}
	if len(body) > limit {
		body = body[:limit]
	}
	return ": " + string(bytes.TrimSpace(body))
}
