package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
)

// sentRequest records one outbound call made through mockPeerClient.
type sentRequest struct {
	URL     string
	Payload any
}

// mockPeerClient implements driven.PeerClient for testing.
type mockPeerClient struct {
	mu sync.Mutex

	sendFn  func(url string, payload any) (domain.PeerReply, error)
	relayFn func(url string, payload json.RawMessage) (driven.RelayResponse, error)
	pingFn  func(url string) (int, error)

	sent   []sentRequest
	relays []sentRequest
	pings  []string
}

func (m *mockPeerClient) Send(ctx context.Context, url string, payload any) (domain.PeerReply, error) {
	m.mu.Lock()
	m.sent = append(m.sent, sentRequest{URL: url, Payload: payload})
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.PeerReply{}, err
	}
	if m.sendFn == nil {
		return domain.PeerReply{}, domain.ErrDownstreamUnavailable
	}
	return m.sendFn(url, payload)
}

func (m *mockPeerClient) Relay(_ context.Context, url string, payload json.RawMessage) (driven.RelayResponse, error) {
	m.mu.Lock()
	m.relays = append(m.relays, sentRequest{URL: url, Payload: payload})
	m.mu.Unlock()
	if m.relayFn == nil {
		return driven.RelayResponse{StatusCode: 200, Body: []byte("{}")}, nil
	}
	return m.relayFn(url, payload)
}

func (m *mockPeerClient) Ping(_ context.Context, url string) (int, error) {
	m.mu.Lock()
	m.pings = append(m.pings, url)
	m.mu.Unlock()
	if m.pingFn == nil {
		return 200, nil
	}
	return m.pingFn(url)
}

func (m *mockPeerClient) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockWatcher implements driven.ConfigWatcher; it fires onChange once per
// value sent on changes.
type mockWatcher struct {
	changes chan struct{}
}

func (w *mockWatcher) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.changes:
			onChange()
		}
	}
}

// staticSettings implements driving.SettingsService with a fixed value.
type staticSettings struct {
	settings domain.ServiceSettings
	err      error
}

func (s *staticSettings) Get() (domain.ServiceSettings, error) { return s.settings, s.err }
func (s *staticSettings) Set(string, string) error             { return nil }
func (s *staticSettings) Values() (map[string]string, error)   { return nil, nil }
func (s *staticSettings) Path() string                         { return ":static:" }

// success builds a successful peer reply.
func success(agent, operation string, result any) domain.PeerReply {
	r := domain.Succeeded(operation, result, nil)
	return domain.PeerReply{Agent: agent, Response: &r}
}

// failure builds a failed peer reply.
func failure(agent string, err error) domain.PeerReply {
	r := domain.Failed("", err)
	return domain.PeerReply{Agent: agent, Response: &r}
}
