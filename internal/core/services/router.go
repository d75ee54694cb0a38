package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// Ensure RouteService implements the interface.
var _ driving.RouteService = (*RouteService)(nil)

// RouteService relays arbitrary payloads to a named peer.
type RouteService struct {
	client  driven.PeerClient
	peers   driving.PeerRegistry
	timeout time.Duration
}

// NewRouteService creates a route service.
func NewRouteService(client driven.PeerClient, peers driving.PeerRegistry, timeout time.Duration) *RouteService {
	return &RouteService{client: client, peers: peers, timeout: timeout}
}

// Route posts payload to the target's base URL plus endpoint.
func (s *RouteService) Route(
	ctx context.Context,
	target, endpoint string,
	payload json.RawMessage,
) (driven.RelayResponse, error) {
	base, err := s.peers.Snapshot().ForTarget(target)
	if err != nil {
		return driven.RelayResponse{}, err
	}
	if endpoint == "" {
		endpoint = "/message"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	url := base + endpoint
	logger.Debug("route %s -> %s", target, url)
	resp, err := s.client.Relay(ctx, url, payload)
	if err != nil {
		return driven.RelayResponse{}, fmt.Errorf("route to %s: %w", url, err)
	}
	return resp, nil
}
