package driving

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
)

// PeerRegistry holds the base URLs of the other services.
type PeerRegistry interface {
	// Snapshot returns a copy of the current URLs.
	Snapshot() domain.PeerURLs

	// Update merges the non-empty values of partial and swaps them in.
	// On a validation error nothing changes.
	Update(partial domain.PeerURLs) (domain.PeerURLs, error)
}

// HealthChecker probes the /health endpoint of services.
type HealthChecker interface {
	// Check probes every non-empty URL, keyed by its config name.
	Check(ctx context.Context, urls domain.PeerURLs) map[string]domain.PeerHealth
}

// RouteService proxies a payload to a named peer.
type RouteService interface {
	// Route posts payload to the target's base URL plus endpoint.
	// An unknown target wraps ErrInvalidTarget.
	Route(ctx context.Context, target, endpoint string, payload json.RawMessage) (driven.RelayResponse, error)
}
