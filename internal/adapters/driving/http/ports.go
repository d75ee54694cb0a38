package http

import (
	"os"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// UnitCatalog lists convertible units by category.
type UnitCatalog interface {
	AvailableUnits() map[string][]string
}

// Ports aggregates the driving ports one service's handler needs.
type Ports struct {
	// Evaluator is the service's domain core.
	Evaluator driving.Evaluator

	// Chain handles POST /message.
	Chain driving.ChainOrchestrator

	// Peers is read by /health and /network-info and edited by /config/agents.
	Peers driving.PeerRegistry

	// Router and Health back the calculator's /route and /config/test.
	Router driving.RouteService
	Health driving.HealthChecker

	// Units backs the unit converter's GET /units.
	Units UnitCatalog

	// Samples backs the statistics service's GET /api/sample-data.
	Samples func() map[string][]float64
}

// Validate ensures the ports required by the evaluator's agent are set.
func (p *Ports) Validate() error {
	if p.Evaluator == nil {
		return ErrMissingEvaluator
	}
	if p.Chain == nil {
		return ErrMissingChain
	}
	if p.Peers == nil {
		return ErrMissingPeerRegistry
	}
	switch p.Evaluator.Kind() {
	case domain.AgentCalculator:
		if p.Router == nil {
			return ErrMissingRouteService
		}
		if p.Health == nil {
			return ErrMissingHealthCheck
		}
	case domain.AgentUnitConverter:
		if p.Units == nil {
			return ErrMissingUnitCatalog
		}
	}
	return nil
}

// Config holds the per-server settings of a handler.
type Config struct {
	// Identity is reported in replies and health checks.
	Identity domain.Identity

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int

	// LookupEnv reads the environment for /network-info. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

func (c Config) lookupEnv(key string) (string, bool) {
	if c.LookupEnv == nil {
		return os.LookupEnv(key)
	}
	return c.LookupEnv(key)
}
