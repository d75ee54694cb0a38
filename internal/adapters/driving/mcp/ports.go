package mcp

import (
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// UnitCatalog lists convertible units by category.
type UnitCatalog interface {
	AvailableUnits() map[string][]string
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Calculator backs the calculate tool.
	Calculator driving.Evaluator

	// Converter backs the convert_units tool.
	Converter driving.Evaluator

	// Statistics backs the statistics tool.
	Statistics driving.Evaluator

	// Units backs list_units and the units resources.
	Units UnitCatalog

	// Peers is optional; when set the peer registry is readable as a resource.
	Peers driving.PeerRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Calculator == nil {
		return ErrMissingCalculator
	}
	if p.Converter == nil {
		return ErrMissingConverter
	}
	if p.Statistics == nil {
		return ErrMissingStatistics
	}
	if p.Units == nil {
		return ErrMissingUnitCatalog
	}
	return nil
}
