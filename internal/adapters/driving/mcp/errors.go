// Package mcp provides an MCP (Model Context Protocol) server adapter for calcmesh.
// It exposes the calculator, unit converter and statistics cores as tools
// so AI assistants can compute without going through HTTP.
package mcp

import "errors"

var (
	// ErrMissingCalculator is returned when the calculator evaluator is not provided.
	ErrMissingCalculator = errors.New("mcp: calculator evaluator is required")

	// ErrMissingConverter is returned when the unit converter evaluator is not provided.
	ErrMissingConverter = errors.New("mcp: unit converter evaluator is required")

	// ErrMissingStatistics is returned when the statistics evaluator is not provided.
	ErrMissingStatistics = errors.New("mcp: statistics evaluator is required")

	// ErrMissingUnitCatalog is returned when the unit catalog is not provided.
	ErrMissingUnitCatalog = errors.New("mcp: unit catalog is required")
)
