// Package http serves the calculator, unit converter and statistics
// services over JSON HTTP.
package http

import "errors"

// Errors returned when a handler is built without the ports it needs.
var (
	ErrMissingEvaluator    = errors.New("http: evaluator is required")
	ErrMissingChain        = errors.New("http: chain orchestrator is required")
	ErrMissingPeerRegistry = errors.New("http: peer registry is required")
	ErrMissingRouteService = errors.New("http: calculator needs a route service")
	ErrMissingHealthCheck  = errors.New("http: calculator needs a health checker")
	ErrMissingUnitCatalog  = errors.New("http: unit converter needs a unit catalog")
	ErrKindMismatch        = errors.New("http: evaluator serves a different agent")
)
