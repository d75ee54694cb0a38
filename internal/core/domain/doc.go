// Package domain defines the core types shared by the calcmesh services.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Envelope: the JSON message passed between services
//   - NextHop: a recursive descriptor naming where a result goes next
//   - StepRecord: one executed hop of a call chain
//   - OperationResult: the outcome of a single domain operation
//   - PeerURLs: the base URLs of the three services
//   - ServiceSettings: resolved runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
