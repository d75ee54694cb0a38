package driving

import (
	"context"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

// Evaluator runs one operation of a service's domain core.
type Evaluator interface {
	// Kind returns the agent the evaluator belongs to.
	Kind() domain.AgentKind

	// Operations lists the operation names the evaluator serves.
	Operations() []string

	// Evaluate runs operation over data. Failures are reported in the
	// result with Success=false, never as a panic.
	Evaluate(ctx context.Context, operation string, data domain.Data) domain.OperationResult
}

// ChainOrchestrator handles POST /message.
type ChainOrchestrator interface {
	// Handle computes locally and walks the next-hop chain.
	//
	// The response is always populated. A non-nil error means the chain
	// itself failed: an invalid descriptor (before any forwarding) or a
	// downstream hop (wrapped in *domain.HopError). A local computation
	// failure is not an error; it is reported in the response.
	Handle(ctx context.Context, env domain.Envelope) (domain.ChainResponse, error)
}
