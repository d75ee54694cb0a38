package driven

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

// RelayResponse is a downstream reply passed through untouched.
type RelayResponse struct {
	StatusCode int
	Body       []byte
}

// PeerClient makes outbound calls to other services.
// Deadlines come from ctx; implementations add no retries.
type PeerClient interface {
	// Send posts payload as JSON to url and decodes the reply.
	// Transport failures and non-2xx statuses wrap ErrDownstreamUnavailable.
	// Undecodable bodies wrap ErrMalformedDownstreamResponse.
	Send(ctx context.Context, url string, payload any) (domain.PeerReply, error)

	// Relay posts a raw JSON payload and returns the status and body as-is.
	// Only transport failures are errors.
	Relay(ctx context.Context, url string, payload json.RawMessage) (RelayResponse, error)

	// Ping performs GET url and returns the status code.
	Ping(ctx context.Context, url string) (int, error)
}

// ArithmeticBackend performs the linear math of unit conversion.
type ArithmeticBackend interface {
	// Multiply returns a*b.
	Multiply(ctx context.Context, a, b float64) (float64, error)

	// Divide returns a/b. A zero b wraps ErrDivisionByZero.
	Divide(ctx context.Context, a, b float64) (float64, error)
}

// ConfigWatcher reports changes to the configuration file.
type ConfigWatcher interface {
	// Watch calls onChange after every write to the watched file until ctx is done.
	Watch(ctx context.Context, onChange func()) error
}
