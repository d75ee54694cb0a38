package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// Ensure both backends implement the interface.
var (
	_ driven.ArithmeticBackend = (*LocalArithmeticBackend)(nil)
	_ driven.ArithmeticBackend = (*RemoteArithmeticBackend)(nil)
)

// LocalArithmeticBackend computes in process.
type LocalArithmeticBackend struct {
	arith *ArithmeticService
}

// NewLocalArithmeticBackend creates a local backend.
func NewLocalArithmeticBackend(arith *ArithmeticService) *LocalArithmeticBackend {
	if arith == nil {
		arith = NewArithmeticService()
	}
	return &LocalArithmeticBackend{arith: arith}
}

// Multiply returns a*b.
func (b *LocalArithmeticBackend) Multiply(_ context.Context, x, y float64) (float64, error) {
	return b.arith.Multiply([]float64{x, y}), nil
}

// Divide returns x/y.
func (b *LocalArithmeticBackend) Divide(_ context.Context, x, y float64) (float64, error) {
	return b.arith.Divide([]float64{x, y})
}

// RemoteArithmeticBackend asks the calculator service and falls back to
// local computation when the calculator cannot answer.
type RemoteArithmeticBackend struct {
	client  driven.PeerClient
	peers   driving.PeerRegistry
	local   *LocalArithmeticBackend
	sender  string
	timeout time.Duration
}

// NewRemoteArithmeticBackend creates a delegating backend.
func NewRemoteArithmeticBackend(
	client driven.PeerClient,
	peers driving.PeerRegistry,
	sender string,
	timeout time.Duration,
) *RemoteArithmeticBackend {
	if timeout <= 0 {
		timeout = domain.DefaultChainTimeout
	}
	return &RemoteArithmeticBackend{
		client:  client,
		peers:   peers,
		local:   NewLocalArithmeticBackend(nil),
		sender:  sender,
		timeout: timeout,
	}
}

// Multiply returns x*y.
func (b *RemoteArithmeticBackend) Multiply(ctx context.Context, x, y float64) (float64, error) {
	if v, ok := b.remote(ctx, "multiply", x, y); ok {
		return v, nil
	}
	return b.local.Multiply(ctx, x, y)
}

// Divide returns x/y. A zero divisor fails locally without a remote call.
func (b *RemoteArithmeticBackend) Divide(ctx context.Context, x, y float64) (float64, error) {
	if y == 0 {
		return 0, domain.ErrDivisionByZero
	}
	if v, ok := b.remote(ctx, "divide", x, y); ok {
		return v, nil
	}
	return b.local.Divide(ctx, x, y)
}

func (b *RemoteArithmeticBackend) remote(ctx context.Context, operation string, x, y float64) (float64, bool) {
	base := b.peers.Snapshot().CalculatorURL
	if base == "" {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	env := domain.Envelope{
		Sender:        b.sender,
		CorrelationID: uuid.NewString(),
		Trace:         []string{},
		Message: domain.Message{
			Operation: operation,
			Data:      domain.Data{"numbers": []float64{x, y}},
		},
	}
	reply, err := b.client.Send(ctx, base+"/message", env)
	if err == nil {
		err = replyError(reply)
	}
	if err != nil {
		logger.Warn("calculator %s failed, computing locally: %v", operation, err)
		return 0, false
	}
	v, _ := reply.Response.Numeric()
	logger.Debug("calculator %s(%g, %g) = %g", operation, x, y, v)
	return v, true
}

// replyError reports why a peer reply carries no usable numeric result.
func replyError(reply domain.PeerReply) error {
	if reply.Response == nil {
		if reply.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrDownstreamFailed, reply.Error)
		}
		return fmt.Errorf("%w: reply has no response", domain.ErrMalformedDownstreamResponse)
	}
	if !reply.Response.Success {
		return fmt.Errorf("%w: %s", domain.ErrDownstreamFailed, reply.Response.Error)
	}
	if _, ok := reply.Response.Numeric(); !ok {
		return fmt.Errorf("%w: result %v is not a number", domain.ErrMalformedDownstreamResponse, reply.Response.Result)
	}
	return nil
}
