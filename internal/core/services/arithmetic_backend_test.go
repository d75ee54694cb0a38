package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

func calculatorPeer(t *testing.T) func(string, any) (domain.PeerReply, error) {
	arith := NewArithmeticService()
	return func(url string, payload any) (domain.PeerReply, error) {
		assert.Equal(t, "http://calc:5001/message", url)
		env := payload.(domain.Envelope)
		assert.NotEmpty(t, env.CorrelationID)
		res := arith.Evaluate(context.Background(), env.Message.Operation, env.Message.Data)
		return domain.PeerReply{Agent: "calculator_agent", Response: &res}, nil
	}
}

func TestLocalArithmeticBackend(t *testing.T) {
	b := NewLocalArithmeticBackend(nil)
	ctx := context.Background()

	v, err := b.Multiply(ctx, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = b.Divide(ctx, 3, 0)
	assert.ErrorIs(t, err, domain.ErrDivisionByZero)
}

func TestRemoteArithmeticBackend_UsesCalculator(t *testing.T) {
	client := &mockPeerClient{sendFn: calculatorPeer(t)}
	b := NewRemoteArithmeticBackend(client, newTestRegistry(t), "unit_converter_agent", time.Second)

	v, err := b.Multiply(context.Background(), 2.5, 4)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = b.Divide(context.Background(), 9, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	require.Equal(t, 2, client.sentCount())
	env := client.sent[1].Payload.(domain.Envelope)
	assert.Equal(t, "divide", env.Message.Operation)
	assert.Equal(t, "unit_converter_agent", env.Sender)
}

func TestRemoteArithmeticBackend_FallsBackLocally(t *testing.T) {
	tests := []struct {
		name   string
		sendFn func(string, any) (domain.PeerReply, error)
	}{
		{"unreachable", nil},
		{"failed reply", func(string, any) (domain.PeerReply, error) {
			return failure("calculator_agent", domain.ErrInvalidInput), nil
		}},
		{"non-numeric reply", func(string, any) (domain.PeerReply, error) {
			return success("calculator_agent", "multiplication", "twelve"), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockPeerClient{sendFn: tt.sendFn}
			b := NewRemoteArithmeticBackend(client, newTestRegistry(t), "unit_converter_agent", time.Second)

			v, err := b.Multiply(context.Background(), 3, 4)
			require.NoError(t, err)
			assert.Equal(t, 12.0, v)
			assert.Equal(t, 1, client.sentCount())
		})
	}
}

func TestRemoteArithmeticBackend_ZeroDivisorStaysLocal(t *testing.T) {
	client := &mockPeerClient{sendFn: calculatorPeer(t)}
	b := NewRemoteArithmeticBackend(client, newTestRegistry(t), "unit_converter_agent", time.Second)

	_, err := b.Divide(context.Background(), 1, 0)

	assert.ErrorIs(t, err, domain.ErrDivisionByZero)
	assert.Equal(t, 0, client.sentCount())
}

func TestConversionService_WithRemoteBackend(t *testing.T) {
	client := &mockPeerClient{sendFn: calculatorPeer(t)}
	backend := NewRemoteArithmeticBackend(client, newTestRegistry(t), "unit_converter_agent", time.Second)
	svc := NewConversionService(backend, true)

	v, err := svc.Convert(context.Background(), 2, "kilometer", "meter")

	require.NoError(t, err)
	assert.InDelta(t, 2000.0, v, 1e-9)
	assert.Equal(t, 2, client.sentCount())
}
