package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
)

func TestRouteService_Route(t *testing.T) {
	client := &mockPeerClient{relayFn: func(url string, payload json.RawMessage) (driven.RelayResponse, error) {
		return driven.RelayResponse{StatusCode: 418, Body: []byte(`{"teapot":true}`)}, nil
	}}
	svc := NewRouteService(client, newTestRegistry(t), time.Second)

	resp, err := svc.Route(context.Background(), "statistics", "stats", json.RawMessage(`{"operation":"mean"}`))

	require.NoError(t, err)
	assert.Equal(t, 418, resp.StatusCode, "status is relayed untouched")
	assert.JSONEq(t, `{"teapot":true}`, string(resp.Body))
	require.Len(t, client.relays, 1)
	assert.Equal(t, "http://stats:5003/stats", client.relays[0].URL)
}

func TestRouteService_Defaults(t *testing.T) {
	client := &mockPeerClient{}
	svc := NewRouteService(client, newTestRegistry(t), 0)

	_, err := svc.Route(context.Background(), "unit", "", nil)

	require.NoError(t, err)
	assert.Equal(t, "http://unit:5002/message", client.relays[0].URL)
	assert.Equal(t, json.RawMessage("{}"), client.relays[0].Payload)
}

func TestRouteService_Errors(t *testing.T) {
	client := &mockPeerClient{relayFn: func(string, json.RawMessage) (driven.RelayResponse, error) {
		return driven.RelayResponse{}, errors.Join(domain.ErrDownstreamUnavailable, errors.New("dial tcp: refused"))
	}}
	svc := NewRouteService(client, newTestRegistry(t), time.Second)

	_, err := svc.Route(context.Background(), "unit_converter", "/message", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget, "only canonical names are routable")
	assert.Empty(t, client.relays)

	_, err = svc.Route(context.Background(), "calculator", "/health", nil)
	assert.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
	assert.ErrorContains(t, err, "route to http://calc:5001/health")
}
