package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid category URI", "calcmesh://units/length", "length"},
		{"invalid prefix", "file://units/length", ""},
		{"catalog URI", "calcmesh://units", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractCategory(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleUnitsResource(t *testing.T) {
	server, err := NewServer(validPorts())
	require.NoError(t, err)

	result, err := server.handleUnitsResource(context.Background(), makeReadResourceRequest("calcmesh://units"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, "temperature")
	assert.Contains(t, result.Contents[0].Text, "kelvin")
}

func TestServer_handleCategoryResource(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(validPorts())
	require.NoError(t, err)

	t.Run("known category", func(t *testing.T) {
		result, err := server.handleCategoryResource(ctx, makeReadResourceRequest("calcmesh://units/length"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "feet")
		assert.NotContains(t, result.Contents[0].Text, "kelvin")
	})

	t.Run("unknown category returns not found", func(t *testing.T) {
		_, err := server.handleCategoryResource(ctx, makeReadResourceRequest("calcmesh://units/time"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleCategoryResource(ctx, makeReadResourceRequest("calcmesh://invalid"))
		require.Error(t, err)
	})
}

func TestServer_handlePeersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no registry returns empty object", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)

		result, err := server.handlePeersResource(ctx, makeReadResourceRequest("calcmesh://peers"))
		require.NoError(t, err)
		assert.Equal(t, "{}", result.Contents[0].Text)
	})

	t.Run("registry snapshot", func(t *testing.T) {
		ports := validPorts()
		ports.Peers = &mockPeerRegistry{urls: domain.PeerURLs{StatisticsURL: "http://10.0.0.3:5003"}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handlePeersResource(ctx, makeReadResourceRequest("calcmesh://peers"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"statistics_url": "http://10.0.0.3:5003"`)
	})
}
