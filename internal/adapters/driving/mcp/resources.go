package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for calcmesh resources.
	uriScheme = "calcmesh://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "units",
		Name:        "units",
		Description: "Convertible units grouped by category",
		MIMEType:    "application/json",
	}, s.handleUnitsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "units/{category}",
		Name:        "category-units",
		Description: "Units of one category",
		MIMEType:    "application/json",
	}, s.handleCategoryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "peers",
		Name:        "peers",
		Description: "Base URLs of the calculator, unit converter and statistics services",
		MIMEType:    "application/json",
	}, s.handlePeersResource)
}

func (s *Server) handleUnitsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Units.AvailableUnits())
}

func (s *Server) handleCategoryResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	category := extractCategory(req.Params.URI)
	if category == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	units, ok := s.ports.Units.AvailableUnits()[category]
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, units)
}

func (s *Server) handlePeersResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Peers == nil {
		return jsonResource(req.Params.URI, map[string]string{})
	}
	return jsonResource(req.Params.URI, s.ports.Peers.Snapshot())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCategory extracts the category from a URI like calcmesh://units/{category}.
func extractCategory(uri string) string {
	const prefix = uriScheme + "units/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
