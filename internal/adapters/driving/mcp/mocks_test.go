package mcp

import (
	"context"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

// mockEvaluator records the last call and returns a fixed result.
type mockEvaluator struct {
	kind      domain.AgentKind
	result    domain.OperationResult
	operation string
	data      domain.Data
}

func (m *mockEvaluator) Kind() domain.AgentKind {
	return m.kind
}

func (m *mockEvaluator) Operations() []string {
	return nil
}

func (m *mockEvaluator) Evaluate(_ context.Context, operation string, data domain.Data) domain.OperationResult {
	m.operation = operation
	m.data = data
	return m.result
}

// mockUnitCatalog is a mock implementation of UnitCatalog.
type mockUnitCatalog struct {
	units map[string][]string
}

func (m *mockUnitCatalog) AvailableUnits() map[string][]string {
	return m.units
}

// mockPeerRegistry is a mock implementation of driving.PeerRegistry.
type mockPeerRegistry struct {
	urls domain.PeerURLs
}

func (m *mockPeerRegistry) Snapshot() domain.PeerURLs {
	return m.urls
}

func (m *mockPeerRegistry) Update(partial domain.PeerURLs) (domain.PeerURLs, error) {
	m.urls = m.urls.Merge(partial)
	return m.urls, nil
}

func validPorts() *Ports {
	return &Ports{
		Calculator: &mockEvaluator{kind: domain.AgentCalculator},
		Converter:  &mockEvaluator{kind: domain.AgentUnitConverter},
		Statistics: &mockEvaluator{kind: domain.AgentStatistics},
		Units: &mockUnitCatalog{units: map[string][]string{
			"length":      {"meter", "feet"},
			"temperature": {"celsius", "kelvin"},
		}},
	}
}
