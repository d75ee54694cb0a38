package cli

import (
	"fmt"

	"github.com/custodia-labs/calcmesh/internal/adapters/driven/peer"
	httpadapter "github.com/custodia-labs/calcmesh/internal/adapters/driving/http"
	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/services"
)

// newPeerClient builds the outbound client every command shares.
// Services bound each call through its context.
func newPeerClient() *peer.Client {
	return peer.New(peer.WithHeader("User-Agent", "calcmesh/"+version))
}

// agent is one service wired for serving.
type agent struct {
	kind     domain.AgentKind
	identity domain.Identity
	server   *httpadapter.Server
}

// newAgent wires the domain core of kind behind its HTTP handler.
func newAgent(
	kind domain.AgentKind,
	settings domain.ServiceSettings,
	registry *services.PeerRegistry,
	client *peer.Client,
) (*agent, error) {
	identity := settings.Identity(kind)
	arith := services.NewArithmeticService()

	ports := &httpadapter.Ports{Peers: registry}
	switch kind {
	case domain.AgentCalculator:
		ports.Evaluator = arith
		ports.Router = services.NewRouteService(client, registry, settings.RouteTimeout)
		ports.Health = services.NewHealthService(client, 0)
	case domain.AgentUnitConverter:
		var conv *services.ConversionService
		if settings.DelegateArithmetic {
			backend := services.NewRemoteArithmeticBackend(client, registry, identity.AgentID, settings.ChainTimeout)
			conv = services.NewConversionService(backend, settings.LegacyUnitAliases)
		} else {
			conv = services.NewConversionService(nil, settings.LegacyUnitAliases)
		}
		ports.Evaluator = conv
		ports.Units = conv
	case domain.AgentStatistics:
		ports.Evaluator = services.NewStatisticsService(arith)
		ports.Samples = services.SampleData
	default:
		return nil, fmt.Errorf("%w: unknown agent %q", domain.ErrInvalidInput, kind)
	}
	ports.Chain = services.NewChainService(ports.Evaluator, client, registry, services.ChainConfig{
		Identity:          identity,
		Timeout:           settings.ChainTimeout,
		MaxHops:           settings.MaxHops,
		LegacyUnitAliases: settings.LegacyUnitAliases,
	})

	handler, err := httpadapter.NewHandler(httpadapter.Config{
		Identity:  identity,
		RateLimit: settings.RateLimit,
		RateBurst: settings.RateBurst,
	}, ports)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	return &agent{
		kind:     kind,
		identity: identity,
		server:   httpadapter.NewServer(settings.Host, settings.Port(kind), handler),
	}, nil
}
