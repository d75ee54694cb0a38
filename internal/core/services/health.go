package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthChecker = (*HealthService)(nil)

// DefaultHealthTimeout bounds each health probe.
const DefaultHealthTimeout = 5 * time.Second

// HealthService probes peers' /health endpoints concurrently.
type HealthService struct {
	client  driven.PeerClient
	timeout time.Duration
}

// NewHealthService creates a health checker.
func NewHealthService(client driven.PeerClient, timeout time.Duration) *HealthService {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return &HealthService{client: client, timeout: timeout}
}

// Check probes every non-empty URL in urls.
func (s *HealthService) Check(ctx context.Context, urls domain.PeerURLs) map[string]domain.PeerHealth {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]domain.PeerHealth, 3)
	)
	for _, kind := range domain.AllAgentKinds() {
		base := urls.URLFor(kind)
		if base == "" {
			continue
		}
		wg.Add(1)
		go func(key, base string) {
			defer wg.Done()
			h := s.probe(ctx, base)
			mu.Lock()
			out[key] = h
			mu.Unlock()
		}(kind.ConfigKey(), base)
	}
	wg.Wait()
	return out
}

func (s *HealthService) probe(ctx context.Context, base string) domain.PeerHealth {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	h := domain.PeerHealth{URL: base}
	status, err := s.client.Ping(ctx, base+"/health")
	h.StatusCode = status
	if err != nil {
		h.Error = err.Error()
		return h
	}
	h.OK = status == http.StatusOK
	return h
}

// AllHealthy reports whether every probe succeeded.
func AllHealthy(results map[string]domain.PeerHealth) bool {
	for _, h := range results {
		if !h.OK {
			return false
		}
	}
	return len(results) > 0
}
