package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// Ensure PeerRegistry implements the interface.
var _ driving.PeerRegistry = (*PeerRegistry)(nil)

// PeerRegistry holds the peer URLs shared by the orchestrator and the
// HTTP adapter. Updates replace the whole value under one lock.
type PeerRegistry struct {
	mu   sync.RWMutex
	urls domain.PeerURLs
}

// NewPeerRegistry creates a registry seeded with initial.
func NewPeerRegistry(initial domain.PeerURLs) (*PeerRegistry, error) {
	urls := domain.PeerURLs{}.Merge(initial)
	if err := urls.Validate(); err != nil {
		return nil, fmt.Errorf("peer registry: %w", err)
	}
	return &PeerRegistry{urls: urls}, nil
}

// Snapshot returns a copy of the current URLs.
func (r *PeerRegistry) Snapshot() domain.PeerURLs {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.urls
}

// Update merges the non-empty values of partial and swaps them in.
func (r *PeerRegistry) Update(partial domain.PeerURLs) (domain.PeerURLs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.urls.Merge(partial)
	if err := next.Validate(); err != nil {
		return r.urls, err
	}
	r.urls = next
	return next, nil
}

// PeerReloader re-reads peer URLs from settings whenever the config file changes.
type PeerReloader struct {
	registry driving.PeerRegistry
	settings driving.SettingsService
	watcher  driven.ConfigWatcher
}

// NewPeerReloader creates a reloader.
func NewPeerReloader(registry driving.PeerRegistry, settings driving.SettingsService, watcher driven.ConfigWatcher) *PeerReloader {
	return &PeerReloader{registry: registry, settings: settings, watcher: watcher}
}

// Run applies config changes until ctx is done.
func (r *PeerReloader) Run(ctx context.Context) error {
	return r.watcher.Watch(ctx, r.Reload)
}

// Reload applies the peer URLs currently in settings.
func (r *PeerReloader) Reload() {
	s, err := r.settings.Get()
	if err != nil {
		logger.Warn("peer reload: read settings: %v", err)
		return
	}
	urls, err := r.registry.Update(s.Peers)
	if err != nil {
		logger.Warn("peer reload: %v", err)
		return
	}
	logger.Info("peers reloaded: calculator=%s unit=%s statistics=%s",
		urls.CalculatorURL, urls.UnitURL, urls.StatisticsURL)
}
