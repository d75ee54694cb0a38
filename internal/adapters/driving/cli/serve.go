package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/calcmesh/internal/adapters/driven/config/file"
	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/services"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve [calculator|unit|statistics|all]",
	Short: "Run one service, or all three",
	Long: `Start the HTTP server of the calculator, unit converter or statistics
service. With "all" (the default) the three run in one process and share
a peer registry.

Peers are located through peers.* in the config file, overridden by
CALCULATOR_URL, UNIT_CONVERTER_URL and STATISTICS_URL (or their _HOST and
_PORT parts). The process stops gracefully on SIGINT or SIGTERM.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"calculator", "unit", "statistics", "all"},
	RunE:      runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (overrides server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listening port of a single service")
	rootCmd.AddCommand(serveCmd)
}

// serveKinds resolves the serve argument.
func serveKinds(args []string) ([]domain.AgentKind, error) {
	if len(args) == 0 || args[0] == "all" {
		return domain.AllAgentKinds(), nil
	}
	kind, err := domain.ParseAgentKind(args[0])
	if err != nil {
		return nil, err
	}
	return []domain.AgentKind{kind}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	kinds, err := serveKinds(args)
	if err != nil {
		return err
	}
	if servePort != 0 && len(kinds) > 1 {
		return errors.New("--port needs a single service")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if serveHost != "" {
		settings.Host = serveHost
	}
	if servePort != 0 {
		switch kinds[0] {
		case domain.AgentCalculator:
			settings.CalculatorPort = servePort
		case domain.AgentUnitConverter:
			settings.UnitPort = servePort
		case domain.AgentStatistics:
			settings.StatisticsPort = servePort
		}
	}

	registry, err := services.NewPeerRegistry(settings.Peers)
	if err != nil {
		return fmt.Errorf("peer registry: %w", err)
	}
	client := newPeerClient()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agents := make([]*agent, 0, len(kinds))
	defer func() {
		for _, a := range agents {
			if err := a.server.Stop(); err != nil {
				logger.Warn("%s shutdown: %v", a.identity.AgentID, err)
			}
		}
		_ = logger.Sync()
	}()
	for _, kind := range kinds {
		a, err := newAgent(kind, settings, registry, client)
		if err != nil {
			return err
		}
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		agents = append(agents, a)
		logger.Info("%s listening on %s (identity %s)", a.identity.AgentID, a.server.Addr(), a.identity)
		cmd.Printf("%s service running on %s\n", kind.Description(), a.server.Addr())
	}
	logger.Info("peers: calculator=%s unit=%s statistics=%s",
		settings.Peers.CalculatorURL, settings.Peers.UnitURL, settings.Peers.StatisticsURL)

	if settings.WatchPeers {
		if _, ok := configStore.(*file.ConfigStore); ok {
			reloader := services.NewPeerReloader(registry, settingsService, file.NewWatcher(configStore, file.DefaultDebounce))
			go func() {
				if err := reloader.Run(ctx); err != nil {
					logger.Warn("peer watcher stopped: %v", err)
				}
			}()
		} else {
			logger.Warn("peers.watch is set but no config file is in use")
		}
	}

	return waitForShutdown(ctx, agents)
}

// waitForShutdown blocks until ctx is done or a server fails.
func waitForShutdown(ctx context.Context, agents []*agent) error {
	errs := make(chan error, len(agents))
	for _, a := range agents {
		go func(a *agent) {
			select {
			case err := <-a.server.Err():
				errs <- fmt.Errorf("%s: %w", a.identity.AgentID, err)
			case <-ctx.Done():
			}
		}(a)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errs:
		return err
	}
}
