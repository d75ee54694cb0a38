package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/services"
)

var (
	healthWait     time.Duration
	healthInterval time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the /health endpoint of every service",
	Long: `Probe the configured calculator, unit converter and statistics URLs.

With --wait, probing repeats until every service is healthy or the wait
elapses, which is handy right after "calcmesh serve".`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().DurationVar(&healthWait, "wait", 0, "keep probing until healthy or this long has passed")
	healthCmd.Flags().DurationVar(&healthInterval, "interval", time.Second, "minimum delay between probe rounds")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	checker := services.NewHealthService(newPeerClient(), 0)
	results, err := pollHealth(cmd.Context(), checker, settings.Peers, healthWait, healthInterval)
	printHealth(cmd, results)
	return err
}

// pollHealth probes urls, repeating at most once per interval until all are
// healthy or wait elapses. A zero wait probes once.
func pollHealth(
	ctx context.Context,
	checker *services.HealthService,
	urls domain.PeerURLs,
	wait, interval time.Duration,
) (map[string]domain.PeerHealth, error) {
	if interval <= 0 {
		interval = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	var cancel context.CancelFunc = func() {}
	if wait > 0 {
		ctx, cancel = context.WithTimeout(ctx, wait)
	}
	defer cancel()

	for {
		results := checker.Check(ctx, urls)
		if services.AllHealthy(results) {
			return results, nil
		}
		if wait <= 0 {
			return results, unhealthyError(results)
		}
		if err := limiter.Wait(ctx); err != nil {
			return results, unhealthyError(results)
		}
	}
}

func unhealthyError(results map[string]domain.PeerHealth) error {
	down := 0
	for _, h := range results {
		if !h.OK {
			down++
		}
	}
	return fmt.Errorf("%d of %d services unhealthy", down, len(results))
}

func printHealth(cmd *cobra.Command, results map[string]domain.PeerHealth) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h := results[k]
		status := "ok"
		if !h.OK {
			status = "DOWN"
			if h.Error != "" {
				status += " (" + h.Error + ")"
			} else if h.StatusCode != 0 {
				status += fmt.Sprintf(" (HTTP %d)", h.StatusCode)
			}
		}
		cmd.Printf("  %-15s %-30s %s\n", k, h.URL, status)
	}
}
