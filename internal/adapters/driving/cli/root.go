// Package cli provides the cobra command tree of calcmesh.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/calcmesh/internal/adapters/driven/config/file"
	"github.com/custodia-labs/calcmesh/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
	"github.com/custodia-labs/calcmesh/internal/core/services"
	"github.com/custodia-labs/calcmesh/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
	noConfig  bool
	envFile   string
)

// configStore and settingsService are resolved before any command runs.
var (
	configStore     driven.ConfigStore
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "calcmesh",
	Short: "Cooperating calculator, unit converter and statistics services",
	Long: `calcmesh runs three small HTTP services that compute locally and
forward their results to each other along a chain described in the request.

Run "calcmesh serve all" to start every service in one process, then use
"calcmesh calc" or "calcmesh pipeline" to talk to them.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.calcmesh)")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false, "ignore the config file; use defaults and environment only")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the environment and configuration shared by every command.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if noConfig {
		configStore = memory.NewConfigStore()
	} else {
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		configStore = store
	}
	settingsService = services.NewSettingsService(configStore, nil)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Setup(settings.Log); err != nil {
		return err
	}
	logger.Debug("config: %s", settingsService.Path())
	return nil
}
