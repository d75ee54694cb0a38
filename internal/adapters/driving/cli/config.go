package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/calcmesh/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage calcmesh settings",
	Long: `View and change the settings stored in the config file.

Environment variables such as CALCULATOR_URL take precedence over the file,
so "config show" prints the effective value of each key.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one setting",
	Long: `Validate and persist one setting in dot notation, for example:

  calcmesh config set peers.unit_url http://10.0.0.4:5002
  calcmesh config set chain.timeout 5s`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return services.SettingKeys(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	section := ""
	for _, key := range services.SettingKeys() {
		prefix, _, _ := strings.Cut(key, ".")
		if prefix != section {
			section = prefix
			cmd.Printf("\n[%s]\n", section)
		}
		value := values[key]
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %-28s %s\n", key, value)
	}
	cmd.Println()
	cmd.Printf("Config file: %s\n", settingsService.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s set to %s\n", key, value)
	return nil
}
