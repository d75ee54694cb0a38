package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/calcmesh/internal/adapters/driving/mcp"
	"github.com/custodia-labs/calcmesh/internal/core/services"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Expose the calculator, unit converter and statistics operations as MCP
tools. The operations run in-process; no service needs to be listening.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead, for example with MCP Inspector.

Examples:
  calcmesh mcp serve
  calcmesh mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "calcmesh": {
        "command": "/path/to/calcmesh",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newMCPPorts wires in-process services behind the MCP tools.
func newMCPPorts() (*mcp.Ports, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	registry, err := services.NewPeerRegistry(settings.Peers)
	if err != nil {
		return nil, fmt.Errorf("peer registry: %w", err)
	}

	arith := services.NewArithmeticService()
	conv := services.NewConversionService(nil, settings.LegacyUnitAliases)
	return &mcp.Ports{
		Calculator: arith,
		Converter:  conv,
		Statistics: services.NewStatisticsService(arith),
		Units:      conv,
		Peers:      registry,
	}, nil
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports, err := newMCPPorts()
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
