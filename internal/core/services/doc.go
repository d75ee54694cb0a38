// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services reach the network only through driven ports; the HTTP,
// CLI and MCP adapters call into them.
package services
