// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ConfigStore: Application configuration
//   - PeerClient: Outbound HTTP to the other services
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ArithmeticBackend: Remote linear math for unit conversion. Without it, conversion computes locally.
//   - ConfigWatcher: Change notifications for the config file. Without it, peers are only set at startup and via PUT /config/agents.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
