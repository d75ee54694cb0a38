package domain

import (
	"fmt"
	"time"
)

// LogFormat selects the log encoder.
type LogFormat string

// Available log formats.
const (
	// LogFormatConsole writes human-readable lines.
	LogFormatConsole LogFormat = "console"

	// LogFormatJSON writes one JSON object per line.
	LogFormatJSON LogFormat = "json"
)

// IsValid returns true if the log format is recognised.
func (f LogFormat) IsValid() bool {
	return f == LogFormatConsole || f == LogFormatJSON
}

// LogSettings configures the logger backend.
type LogSettings struct {
	Level      string
	Format     LogFormat
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// ServiceSettings is the resolved runtime configuration of calcmesh.
type ServiceSettings struct {
	// Host is the address servers bind to.
	Host string

	// AdvertiseHost is the host reported in identities and health replies.
	AdvertiseHost string

	CalculatorPort int
	UnitPort       int
	StatisticsPort int

	Peers      PeerURLs
	WatchPeers bool

	ChainTimeout      time.Duration
	MaxHops           int
	LegacyUnitAliases bool
	RouteTimeout      time.Duration

	// RateLimit is requests per second per server; 0 disables limiting.
	RateLimit float64
	RateBurst int

	DelegateArithmetic bool

	Log LogSettings
}

// Default values.
const (
	DefaultHost         = "0.0.0.0"
	DefaultChainTimeout = 10 * time.Second
	DefaultRouteTimeout = 15 * time.Second
	DefaultMaxHops      = 16
	DefaultRateBurst    = 10
	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
	DefaultLogBackups   = 3
	DefaultPeerHost     = "localhost"
)

// DefaultServiceSettings returns the settings used when nothing is configured.
func DefaultServiceSettings() ServiceSettings {
	s := ServiceSettings{
		Host:              DefaultHost,
		CalculatorPort:    AgentCalculator.DefaultPort(),
		UnitPort:          AgentUnitConverter.DefaultPort(),
		StatisticsPort:    AgentStatistics.DefaultPort(),
		ChainTimeout:      DefaultChainTimeout,
		MaxHops:           DefaultMaxHops,
		LegacyUnitAliases: true,
		RouteTimeout:      DefaultRouteTimeout,
		RateBurst:         DefaultRateBurst,
		Log: LogSettings{
			Level:      DefaultLogLevel,
			Format:     LogFormatConsole,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogBackups,
		},
	}
	s.Peers = PeerURLs{
		CalculatorURL: fmt.Sprintf("http://%s:%d", DefaultPeerHost, s.CalculatorPort),
		UnitURL:       fmt.Sprintf("http://%s:%d", DefaultPeerHost, s.UnitPort),
		StatisticsURL: fmt.Sprintf("http://%s:%d", DefaultPeerHost, s.StatisticsPort),
	}
	return s
}

// Port returns the listening port of the given agent.
func (s ServiceSettings) Port(kind AgentKind) int {
	switch kind {
	case AgentCalculator:
		return s.CalculatorPort
	case AgentUnitConverter:
		return s.UnitPort
	case AgentStatistics:
		return s.StatisticsPort
	default:
		return 0
	}
}

// Identity returns the hop identity of the given agent.
func (s ServiceSettings) Identity(kind AgentKind) Identity {
	return Identity{AgentID: kind.AgentID(), Host: s.AdvertiseHost, Port: s.Port(kind)}
}

// Validate checks the settings are usable.
func (s ServiceSettings) Validate() error {
	for _, kind := range AllAgentKinds() {
		if p := s.Port(kind); p <= 0 || p > 65535 {
			return fmt.Errorf("%w: %s port %d out of range", ErrInvalidInput, kind, p)
		}
	}
	if s.MaxHops <= 0 {
		return fmt.Errorf("%w: chain.max_hops must be positive", ErrInvalidInput)
	}
	if s.ChainTimeout <= 0 || s.RouteTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidInput)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: http.rate_limit must not be negative", ErrInvalidInput)
	}
	if !s.Log.Format.IsValid() {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidInput, s.Log.Format)
	}
	return s.Peers.Validate()
}
