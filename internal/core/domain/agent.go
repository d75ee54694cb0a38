package domain

import (
	"fmt"
	"strings"
)

// AgentKind identifies one of the three services.
type AgentKind string

// Available agent kinds.
const (
	// AgentCalculator serves arithmetic operations.
	AgentCalculator AgentKind = "calculator"

	// AgentUnitConverter serves unit conversions.
	AgentUnitConverter AgentKind = "unit"

	// AgentStatistics serves descriptive statistics.
	AgentStatistics AgentKind = "statistics"
)

// AllAgentKinds returns every agent kind in start order.
func AllAgentKinds() []AgentKind {
	return []AgentKind{AgentCalculator, AgentUnitConverter, AgentStatistics}
}

// ParseAgentKind accepts the canonical kind or one of its long names.
func ParseAgentKind(s string) (AgentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "calculator", "calc", "calculator_agent":
		return AgentCalculator, nil
	case "unit", "unit_converter", "converter", "unit_converter_agent":
		return AgentUnitConverter, nil
	case "statistics", "stats", "statistics_agent":
		return AgentStatistics, nil
	default:
		return "", fmt.Errorf("%w: unknown agent %q", ErrInvalidInput, s)
	}
}

// IsValid returns true if the agent kind is recognised.
func (k AgentKind) IsValid() bool {
	switch k {
	case AgentCalculator, AgentUnitConverter, AgentStatistics:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k AgentKind) String() string {
	return string(k)
}

// AgentID returns the identifier the agent reports in replies and traces.
func (k AgentKind) AgentID() string {
	switch k {
	case AgentCalculator:
		return "calculator_agent"
	case AgentUnitConverter:
		return "unit_converter_agent"
	case AgentStatistics:
		return "statistics_agent"
	default:
		return "unknown_agent"
	}
}

// DefaultPort returns the port the agent listens on when nothing is configured.
func (k AgentKind) DefaultPort() int {
	switch k {
	case AgentCalculator:
		return 5001
	case AgentUnitConverter:
		return 5002
	case AgentStatistics:
		return 5003
	default:
		return 0
	}
}

// DirectPath returns the agent's non-chaining endpoint.
func (k AgentKind) DirectPath() string {
	switch k {
	case AgentCalculator:
		return "/calculate"
	case AgentUnitConverter:
		return "/convert"
	case AgentStatistics:
		return "/stats"
	default:
		return ""
	}
}

// Description returns a human-readable name.
func (k AgentKind) Description() string {
	switch k {
	case AgentCalculator:
		return "Calculator"
	case AgentUnitConverter:
		return "Unit Converter"
	case AgentStatistics:
		return "Statistics"
	default:
		return unknownDescription
	}
}

const unknownDescription = "Unknown"

// EnvPrefix returns the prefix of the agent's HOST, PORT and URL variables.
func (k AgentKind) EnvPrefix() string {
	switch k {
	case AgentCalculator:
		return "CALCULATOR"
	case AgentUnitConverter:
		return "UNIT_CONVERTER"
	case AgentStatistics:
		return "STATISTICS"
	default:
		return ""
	}
}

// SettingsKey returns the agent's name in config keys such as agents.<name>.port.
func (k AgentKind) SettingsKey() string {
	if k == AgentUnitConverter {
		return "unit_converter"
	}
	return string(k)
}

// Identity is a hop identity as it appears in a trace.
type Identity struct {
	AgentID string
	Host    string
	Port    int
}

// String formats the identity as id@host:port.
func (i Identity) String() string {
	return fmt.Sprintf("%s@%s:%d", i.AgentID, i.Host, i.Port)
}

// URL returns the base URL the identity is reachable at.
func (i Identity) URL() string {
	return fmt.Sprintf("http://%s:%d", i.Host, i.Port)
}
