package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// PeerURLs holds the base URLs of the three services.
type PeerURLs struct {
	CalculatorURL string `json:"calculator_url"`
	UnitURL       string `json:"unit_url"`
	StatisticsURL string `json:"statistics_url"`
}

// Merge returns p with every non-empty field of other applied.
// Trailing slashes are trimmed from the merged values.
func (p PeerURLs) Merge(other PeerURLs) PeerURLs {
	merge := func(dst *string, src string) {
		if src = strings.TrimRight(strings.TrimSpace(src), "/"); src != "" {
			*dst = src
		}
	}
	merge(&p.CalculatorURL, other.CalculatorURL)
	merge(&p.UnitURL, other.UnitURL)
	merge(&p.StatisticsURL, other.StatisticsURL)
	return p
}

// Validate checks every set URL is an absolute http(s) URL.
func (p PeerURLs) Validate() error {
	for _, kind := range AllAgentKinds() {
		raw := p.URLFor(kind)
		if raw == "" {
			continue
		}
		if err := ValidateBaseURL(raw); err != nil {
			return fmt.Errorf("%s: %w", kind.ConfigKey(), err)
		}
	}
	return nil
}

// ValidateBaseURL checks raw is an absolute http(s) URL with a host.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidInput, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidInput, raw)
	}
	return nil
}

// URLFor returns the base URL of the given agent.
func (p PeerURLs) URLFor(kind AgentKind) string {
	switch kind {
	case AgentCalculator:
		return p.CalculatorURL
	case AgentUnitConverter:
		return p.UnitURL
	case AgentStatistics:
		return p.StatisticsURL
	default:
		return ""
	}
}

// ForTarget resolves a route target name to its base URL.
// Only the canonical kind names are accepted.
func (p PeerURLs) ForTarget(target string) (string, error) {
	kind := AgentKind(target)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	base := p.URLFor(kind)
	if base == "" {
		return "", fmt.Errorf("%w: no URL configured for %q", ErrInvalidTarget, target)
	}
	return base, nil
}

// Map returns the URLs keyed by their config names.
func (p PeerURLs) Map() map[string]string {
	return map[string]string{
		AgentCalculator.ConfigKey():    p.CalculatorURL,
		AgentUnitConverter.ConfigKey(): p.UnitURL,
		AgentStatistics.ConfigKey():    p.StatisticsURL,
	}
}

// ConfigKey returns the registry key for the agent's URL.
func (k AgentKind) ConfigKey() string {
	switch k {
	case AgentCalculator:
		return "calculator_url"
	case AgentUnitConverter:
		return "unit_url"
	case AgentStatistics:
		return "statistics_url"
	default:
		return ""
	}
}

// PeerHealth is the outcome of one health probe.
type PeerHealth struct {
	URL        string `json:"url"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}
