package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceSettings(t *testing.T) {
	s := DefaultServiceSettings()

	assert.Equal(t, "0.0.0.0", s.Host)
	assert.Equal(t, 5001, s.Port(AgentCalculator))
	assert.Equal(t, 5002, s.Port(AgentUnitConverter))
	assert.Equal(t, 5003, s.Port(AgentStatistics))
	assert.Equal(t, 10*time.Second, s.ChainTimeout)
	assert.Equal(t, 15*time.Second, s.RouteTimeout)
	assert.Equal(t, 16, s.MaxHops)
	assert.True(t, s.LegacyUnitAliases)
	assert.False(t, s.DelegateArithmetic)
	assert.Equal(t, "http://localhost:5002", s.Peers.UnitURL)
	require.NoError(t, s.Validate())
}

func TestServiceSettings_Identity(t *testing.T) {
	s := DefaultServiceSettings()
	s.AdvertiseHost = "192.168.1.20"

	assert.Equal(t, "statistics_agent@192.168.1.20:5003", s.Identity(AgentStatistics).String())
	assert.Equal(t, 0, s.Port(AgentKind("x")))
}

func TestServiceSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServiceSettings)
	}{
		{"port out of range", func(s *ServiceSettings) { s.UnitPort = 70000 }},
		{"zero hops", func(s *ServiceSettings) { s.MaxHops = 0 }},
		{"zero timeout", func(s *ServiceSettings) { s.ChainTimeout = 0 }},
		{"negative rate", func(s *ServiceSettings) { s.RateLimit = -1 }},
		{"bad log format", func(s *ServiceSettings) { s.Log.Format = "xml" }},
		{"bad peer url", func(s *ServiceSettings) { s.Peers.StatisticsURL = "ftp://stats" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultServiceSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestLogFormat_IsValid(t *testing.T) {
	assert.True(t, LogFormatConsole.IsValid())
	assert.True(t, LogFormatJSON.IsValid())
	assert.False(t, LogFormat("").IsValid())
}
