package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/calcmesh/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/calcmesh/internal/core/domain"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	service := NewSettingsService(store, envMap(env))
	service.detectHost = func() string { return "10.1.2.3" }
	return service
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultServiceSettings()
	assert.Equal(t, defaults.Host, settings.Host)
	assert.Equal(t, 5001, settings.CalculatorPort)
	assert.Equal(t, 5002, settings.UnitPort)
	assert.Equal(t, 5003, settings.StatisticsPort)
	assert.Equal(t, defaults.Peers, settings.Peers)
	assert.Equal(t, defaults.ChainTimeout, settings.ChainTimeout)
	assert.Equal(t, defaults.MaxHops, settings.MaxHops)
	assert.True(t, settings.LegacyUnitAliases)
	assert.Equal(t, "10.1.2.3", settings.AdvertiseHost)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("server.host", "127.0.0.1")
	_ = store.Set("server.advertise_host", "calc.internal")
	_ = store.Set("agents.statistics.port", 6003)
	_ = store.Set("chain.timeout", "3s")
	_ = store.Set("chain.max_hops", 4)
	_ = store.Set("chain.legacy_unit_aliases", false)
	_ = store.Set("http.rate_limit", 2.5)
	_ = store.Set("log.format", "json")

	settings, err := newTestSettings(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", settings.Host)
	assert.Equal(t, "calc.internal", settings.AdvertiseHost)
	assert.Equal(t, 6003, settings.StatisticsPort)
	assert.Equal(t, 3*time.Second, settings.ChainTimeout)
	assert.Equal(t, 4, settings.MaxHops)
	assert.False(t, settings.LegacyUnitAliases)
	assert.Equal(t, 2.5, settings.RateLimit)
	assert.Equal(t, domain.LogFormatJSON, settings.Log.Format)

	// The peer URL follows the configured port
	assert.Equal(t, "http://localhost:6003", settings.Peers.StatisticsURL)
}

func TestSettingsService_Get_FilePeerOverridesPort(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("agents.unit_converter.port", 7002)
	_ = store.Set("peers.unit_url", "http://units.example:9000/")

	settings, err := newTestSettings(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, 7002, settings.UnitPort)
	assert.Equal(t, "http://units.example:9000", settings.Peers.UnitURL)
}

func TestSettingsService_Get_EnvironmentPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantPort int
		wantPeer string
	}{
		{
			name:     "port sets listener and peer",
			env:      map[string]string{"UNIT_CONVERTER_PORT": "8002"},
			wantPort: 8002,
			wantPeer: "http://localhost:8002",
		},
		{
			name:     "host builds peer with default port",
			env:      map[string]string{"UNIT_CONVERTER_HOST": "units"},
			wantPort: 5002,
			wantPeer: "http://units:5002",
		},
		{
			name:     "url overrides host and port",
			env:      map[string]string{"UNIT_CONVERTER_HOST": "units", "UNIT_CONVERTER_PORT": "8002", "UNIT_CONVERTER_URL": "https://units.example"},
			wantPort: 8002,
			wantPeer: "https://units.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set("peers.unit_url", "http://from-file:1")

			settings, err := newTestSettings(store, tt.env).Get()
			require.NoError(t, err)

			assert.Equal(t, tt.wantPort, settings.UnitPort)
			assert.Equal(t, tt.wantPeer, settings.Peers.UnitURL)
			// Other agents are untouched
			assert.Equal(t, "http://localhost:5001", settings.Peers.CalculatorURL)
		})
	}
}

func TestSettingsService_Get_InvalidValues(t *testing.T) {
	t.Run("bad env port", func(t *testing.T) {
		_, err := newTestSettings(memory.NewConfigStore(), map[string]string{"CALCULATOR_PORT": "abc"}).Get()
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad duration", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("chain.timeout", "soon")
		_, err := newTestSettings(store, nil).Get()
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad peer url", func(t *testing.T) {
		_, err := newTestSettings(memory.NewConfigStore(), map[string]string{"STATISTICS_URL": "ftp://x"}).Get()
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	require.NoError(t, service.Set("chain.max_hops", "8"))
	require.NoError(t, service.Set("chain.timeout", "1500ms"))
	require.NoError(t, service.Set("peers.watch", "true"))
	require.NoError(t, service.Set("http.rate_limit", "0.5"))
	require.NoError(t, service.Set("peers.calculator_url", "http://calc:5001/"))

	assert.Equal(t, 8, store.GetInt("chain.max_hops"))
	assert.Equal(t, "1.5s", store.GetString("chain.timeout"))
	assert.True(t, store.GetBool("peers.watch"))
	assert.Equal(t, 0.5, store.GetFloat("http.rate_limit"))
	assert.Equal(t, "http://calc:5001", store.GetString("peers.calculator_url"))
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	tests := []struct {
		key   string
		value string
	}{
		{"no.such.key", "1"},
		{"chain.max_hops", "many"},
		{"chain.timeout", "-1s"},
		{"peers.watch", "maybe"},
		{"peers.unit_url", "units:5002"},
		{"log.format", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.ErrorIs(t, service.Set(tt.key, tt.value), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Values(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("agents.calculator.port", 6001)
	service := newTestSettings(store, nil)

	values, err := service.Values()
	require.NoError(t, err)

	assert.Equal(t, "6001", values["agents.calculator.port"])
	assert.Equal(t, "http://localhost:6001", values["peers.calculator_url"])
	assert.Equal(t, "10s", values["chain.timeout"])
	assert.Equal(t, "10.1.2.3", values["server.advertise_host"])

	// Every settable key is reported
	for _, key := range SettingKeys() {
		assert.Contains(t, values, key)
	}
}

func TestSettingsService_Path(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	assert.Equal(t, ":memory:", service.Path())
}

func TestDetectLocalIP(t *testing.T) {
	assert.NotEmpty(t, DetectLocalIP())
}
