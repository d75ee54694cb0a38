package services

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/calcmesh/internal/core/domain"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driven"
	"github.com/custodia-labs/calcmesh/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyServerHost         = "server.host"
	keyCalculatorPort     = "agents.calculator.port"
	keyUnitPort           = "agents.unit_converter.port"
	keyStatisticsPort     = "agents.statistics.port"
	keyAdvertiseHost      = "server.advertise_host"
	keyPeerCalculatorURL  = "peers.calculator_url"
	keyPeerUnitURL        = "peers.unit_url"
	keyPeerStatisticsURL  = "peers.statistics_url"
	keyPeersWatch         = "peers.watch"
	keyChainTimeout       = "chain.timeout"
	keyChainMaxHops       = "chain.max_hops"
	keyLegacyUnitAliases  = "chain.legacy_unit_aliases"
	keyRouteTimeout       = "route.timeout"
	keyRateLimit          = "http.rate_limit"
	keyRateBurst          = "http.rate_burst"
	keyDelegateArithmetic = "unit_converter.delegate_arithmetic"
	keyLogLevel           = "log.level"
	keyLogFormat          = "log.format"
	keyLogFile            = "log.file"
	keyLogMaxSize         = "log.max_size_mb"
	keyLogMaxBackups      = "log.max_backups"
)

func portKey(kind domain.AgentKind) string {
	return "agents." + kind.SettingsKey() + ".port"
}

func peerKey(kind domain.AgentKind) string {
	return "peers." + kind.ConfigKey()
}

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindURL
)

// knownSettings lists every key `config set` accepts.
var knownSettings = map[string]settingKind{
	keyServerHost:         kindString,
	keyAdvertiseHost:      kindString,
	keyCalculatorPort:     kindInt,
	keyUnitPort:           kindInt,
	keyStatisticsPort:     kindInt,
	keyPeerCalculatorURL:  kindURL,
	keyPeerUnitURL:        kindURL,
	keyPeerStatisticsURL:  kindURL,
	keyPeersWatch:         kindBool,
	keyChainTimeout:       kindDuration,
	keyChainMaxHops:       kindInt,
	keyLegacyUnitAliases:  kindBool,
	keyRouteTimeout:       kindDuration,
	keyRateLimit:          kindFloat,
	keyRateBurst:          kindInt,
	keyDelegateArithmetic: kindBool,
	keyLogLevel:           kindString,
	keyLogFormat:          kindString,
	keyLogFile:            kindString,
	keyLogMaxSize:         kindInt,
	keyLogMaxBackups:      kindInt,
}

// SettingsService resolves settings from defaults, then the config file,
// then the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
	detectHost  func() string
}

// NewSettingsService creates a new settings service.
// A nil lookupEnv reads the process environment.
func NewSettingsService(configStore driven.ConfigStore, lookupEnv func(string) (string, bool)) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
		detectHost:  DetectLocalIP,
	}
}

// Get resolves the effective settings.
func (s *SettingsService) Get() (domain.ServiceSettings, error) {
	settings := domain.DefaultServiceSettings()

	settings.Host = s.getString(keyServerHost, settings.Host)
	settings.AdvertiseHost = s.getString(keyAdvertiseHost, settings.AdvertiseHost)
	settings.CalculatorPort = s.getInt(portKey(domain.AgentCalculator), settings.CalculatorPort)
	settings.UnitPort = s.getInt(portKey(domain.AgentUnitConverter), settings.UnitPort)
	settings.StatisticsPort = s.getInt(portKey(domain.AgentStatistics), settings.StatisticsPort)
	settings.WatchPeers = s.getBool(keyPeersWatch, settings.WatchPeers)
	settings.MaxHops = s.getInt(keyChainMaxHops, settings.MaxHops)
	settings.LegacyUnitAliases = s.getBool(keyLegacyUnitAliases, settings.LegacyUnitAliases)
	settings.RateLimit = s.getFloat(keyRateLimit, settings.RateLimit)
	settings.RateBurst = s.getInt(keyRateBurst, settings.RateBurst)
	settings.DelegateArithmetic = s.getBool(keyDelegateArithmetic, settings.DelegateArithmetic)
	settings.Log = domain.LogSettings{
		Level:      s.getString(keyLogLevel, settings.Log.Level),
		Format:     domain.LogFormat(s.getString(keyLogFormat, string(settings.Log.Format))),
		File:       s.getString(keyLogFile, settings.Log.File),
		MaxSizeMB:  s.getInt(keyLogMaxSize, settings.Log.MaxSizeMB),
		MaxBackups: s.getInt(keyLogMaxBackups, settings.Log.MaxBackups),
	}

	var err error
	if settings.ChainTimeout, err = s.getDuration(keyChainTimeout, settings.ChainTimeout); err != nil {
		return settings, err
	}
	if settings.RouteTimeout, err = s.getDuration(keyRouteTimeout, settings.RouteTimeout); err != nil {
		return settings, err
	}

	if err := s.applyEnv(&settings); err != nil {
		return settings, err
	}

	if settings.AdvertiseHost == "" {
		settings.AdvertiseHost = s.detectHost()
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// applyEnv layers the per-agent environment variables over the file values.
// <PREFIX>_PORT sets the listening port, <PREFIX>_HOST and <PREFIX>_PORT
// build the peer URL, and <PREFIX>_URL replaces it outright.
func (s *SettingsService) applyEnv(settings *domain.ServiceSettings) error {
	var peers domain.PeerURLs
	for _, kind := range domain.AllAgentKinds() {
		prefix := kind.EnvPrefix()
		port := settings.Port(kind)
		if raw, ok := s.lookupEnv(prefix + "_PORT"); ok && raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: %s_PORT=%q is not a port", domain.ErrInvalidInput, prefix, raw)
			}
			port = p
			setPort(settings, kind, p)
		}

		peer := s.configStore.GetString(peerKey(kind))
		if peer == "" {
			peer = fmt.Sprintf("http://%s:%d", domain.DefaultPeerHost, port)
		}
		host, hostSet := s.lookupEnv(prefix + "_HOST")
		_, portSet := s.lookupEnv(prefix + "_PORT")
		if (hostSet && host != "") || portSet {
			if host == "" {
				host = domain.DefaultPeerHost
			}
			peer = fmt.Sprintf("http://%s:%d", host, port)
		}
		if u, ok := s.lookupEnv(prefix + "_URL"); ok && u != "" {
			peer = u
		}
		setPeer(&peers, kind, peer)
	}
	settings.Peers = settings.Peers.Merge(peers)
	return nil
}

func setPort(settings *domain.ServiceSettings, kind domain.AgentKind, port int) {
	switch kind {
	case domain.AgentCalculator:
		settings.CalculatorPort = port
	case domain.AgentUnitConverter:
		settings.UnitPort = port
	case domain.AgentStatistics:
		settings.StatisticsPort = port
	}
}

func setPeer(peers *domain.PeerURLs, kind domain.AgentKind, url string) {
	switch kind {
	case domain.AgentCalculator:
		peers.CalculatorURL = url
	case domain.AgentUnitConverter:
		peers.UnitURL = url
	case domain.AgentStatistics:
		peers.StatisticsURL = url
	}
}

// Set validates value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownSettings[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	typed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if key == keyLogFormat && !domain.LogFormat(value).IsValid() {
		return fmt.Errorf("%w: log.format must be console or json", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, value)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidInput, value)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %q is not a positive duration", domain.ErrInvalidInput, value)
		}
		return d.String(), nil
	case kindURL:
		trimmed := strings.TrimRight(value, "/")
		if err := domain.ValidateBaseURL(trimmed); err != nil {
			return nil, err
		}
		return trimmed, nil
	default:
		return value, nil
	}
}

// Values returns every known key with its effective value.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		keyServerHost:         settings.Host,
		keyAdvertiseHost:      settings.AdvertiseHost,
		keyPeersWatch:         strconv.FormatBool(settings.WatchPeers),
		keyChainTimeout:       settings.ChainTimeout.String(),
		keyChainMaxHops:       strconv.Itoa(settings.MaxHops),
		keyLegacyUnitAliases:  strconv.FormatBool(settings.LegacyUnitAliases),
		keyRouteTimeout:       settings.RouteTimeout.String(),
		keyRateLimit:          strconv.FormatFloat(settings.RateLimit, 'g', -1, 64),
		keyRateBurst:          strconv.Itoa(settings.RateBurst),
		keyDelegateArithmetic: strconv.FormatBool(settings.DelegateArithmetic),
		keyLogLevel:           settings.Log.Level,
		keyLogFormat:          string(settings.Log.Format),
		keyLogFile:            settings.Log.File,
		keyLogMaxSize:         strconv.Itoa(settings.Log.MaxSizeMB),
		keyLogMaxBackups:      strconv.Itoa(settings.Log.MaxBackups),
	}
	for _, kind := range domain.AllAgentKinds() {
		out[portKey(kind)] = strconv.Itoa(settings.Port(kind))
		out[peerKey(kind)] = settings.Peers.URLFor(kind)
	}
	return out, nil
}

// SettingKeys returns every key `config set` accepts, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(knownSettings))
	for k := range knownSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// DetectLocalIP returns the address of the interface used for outbound
// traffic, or 127.0.0.1. No packet is sent.
func DetectLocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal, fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidInput, key, raw, err)
	}
	return d, nil
}
