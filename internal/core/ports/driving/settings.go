package driving

import "github.com/custodia-labs/calcmesh/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the environment.
	Get() (domain.ServiceSettings, error)

	// Set validates and persists one setting given in dot notation.
	Set(key, value string) error

	// Values returns every known key with its effective value.
	Values() (map[string]string, error)

	// Path returns the configuration file path.
	Path() string
}
