package extension

import (
	"time"

	"github.com/xraph/subledger/rent"
)

// Config holds the subledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.subledger" or "subledger" keys).
type Config struct {
	// DisableRoutes prevents the HTTP handler from being provided.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for subledger routes (default: "/subledger").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// EnableAirdrop exposes the development funding route.
	EnableAirdrop bool `json:"enable_airdrop" mapstructure:"enable_airdrop" yaml:"enable_airdrop"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// Rent overrides the rent parameters. Zero fields take the defaults.
	Rent rent.Calculator `json:"rent" mapstructure:"rent" yaml:"rent"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/subledger",
		HookTimeout: 5 * time.Second,
		Rent:        rent.Default(),
	}
}
