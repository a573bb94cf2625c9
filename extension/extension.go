// Package extension provides the Forge extension adapter for subledger.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with DI registration and lifecycle
// management. The engine and, unless routes are disabled, its HTTP
// handler are provided in the container.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subledger" or
// "subledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/api"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Subscription marketplace on deterministically addressed records"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts subledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *subledger.Ledger
	handler    *api.Handler
	store      store.Store
	ledgerOpts []subledger.Option
}

// New creates a new subledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine. It is nil until Register is called.
func (e *Extension) Engine() *subledger.Ledger { return e.engine }

// Handler returns the HTTP handler, or nil when routes are disabled.
func (e *Extension) Handler() *api.Handler { return e.handler }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = subledger.New(e.store, e.buildLedgerOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*subledger.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.config.DisableRoutes {
		return nil
	}
	e.handler = api.New(e.engine, api.WithAirdrop(e.config.EnableAirdrop))
	return vessel.Provide(fapp.Container(), func() (*api.Handler, error) {
		return e.handler, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("subledger: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("subledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs subledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []subledger.Option {
	opts := make([]subledger.Option, 0, len(e.ledgerOpts)+2)
	opts = append(opts,
		subledger.WithRent(e.config.Rent),
		subledger.WithHookTimeout(e.config.HookTimeout),
	)
	// Pass-through options come last so they win.
	return append(opts, e.ledgerOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("subledger: configuration is required but not found in config files; " +
				"ensure 'extensions.subledger' or 'subledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("subledger: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("enable_airdrop", e.config.EnableAirdrop),
		forge.F("hook_timeout", e.config.HookTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.subledger", "subledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("subledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("subledger: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.Rent.LamportsPerByteYear == 0 {
		cfg.Rent.LamportsPerByteYear = defaults.Rent.LamportsPerByteYear
	}
	if cfg.Rent.ExemptionThreshold == 0 {
		cfg.Rent.ExemptionThreshold = defaults.Rent.ExemptionThreshold
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic bool flags and values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableAirdrop {
		yamlConfig.EnableAirdrop = true
	}
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if yamlConfig.Rent == (Config{}).Rent {
		yamlConfig.Rent = programmaticConfig.Rent
	}
	return mergeWithDefaults(yamlConfig)
}
