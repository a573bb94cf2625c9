package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/subledger"
	audithook "github.com/xraph/subledger/audit_hook"
	"github.com/xraph/subledger/eventbus"
	"github.com/xraph/subledger/internal/config"
	"github.com/xraph/subledger/observability"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/cache"
	"github.com/xraph/subledger/store/memory"
	"github.com/xraph/subledger/store/mongo"
	"github.com/xraph/subledger/store/postgres"
	"github.com/xraph/subledger/store/sqlite"
)

// app is a started engine with everything it owns.
type app struct {
	ledger   *subledger.Ledger
	registry *prometheus.Registry
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	if a.ledger != nil {
		errs = append(errs, a.ledger.Stop())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DSN)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openApp builds and starts the engine described by cfg.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	a.closers = append(a.closers, s.Close)

	if cfg.Cache.Enabled {
		client, err := cache.Connect(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		s = cache.New(s, client, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
	}

	opts := []subledger.Option{
		subledger.WithLogger(logger),
		subledger.WithRent(cfg.Rent),
		subledger.WithPlugin(audithook.New(logRecorder(logger), audithook.WithLogger(logger))),
		subledger.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(a.registry))),
	}

	if cfg.Events.Enabled {
		pub, err := eventbus.NewRabbitMQPublisher(cfg.Events.URL, cfg.Events.Exchange, logger)
		if err != nil {
			return nil, err
		}
		guarded := eventbus.NewBreakerPublisher(pub, cfg.Events.Breaker, logger)
		opts = append(opts, subledger.WithPlugin(eventbus.NewPlugin(guarded)))
	}

	a.ledger = subledger.New(s, opts...)
	if err := a.ledger.Start(ctx); err != nil {
		a.ledger = nil
		return nil, err
	}
	return a, nil
}

// logRecorder writes audit events to the process log.
func logRecorder(logger *slog.Logger) audithook.Recorder {
	audit := logger.WithGroup("audit")
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		level := slog.LevelInfo
		if evt.Outcome == audithook.OutcomeFailure {
			level = slog.LevelWarn
		}
		audit.Log(ctx, level, evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"actor", evt.Actor,
			"outcome", evt.Outcome,
			"metadata", evt.Metadata,
		)
		return nil
	})
}

func (o *options) withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx, o.cfg, o.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
