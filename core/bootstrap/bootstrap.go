// Package bootstrap assembles a bot process from configuration: logging,
// optional database with migrations, the handler registry, and the sequence
// engine. Binaries call Init once at startup and Close on the way out.
package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/botforge/core/config"
	"github.com/m3rciful/botforge/core/database"
	"github.com/m3rciful/botforge/core/logger"
	"github.com/m3rciful/botforge/core/sequence"
	"github.com/m3rciful/botforge/core/telegram/registry"
	"log/slog"
)

// Options selects which subsystems Init brings up.
type Options struct {
	Config *coreconfig.Config
	// Database enables Postgres; nil runs the bot without one.
	Database *database.Config
	// Migrate applies pending migrations before connecting.
	Migrate bool
	// OnComplete fires when a sequence session finishes.
	OnComplete sequence.CompleteFunc
}

// App holds the assembled subsystems.
type App struct {
	Config    *coreconfig.Config
	DB        *sqlx.DB
	Registry  *registry.Registry
	Registrar *registry.Registrar
	Sequences *sequence.Binder
}

// Init brings the subsystems up in dependency order. On error everything
// already started is torn down.
func Init(opts Options) (*App, error) {
	cfg := opts.Config
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{Config: cfg}

	if opts.Database != nil {
		if opts.Migrate {
			if err := database.RunMigrations(*opts.Database); err != nil {
				return nil, err
			}
		}
		db, err := database.Connect(*opts.Database)
		if err != nil {
			return nil, err
		}
		app.DB = db
	}

	var regOpts []registry.Option
	if cfg.Handlers.AllowReplace {
		regOpts = append(regOpts, registry.WithReplace())
	}
	app.Registry = registry.New(regOpts...)
	app.Registrar = registry.NewRegistrar(app.Registry)

	binder, err := buildSequences(cfg, app.DB, opts.OnComplete)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sequences = binder

	return app, nil
}

// buildSequences assembles the sequence engine from config: the session
// store backend and any definitions file.
func buildSequences(cfg *coreconfig.Config, db *sqlx.DB, onComplete sequence.CompleteFunc) (*sequence.Binder, error) {
	provider := sequence.NewProvider()
	if path := cfg.Sequence.DefinitionsFile; path != "" {
		n, err := provider.LoadFile(path)
		if err != nil {
			return nil, err
		}
		logger.SEQ.Info("definitions loaded",
			slog.String("event", "definitions.load"),
			slog.Int("count", n),
			slog.String("path", path),
		)
	}

	var store sequence.Store
	switch cfg.Sequence.Store {
	case coreconfig.SequenceStorePostgres:
		if db == nil {
			return nil, fmt.Errorf("sequence.store is postgres but no database is configured")
		}
		store = sequence.NewPostgresStore(db)
	default:
		store = sequence.NewMemoryStore()
	}

	return sequence.NewBinder(sequence.NewService(provider, store, onComplete)), nil
}

// Close releases resources in reverse order.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.DB.Warn("db close failed",
				slog.String("event", "db.close"),
				slog.String("err", err.Error()),
			)
		}
		a.DB = nil
	}
	_ = logger.Shutdown()
}
