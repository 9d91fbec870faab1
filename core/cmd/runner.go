// Package cmd is the shared entrypoint scaffolding for bot binaries: flag
// parsing, config loading, bootstrap, builtin registration, and the signal
// driven run loop.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/botforge/core/bootstrap"
	coreconfig "github.com/m3rciful/botforge/core/config"
	"github.com/m3rciful/botforge/core/database"
	"github.com/m3rciful/botforge/core/telegram"
	"github.com/m3rciful/botforge/core/telegram/commands"
)

// AppConfig is the root YAML document of a bot binary: the core sections
// plus the optional database block.
type AppConfig struct {
	coreconfig.Config `yaml:",inline"`
	Database          *database.Config `yaml:"database"`
}

// LoadAppConfig reads the config file, applies environment overrides, and
// validates the result.
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RunParams customizes a bot binary built on the shared runner.
type RunParams struct {
	// BotName is shown in /start.
	BotName string
	// DefaultSurvey names the sequence /survey starts without arguments.
	DefaultSurvey string
	// Setup registers the binary's own handlers after the builtins.
	Setup func(app *bootstrap.App) error
}

// Run is the full bot lifecycle. It exits the process on startup failure
// and returns after a clean shutdown.
func Run(params RunParams) {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrate := flag.Bool("migrate", true, "apply database migrations on startup")
	flag.Parse()

	cfg, err := LoadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	app, err := bootstrap.Init(bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Migrate:  *migrate,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap:", err)
		os.Exit(1)
	}
	defer app.Close()

	err = commands.RegisterBuiltins(commands.Deps{
		Registrar:     app.Registrar,
		BotName:       params.BotName,
		Sequences:     app.Sequences,
		DefaultSurvey: params.DefaultSurvey,
	})
	if err == nil && params.Setup != nil {
		err = params.Setup(app)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "register handlers:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := telegram.Run(ctx, telegram.RunOptions{
		Config:    &cfg.Config,
		Registry:  app.Registry,
		Sequences: app.Sequences,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}
}
