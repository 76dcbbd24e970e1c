package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/topotools/topoplan/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath points at a single .hcl file or a directory of them.
	ConfigPath string
	// PlanOnly prints each planned graph as JSON instead of executing it.
	PlanOnly bool
	// Workers bounds the executor pool; values <= 0 select one per CPU.
	Workers int
	// OpsPort serves /health and /metrics when > 0. Zero disables the
	// server.
	OpsPort int

	LogFormat string
	LogLevel  string
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	model  *config.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the merged
// configuration model. A configuration that cannot be loaded is a startup
// error, so nothing is planned or executed from a bad config.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	model, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "runs", len(model.Runs))

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		model:  model,
	}, nil
}

// Model returns the loaded configuration model. This is primarily for
// testing.
func (a *App) Model() *config.Model {
	return a.model
}
