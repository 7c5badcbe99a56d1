// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"

	"github.com/taskprobe/taskprobe/internal/domain"
	"github.com/taskprobe/taskprobe/internal/infra/config"
	"github.com/taskprobe/taskprobe/internal/infra/logging"
)

// Container holds process-wide dependencies: configuration and the
// diagnostic logger. Target-bound state lives in a Session.
type Container struct {
	Config *domain.Config
	Logger *logging.Logger
}

// New creates a Container for the given working directory.
func New(workDir string) (*Container, error) {
	cfg, err := config.NewLoader(workDir).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logger, err := logging.New(logPath, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	return &Container{
		Config: cfg,
		Logger: logger,
	}, nil
}

// Close releases container resources.
func (c *Container) Close() error {
	return c.Logger.Close()
}
