// Package bootstrap loads configuration and wires repositories, providers
// and use cases for the CLI commands.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/orris-inc/cloudbilling/internal/infrastructure/config"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/database"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

// Options are the flags every command shares.
type Options struct {
	Env        string
	ConfigPath string
}

// ResolveEnv applies the ENV variable over the flag value.
func (o *Options) ResolveEnv() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		o.Env = envVar
	}
	return o.Env
}

// Init loads configuration, then initializes logging, the business timezone
// and the database pool. Callers must defer database.Close.
func Init(opts *Options) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(opts.ResolveEnv(), opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, log, nil
}
