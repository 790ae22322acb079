// Package worker runs the periodic billing drivers.
package worker

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/cloudbilling/internal/infrastructure/database"
	"github.com/orris-inc/cloudbilling/internal/infrastructure/migration"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

var (
	opts        bootstrap.Options
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the billing drivers",
		Long:  `Run billing, expiration, backorder retry, invoice sync, open position and renewal reminder drivers until interrupted.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations before starting")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(&opts)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("starting billing worker", "environment", opts.Env, "timezone", cfg.Server.Timezone)

	if autoMigrate {
		if opts.Env == constants.EnvProduction {
			log.Warnw("auto-migrate enabled in production")
		}
		manager := migration.NewManager(opts.Env)
		if err := manager.Migrate(database.Get()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Infow("database migrated", "strategy", manager.GetStrategy().GetName())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := bootstrap.NewContainer(ctx, cfg, database.Get(), log)
	if err != nil {
		return err
	}
	defer container.Close()

	sched, err := container.NewScheduler(cfg.Scheduler, log)
	if err != nil {
		return err
	}
	sched.Start()

	<-ctx.Done()
	log.Infow("shutdown signal received")

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	log.Infow("billing worker exited gracefully")
	return nil
}
