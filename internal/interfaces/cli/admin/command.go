// Package admin exposes operator commands for subscriptions, billing
// accounts, usage and backorders.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/cloudbilling/internal/infrastructure/database"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands",
		Long:  `Create and manage subscriptions, billing accounts, usage reports and backorders.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newSubscriptionCommand(),
		newAccountCommand(),
		newUsageCommand(),
		newBackorderCommand(),
	)

	return cmd
}

// withContainer runs fn against a fully wired container.
func withContainer(fn func(ctx context.Context, c *bootstrap.Container) error) error {
	cfg, log, err := bootstrap.Init(&opts)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := bootstrap.NewContainer(ctx, cfg, database.Get(), log)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseJSONObject(raw, flag string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return out, nil
}
