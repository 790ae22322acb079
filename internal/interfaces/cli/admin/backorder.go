package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
)

func newBackorderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backorder",
		Short: "Manage parked subscription requests",
	}
	cmd.AddCommand(newBackorderRetryCommand(), newBackorderCancelCommand())
	return cmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid backorder ID %q", arg)
	}
	return uint(id), nil
}

func newBackorderRetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Re-check capacity and provision a backorder now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backorderID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				result, err := c.RetryBackorder.Execute(ctx, backorderID)
				if err != nil {
					return err
				}
				if result == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "backorder %d still waiting for capacity\n", backorderID)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"backorder_id": backorderID,
					"subscription": toSubscriptionView(result.Subscription),
				})
			})
		},
	}
}

func newBackorderCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an open backorder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backorderID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				bo, err := c.CancelBackorder.Execute(ctx, backorderID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backorder %d is %s\n", bo.ID(), bo.Status())
				return nil
			})
		},
	}
}
