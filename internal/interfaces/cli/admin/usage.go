package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	billingusecases "github.com/orris-inc/cloudbilling/internal/application/billing/usecases"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
)

func newUsageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Record usage and open positions",
	}
	cmd.AddCommand(newUsageRecordCommand(), newOpenPositionCommand())
	return cmd
}

func newUsageRecordCommand() *cobra.Command {
	var (
		subscriptionID uint
		payload        string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store a usage report for the next invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseJSONObject(payload, "payload")
			if err != nil {
				return err
			}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				if err := c.RecordUsage.Execute(ctx, billingusecases.RecordUsageCommand{
					SubscriptionID: subscriptionID,
					Payload:        data,
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "usage recorded for subscription %d\n", subscriptionID)
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&subscriptionID, "subscription", 0, "Subscription ID (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "Usage report as a JSON object (required)")
	_ = cmd.MarkFlagRequired("subscription")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

func newOpenPositionCommand() *cobra.Command {
	var (
		subscriptionID uint
		description    string
		billUntil      string
	)

	cmd := &cobra.Command{
		Use:   "open-position",
		Short: "Defer billing of a subscription to the account's billing day",
		RunE: func(cmd *cobra.Command, args []string) error {
			until, err := time.Parse(time.RFC3339, billUntil)
			if err != nil {
				return fmt.Errorf("invalid --until, want RFC3339: %w", err)
			}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				pos, err := c.RecordOpenPosition.Execute(ctx, billingusecases.RecordOpenPositionCommand{
					SubscriptionID: subscriptionID,
					Description:    description,
					BillUntil:      until,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "open position %d recorded\n", pos.ID())
				return nil
			})
		},
	}

	cmd.Flags().UintVar(&subscriptionID, "subscription", 0, "Subscription ID (required)")
	cmd.Flags().StringVar(&description, "description", "", "Line item description (required)")
	cmd.Flags().StringVar(&billUntil, "until", "", "Bill up to this RFC3339 time (required)")
	_ = cmd.MarkFlagRequired("subscription")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("until")
	return cmd
}
