package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	billingusecases "github.com/orris-inc/cloudbilling/internal/application/billing/usecases"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage billing accounts",
	}
	cmd.AddCommand(newAccountSaveCommand())
	return cmd
}

func newAccountSaveCommand() *cobra.Command {
	var (
		userID      uint
		email, name string
		signedUp    string
		billingDay  int
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a user's billing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			signedUpAt, err := time.Parse(time.DateOnly, signedUp)
			if err != nil {
				return fmt.Errorf("invalid --signed-up, want YYYY-MM-DD: %w", err)
			}
			var override *int
			if cmd.Flags().Changed("billing-day") {
				override = &billingDay
			}

			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				account, err := c.SaveBillingAccount.Execute(ctx, billingusecases.SaveBillingAccountCommand{
					UserID:             userID,
					Email:              email,
					Name:               name,
					SignedUpAt:         signedUpAt,
					BillingDayOverride: override,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"user_id":               account.UserID(),
					"email":                 account.Email(),
					"effective_billing_day": account.EffectiveBillingDay(),
					"external_client_id":    account.ExternalClientID(),
				})
			})
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "User ID (required)")
	cmd.Flags().StringVar(&email, "email", "", "Billing email (required)")
	cmd.Flags().StringVar(&name, "name", "", "Customer name")
	cmd.Flags().StringVar(&signedUp, "signed-up", "", "Signup date YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&billingDay, "billing-day", 0, "Override the day of month open positions are invoiced")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("signed-up")
	return cmd
}
