package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/cloudbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/interfaces/cli/bootstrap"
)

type subscriptionView struct {
	ID                 uint       `json:"id"`
	UserID             uint       `json:"user_id"`
	PlanID             uint       `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	NextBillingAt      time.Time  `json:"next_billing_at"`
	CancelEffectiveAt  *time.Time `json:"cancel_effective_at,omitempty"`
}

func toSubscriptionView(s *subscription.Subscription) subscriptionView {
	return subscriptionView{
		ID:                 s.ID(),
		UserID:             s.UserID(),
		PlanID:             s.PlanID(),
		Status:             s.Status().String(),
		CurrentPeriodStart: s.CurrentPeriodStart(),
		CurrentPeriodEnd:   s.CurrentPeriodEnd(),
		NextBillingAt:      s.NextBillingAt(),
		CancelEffectiveAt:  s.CancelEffectiveAt(),
	}
}

func newSubscriptionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage subscriptions",
	}

	cmd.AddCommand(
		newSubscriptionCreateCommand(),
		newSubscriptionCancelCommand(),
		newSubscriptionResumeCommand(),
		newSubscriptionControlCommand(),
		newSubscriptionInfoCommand(),
	)
	return cmd
}

func newSubscriptionCreateCommand() *cobra.Command {
	var (
		userID, planID uint
		config         string
		autoBackorder  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a subscription and provision its server",
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, err := parseJSONObject(config, "config")
			if err != nil {
				return err
			}
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				result, err := c.CreateSubscription.Execute(ctx, usecases.CreateSubscriptionCommand{
					UserID:          userID,
					PlanID:          planID,
					RequestedConfig: requested,
					AutoBackorder:   autoBackorder,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"subscription": toSubscriptionView(result.Subscription),
					"item_id":      result.Item.ID(),
					"hostname":     result.Item.Hostname(),
				})
			})
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "User ID (required)")
	cmd.Flags().UintVar(&planID, "plan", 0, "Plan ID (required)")
	cmd.Flags().StringVar(&config, "config", "", "Requested server config as a JSON object")
	cmd.Flags().BoolVar(&autoBackorder, "auto-backorder", false, "Park the request as a backorder when capacity is missing")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

// ownedFlags binds the subscription and user flags shared by most commands.
func ownedFlags(cmd *cobra.Command, subscriptionID, userID *uint) {
	cmd.Flags().UintVar(subscriptionID, "subscription", 0, "Subscription ID (required)")
	cmd.Flags().UintVar(userID, "user", 0, "Owning user ID (required)")
	_ = cmd.MarkFlagRequired("subscription")
	_ = cmd.MarkFlagRequired("user")
}

func newSubscriptionCancelCommand() *cobra.Command {
	var subscriptionID, userID uint

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Schedule cancellation according to the plan's policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				sub, err := c.CancelSubscription.Execute(ctx, usecases.CancelSubscriptionCommand{
					SubscriptionID: subscriptionID,
					UserID:         userID,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), toSubscriptionView(sub))
			})
		},
	}

	ownedFlags(cmd, &subscriptionID, &userID)
	return cmd
}

func newSubscriptionResumeCommand() *cobra.Command {
	var subscriptionID, userID uint

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Withdraw a pending cancellation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				sub, err := c.ResumeSubscription.Execute(ctx, usecases.ResumeSubscriptionCommand{
					SubscriptionID: subscriptionID,
					UserID:         userID,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), toSubscriptionView(sub))
			})
		},
	}

	ownedFlags(cmd, &subscriptionID, &userID)
	return cmd
}

func newSubscriptionControlCommand() *cobra.Command {
	var subscriptionID, userID uint

	cmd := &cobra.Command{
		Use:       "control start|stop|restart",
		Short:     "Power the subscription's servers on, off or reboot them",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"start", "stop", "restart"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				n, err := c.ControlServer.Execute(ctx, usecases.ControlServerCommand{
					SubscriptionID: subscriptionID,
					UserID:         userID,
					Action:         args[0],
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s submitted for %d server(s)\n", args[0], n)
				return nil
			})
		},
	}

	ownedFlags(cmd, &subscriptionID, &userID)
	return cmd
}

func newSubscriptionInfoCommand() *cobra.Command {
	var subscriptionID, userID uint

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show provider details of the subscription's servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(ctx context.Context, c *bootstrap.Container) error {
				servers, err := c.GetServerInfo.Execute(ctx, usecases.GetServerInfoQuery{
					SubscriptionID: subscriptionID,
					UserID:         userID,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), servers)
			})
		},
	}

	ownedFlags(cmd, &subscriptionID, &userID)
	return cmd
}
