package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/domain/subscription"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// SendRenewalRemindersUseCase emails owners of ACTIVE subscriptions whose next
// billing time falls within the reminder window. Each subscription period is
// reminded at most once.
type SendRenewalRemindersUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	accountRepo      customer.Repository
	reminders        ReminderStore
	notifier         provider.EmailNotifier
	renderer         MarkdownRenderer
	window           time.Duration
	batchSize        int
	printer          *message.Printer
	now              func() time.Time
	logger           logger.Interface
}

func NewSendRenewalRemindersUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	accountRepo customer.Repository,
	reminders ReminderStore,
	notifier provider.EmailNotifier,
	renderer MarkdownRenderer,
	window time.Duration,
	batchSize int,
	logger logger.Interface,
) *SendRenewalRemindersUseCase {
	return &SendRenewalRemindersUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		accountRepo:      accountRepo,
		reminders:        reminders,
		notifier:         notifier,
		renderer:         renderer,
		window:           window,
		batchSize:        batchSize,
		printer:          message.NewPrinter(language.English),
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

// Execute returns the number of reminders sent.
func (uc *SendRenewalRemindersUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	until := now.Add(uc.window)
	cursor := query.First(uc.batchSize)
	sent := 0

	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		subs, err := uc.subscriptionRepo.ListRenewingBetween(ctx, now, until, cursor)
		if err != nil {
			return sent, fmt.Errorf("failed to list renewing subscriptions: %w", err)
		}
		if len(subs) == 0 {
			return sent, nil
		}

		for _, sub := range subs {
			var delivered bool
			err := recovery.Run(uc.logger, "renewal-reminder", func() error {
				var err error
				delivered, err = uc.remindOne(ctx, sub)
				return err
			})
			if err != nil {
				uc.logger.Errorw("failed to send renewal reminder",
					"subscription_id", sub.ID(),
					"error", err,
				)
				continue
			}
			if delivered {
				sent++
			}
		}

		if len(subs) < cursor.Size() {
			return sent, nil
		}
		last := subs[len(subs)-1]
		cursor = cursor.Next(last.NextBillingAt(), last.ID())
	}
}

func (uc *SendRenewalRemindersUseCase) remindOne(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	renewsAt := sub.NextBillingAt()

	already, err := uc.reminders.WasSent(ctx, sub.ID(), renewsAt)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder state: %w", err)
	}
	if already {
		return false, nil
	}

	account, err := uc.accountRepo.GetByUserID(ctx, sub.UserID())
	if err != nil {
		return false, fmt.Errorf("failed to get billing account: %w", err)
	}
	if account == nil || account.Email() == "" {
		uc.logger.Debugw("no email on file, reminder skipped",
			"subscription_id", sub.ID(),
			"user_id", sub.UserID(),
		)
		return false, nil
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return false, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return false, subscription.ErrPlanNotFound
	}

	msg, err := uc.compose(account, sub, plan)
	if err != nil {
		return false, err
	}

	delivered, err := uc.notifier.Send(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("failed to send email: %w", err)
	}
	if !delivered {
		uc.logger.Debugw("email notifier disabled, reminder not sent", "subscription_id", sub.ID())
		return false, nil
	}

	if err := uc.reminders.MarkSent(ctx, sub.ID(), renewsAt); err != nil {
		uc.logger.Warnw("reminder sent but not recorded",
			"subscription_id", sub.ID(),
			"error", err,
		)
	}

	uc.logger.Infow("renewal reminder sent",
		"subscription_id", sub.ID(),
		"user_id", sub.UserID(),
		"renews_at", renewsAt,
	)
	return true, nil
}

func (uc *SendRenewalRemindersUseCase) compose(account *customer.Account, sub *subscription.Subscription, plan *subscription.Plan) (provider.EmailMessage, error) {
	price := uc.formatPrice(plan)
	renewsOn := sub.NextBillingAt().Format("2 January 2006 15:04 MST")

	name := account.Name()
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "your **%s** subscription (#%d) renews on **%s**.\n\n", plan.Name(), sub.ID(), renewsOn)
	b.WriteString("| Plan | Billing cycle | Price |\n")
	b.WriteString("|:---|:---|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n", plan.Name(), describeInterval(plan), price)
	b.WriteString("Usage recorded during the period is billed on top of the base price.\n")
	b.WriteString("To stop the renewal, cancel the subscription before the date above.\n")
	text := b.String()

	html, err := uc.renderer.ToHTMLSanitized(text)
	if err != nil {
		return provider.EmailMessage{}, fmt.Errorf("failed to render reminder: %w", err)
	}

	return provider.EmailMessage{
		To:       account.Email(),
		Subject:  fmt.Sprintf("Your %s subscription renews soon", plan.Name()),
		TextBody: text,
		HTMLBody: html,
	}, nil
}

func (uc *SendRenewalRemindersUseCase) formatPrice(plan *subscription.Plan) string {
	amount := plan.FullPeriodPrice()
	unit, err := currency.ParseISO(plan.Currency())
	if err != nil {
		return strings.TrimSpace(amount.StringFixed(2) + " " + plan.Currency())
	}
	return uc.printer.Sprint(currency.Symbol(unit.Amount(amount.InexactFloat64())))
}

func describeInterval(plan *subscription.Plan) string {
	interval := plan.Interval()
	if interval.Value == 1 {
		return "every " + interval.Type.String()
	}
	return fmt.Sprintf("every %d %ss", interval.Value, interval.Type)
}
