package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/customer"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/validation"
)

type SaveBillingAccountCommand struct {
	UserID             uint      `json:"user_id" validate:"required"`
	Email              string    `json:"email" validate:"required,email"`
	Name               string    `json:"name" validate:"max=255"`
	SignedUpAt         time.Time `json:"signed_up_at" validate:"required"`
	BillingDayOverride *int      `json:"billing_day_override" validate:"omitempty,min=1,max=31"`
}

// SaveBillingAccountUseCase creates or updates the billing profile of a user.
type SaveBillingAccountUseCase struct {
	accountRepo customer.Repository
	logger      logger.Interface
}

func NewSaveBillingAccountUseCase(accountRepo customer.Repository, logger logger.Interface) *SaveBillingAccountUseCase {
	return &SaveBillingAccountUseCase{accountRepo: accountRepo, logger: logger}
}

func (uc *SaveBillingAccountUseCase) Execute(ctx context.Context, cmd SaveBillingAccountCommand) (*customer.Account, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	existing, err := uc.accountRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing account: %w", err)
	}

	var account *customer.Account
	if existing == nil {
		account, err = customer.NewAccount(cmd.UserID, cmd.Email, cmd.Name, cmd.SignedUpAt, cmd.BillingDayOverride, now)
	} else {
		// signup time and invoicing client are kept from the stored account
		account = customer.ReconstructAccount(cmd.UserID, cmd.Email, cmd.Name, existing.SignedUpAt(),
			existing.BillingDayOverride(), existing.ExternalClientID(), existing.CreatedAt(), now)
		err = account.SetBillingDayOverride(cmd.BillingDayOverride, now)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save billing account: %w", err)
	}

	uc.logger.Infow("billing account saved",
		"user_id", account.UserID(),
		"effective_billing_day", account.EffectiveBillingDay(),
	)
	return account, nil
}
