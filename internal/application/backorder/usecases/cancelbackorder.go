package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	apperrors "github.com/orris-inc/cloudbilling/internal/shared/errors"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

type CancelBackorderUseCase struct {
	backorderRepo backorder.Repository
	now           func() time.Time
	logger        logger.Interface
}

func NewCancelBackorderUseCase(backorderRepo backorder.Repository, logger logger.Interface) *CancelBackorderUseCase {
	return &CancelBackorderUseCase{
		backorderRepo: backorderRepo,
		now:           biztime.NowUTC,
		logger:        logger,
	}
}

func (uc *CancelBackorderUseCase) Execute(ctx context.Context, backorderID uint) (*backorder.Backorder, error) {
	bo, err := uc.backorderRepo.GetByID(ctx, backorderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backorder: %w", err)
	}
	if bo == nil {
		return nil, apperrors.NewNotFoundError("Backorder not found").WithCause(backorder.ErrBackorderNotFound)
	}

	previous := bo.Status()
	bo.Cancel(uc.now())
	if err := uc.backorderRepo.Update(ctx, bo); err != nil {
		return nil, fmt.Errorf("failed to update backorder: %w", err)
	}

	uc.logger.Infow("backorder cancelled", "backorder_id", bo.ID(), "previous_status", previous)
	return bo, nil
}
