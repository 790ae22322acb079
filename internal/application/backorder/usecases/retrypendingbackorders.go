package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/cloudbilling/internal/domain/backorder"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// RetryPendingBackordersUseCase retries every open backorder, oldest first.
type RetryPendingBackordersUseCase struct {
	backorderRepo backorder.Repository
	retrier       BackorderRetrier
	batchSize     int
	logger        logger.Interface
}

func NewRetryPendingBackordersUseCase(
	backorderRepo backorder.Repository,
	retrier BackorderRetrier,
	batchSize int,
	logger logger.Interface,
) *RetryPendingBackordersUseCase {
	return &RetryPendingBackordersUseCase{
		backorderRepo: backorderRepo,
		retrier:       retrier,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// Execute returns the number of backorders fulfilled.
func (uc *RetryPendingBackordersUseCase) Execute(ctx context.Context) (int, error) {
	cursor := query.First(uc.batchSize)
	fulfilled := 0

	for {
		if err := ctx.Err(); err != nil {
			return fulfilled, err
		}

		open, err := uc.backorderRepo.ListOpen(ctx, cursor)
		if err != nil {
			return fulfilled, fmt.Errorf("failed to list open backorders: %w", err)
		}
		if len(open) == 0 {
			return fulfilled, nil
		}

		for _, bo := range open {
			err := recovery.Run(uc.logger, "backorder-retry", func() error {
				result, err := uc.retrier.Execute(ctx, bo.ID())
				if err != nil {
					return err
				}
				if result != nil {
					fulfilled++
				}
				return nil
			})
			if err != nil {
				uc.logger.Errorw("failed to retry backorder",
					"backorder_id", bo.ID(),
					"error", err,
				)
			}
		}

		if len(open) < cursor.Size() {
			return fulfilled, nil
		}
		cursor = cursor.NextID(open[len(open)-1].ID())
	}
}
