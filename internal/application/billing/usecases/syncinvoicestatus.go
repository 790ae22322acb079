package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/domain/invoice"
	"github.com/orris-inc/cloudbilling/internal/shared/biztime"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
	"github.com/orris-inc/cloudbilling/internal/shared/query"
	"github.com/orris-inc/cloudbilling/internal/shared/recovery"
)

// SyncInvoiceStatusUseCase refreshes every invoice reference from the
// invoicing provider and writes back only the fields that changed.
type SyncInvoiceStatusUseCase struct {
	refRepo   invoice.RefRepository
	invoicing provider.InvoicingProvider
	batchSize int
	now       func() time.Time
	logger    logger.Interface
}

func NewSyncInvoiceStatusUseCase(
	refRepo invoice.RefRepository,
	invoicing provider.InvoicingProvider,
	batchSize int,
	logger logger.Interface,
) *SyncInvoiceStatusUseCase {
	return &SyncInvoiceStatusUseCase{
		refRepo:   refRepo,
		invoicing: invoicing,
		batchSize: batchSize,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

// Execute returns the number of invoice references that changed.
func (uc *SyncInvoiceStatusUseCase) Execute(ctx context.Context) (int, error) {
	cursor := query.First(uc.batchSize)
	updated := 0

	for {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		refs, err := uc.refRepo.ListAfterID(ctx, cursor)
		if err != nil {
			return updated, fmt.Errorf("failed to list invoice references: %w", err)
		}
		if len(refs) == 0 {
			return updated, nil
		}

		for _, ref := range refs {
			var changed bool
			err := recovery.Run(uc.logger, "invoice-status-sync", func() error {
				var err error
				changed, err = uc.syncOne(ctx, ref)
				return err
			})
			if err != nil {
				uc.logger.Errorw("failed to sync invoice status",
					"invoice_ref_id", ref.ID(),
					"external_invoice_id", ref.ExternalInvoiceID(),
					"error", err,
				)
				continue
			}
			if changed {
				updated++
			}
		}

		cursor = cursor.NextID(refs[len(refs)-1].ID())
		if len(refs) < cursor.Size() {
			return updated, nil
		}
	}
}

func (uc *SyncInvoiceStatusUseCase) syncOne(ctx context.Context, ref *invoice.Ref) (bool, error) {
	details, err := uc.invoicing.GetInvoiceDetails(ctx, ref.ExternalInvoiceID())
	if err != nil {
		return false, fmt.Errorf("failed to get invoice details: %w", err)
	}

	changes := ref.ApplyDetails(invoice.Details{
		Status:        details.Status,
		Number:        details.Number,
		Balance:       details.Balance,
		ClientLinkURL: details.ClientLinkURL,
	}, uc.now())
	if changes.IsEmpty() {
		return false, nil
	}

	if err := uc.refRepo.UpdateChanges(ctx, ref.ID(), changes); err != nil {
		return false, fmt.Errorf("failed to update invoice reference: %w", err)
	}

	uc.logger.Infow("invoice status synced",
		"invoice_ref_id", ref.ID(),
		"status", ref.Status(),
		"balance", ref.Balance().String(),
	)
	return true, nil
}
