// Package invoicing issues invoices through Stripe.
package invoicing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/invoiceitem"

	"github.com/orris-inc/cloudbilling/internal/application/provider"
	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

const defaultDaysUntilDue = 14

// Stripe amounts are integers in the currency's smallest unit. These
// currencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// three-decimal currencies must still be sent rounded to a multiple of ten
var threeDecimalCurrencies = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

// StripeProvider implements provider.InvoicingProvider with send_invoice
// collection: the customer pays through the hosted invoice page.
type StripeProvider struct {
	daysUntilDue int64
	logger       logger.Interface
}

var _ provider.InvoicingProvider = (*StripeProvider)(nil)

func NewStripeProvider(secretKey string, daysUntilDue int64, logger logger.Interface) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if daysUntilDue <= 0 {
		daysUntilDue = defaultDaysUntilDue
	}
	stripe.Key = secretKey
	return &StripeProvider{daysUntilDue: daysUntilDue, logger: logger}, nil
}

func (p *StripeProvider) SyncCustomerProfile(ctx context.Context, profile provider.CustomerProfile) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(profile.Email),
		Name:  stripe.String(profile.Name),
		Metadata: map[string]string{
			"user_id": strconv.FormatUint(uint64(profile.UserID), 10),
		},
	}
	params.Context = ctx

	if profile.ExternalClientID != "" {
		c, err := customer.Update(profile.ExternalClientID, params)
		if err != nil {
			return "", fmt.Errorf("stripe: failed to update customer %s: %w", profile.ExternalClientID, err)
		}
		return c.ID, nil
	}

	c, err := customer.New(params)
	if err != nil {
		p.logger.Errorw("failed to create stripe customer", "user_id", profile.UserID, "error", err)
		return "", fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	p.logger.Infow("created stripe customer", "user_id", profile.UserID, "customer_id", c.ID)
	return c.ID, nil
}

// CreateInvoice creates a draft invoice, attaches the line items and
// finalizes it so it gets a number and a hosted payment page.
func (p *StripeProvider) CreateInvoice(ctx context.Context, clientID string, items []provider.LineItem) (*provider.CreatedInvoice, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("stripe: invoice needs at least one line item")
	}
	currency := strings.ToLower(items[0].Currency)
	for _, item := range items {
		if !strings.EqualFold(item.Currency, currency) {
			return nil, fmt.Errorf("stripe: mixed currencies in invoice: %s and %s", currency, item.Currency)
		}
	}

	invParams := &stripe.InvoiceParams{
		Customer:                    stripe.String(clientID),
		Currency:                    stripe.String(currency),
		CollectionMethod:            stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:                stripe.Int64(p.daysUntilDue),
		AutoAdvance:                 stripe.Bool(false),
		PendingInvoiceItemsBehavior: stripe.String("exclude"),
	}
	invParams.Context = ctx

	draft, err := invoice.New(invParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create invoice: %w", err)
	}

	for _, item := range items {
		itemParams := &stripe.InvoiceItemParams{
			Customer:    stripe.String(clientID),
			Invoice:     stripe.String(draft.ID),
			Amount:      stripe.Int64(toMinorUnits(item.Amount, currency)),
			Currency:    stripe.String(currency),
			Description: stripe.String(item.Description),
			Metadata: map[string]string{
				"subscription_id": strconv.FormatUint(uint64(item.SubscriptionID), 10),
			},
		}
		itemParams.Context = ctx
		if _, err := invoiceitem.New(itemParams); err != nil {
			return nil, fmt.Errorf("stripe: failed to add line item to invoice %s: %w", draft.ID, err)
		}
	}

	finalParams := &stripe.InvoiceFinalizeInvoiceParams{}
	finalParams.Context = ctx
	inv, err := invoice.FinalizeInvoice(draft.ID, finalParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to finalize invoice %s: %w", draft.ID, err)
	}

	p.logger.Infow("created stripe invoice",
		"customer_id", clientID,
		"invoice_id", inv.ID,
		"number", inv.Number,
		"lines", len(items),
	)

	return &provider.CreatedInvoice{
		ExternalID:    inv.ID,
		ClientLinkURL: inv.HostedInvoiceURL,
		Status:        string(inv.Status),
		Number:        inv.Number,
	}, nil
}

func (p *StripeProvider) GetInvoiceDetails(ctx context.Context, externalID string) (*provider.InvoiceDetails, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx

	inv, err := invoice.Get(externalID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to get invoice %s: %w", externalID, err)
	}

	return &provider.InvoiceDetails{
		Status:        string(inv.Status),
		Number:        inv.Number,
		Balance:       fromMinorUnits(inv.AmountRemaining, string(inv.Currency)),
		ClientLinkURL: inv.HostedInvoiceURL,
	}, nil
}

func minorUnitExponent(currency string) int32 {
	switch c := strings.ToLower(currency); {
	case zeroDecimalCurrencies[c]:
		return 0
	case threeDecimalCurrencies[c]:
		return 3
	default:
		return 2
	}
}

func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	exp := minorUnitExponent(currency)
	if exp == 3 {
		return amount.Round(2).Shift(3).IntPart()
	}
	return amount.Shift(exp).Round(0).IntPart()
}

func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -minorUnitExponent(currency))
}
