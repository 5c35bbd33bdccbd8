package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
)

// CreditGuard rejects orders from merchants whose existing exposure has
// reached their credit limit.
type CreditGuard struct {
	store CreditStore
}

// NewCreditGuard creates a new CreditGuard.
func NewCreditGuard(store CreditStore) *CreditGuard {
	return &CreditGuard{store: store}
}

// Check locks the merchant row and compares unpaid invoices plus pending
// orders against the credit limit. The order being placed is not counted.
func (g *CreditGuard) Check(ctx context.Context, merchantID uuid.UUID) (database.Merchant, error) {
	merchant, err := g.store.GetMerchantForUpdate(ctx, merchantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Merchant{}, ErrMerchantNotFound
		}
		return database.Merchant{}, fmt.Errorf("get merchant: %w", err)
	}
	switch merchant.AccountStatus {
	case enum.MerchantStatusSuspended, enum.MerchantStatusInactive:
		return database.Merchant{}, ErrMerchantInactive
	}

	invoices, err := g.store.SumOutstandingInvoices(ctx, merchantID)
	if err != nil {
		return database.Merchant{}, fmt.Errorf("sum outstanding invoices: %w", err)
	}
	pending, err := g.store.SumPendingOrders(ctx, merchantID)
	if err != nil {
		return database.Merchant{}, fmt.Errorf("sum pending orders: %w", err)
	}

	outstanding := numericToDecimal(invoices).Add(numericToDecimal(pending))
	limit := numericToDecimal(merchant.CreditLimit)
	if outstanding.GreaterThanOrEqual(limit) {
		return database.Merchant{}, &CreditExceededError{Outstanding: outstanding, Limit: limit}
	}
	return merchant, nil
}
