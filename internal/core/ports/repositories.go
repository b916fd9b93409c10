package ports

import (
	"context"
	"time"

	"silverhand-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// TransactionRepository defines persistence for ledger records. The Ledger
// serializes all calls; implementations only need per-call atomicity.
type TransactionRepository interface {
	Append(ctx context.Context, tx *domain.Transaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, processedAt time.Time, reason *string) error
	// All returns every record for the wallet in append order; used to
	// rebuild the balance projection at startup.
	All(ctx context.Context, walletAddress string) ([]domain.Transaction, error)
}

// PaymentLinkRepository defines persistence for merchant payment links.
// Not-found is reported as (nil, nil).
type PaymentLinkRepository interface {
	Create(ctx context.Context, link *domain.PaymentLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error)
	// GetByName looks up by normalized name within a merchant.
	GetByName(ctx context.Context, merchantID uuid.UUID, normalizedName string) (*domain.PaymentLink, error)
	GetBySlug(ctx context.Context, slug string) (*domain.PaymentLink, error)
	List(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentLink, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// IncrementUse atomically increments use_count if the link is active.
	// It returns the link's post-call state; the count is unchanged when
	// the link was inactive.
	IncrementUse(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error)
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Merchant, error)
}
