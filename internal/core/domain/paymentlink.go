package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLink is a merchant-owned reusable payment request with a tracked
// usage count. Links are deactivated, never deleted, so historical use
// counts stay intact.
type PaymentLink struct {
	ID          uuid.UUID        `json:"id"`
	MerchantID  uuid.UUID        `json:"merchant_id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	FixedAmount *decimal.Decimal `json:"fixed_amount,omitempty"` // nil = any amount
	Active      bool             `json:"active"`
	UseCount    int64            `json:"use_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HasFixedAmount reports whether the link charges a fixed amount.
func (l *PaymentLink) HasFixedAmount() bool {
	return l.FixedAmount != nil
}

// NormalizeName canonicalizes a link name for uniqueness comparison:
// lowercased with internal whitespace runs collapsed to a single space.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
