package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction represents which way funds moved relative to the wallet owner.
type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// TransactionStatus represents the lifecycle state of a ledger entry.
// Pending is the only mutable window; once confirmed or failed the record
// is immutable.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger record. Amount is signed: negative for
// sent funds, positive for received. Fee is non-negative and zero for
// received funds.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	Seq           uint64            `json:"seq"` // ledger insertion order, assigned at append
	WalletAddress string            `json:"wallet_address"`
	Direction     Direction         `json:"direction"`
	Counterparty  string            `json:"counterparty"` // label or address
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	Status        TransactionStatus `json:"status"`
	LinkID        *uuid.UUID        `json:"link_id,omitempty"` // payment link origin, when any
	FailureReason *string           `json:"failure_reason,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusConfirmed || t.Status == TransactionStatusFailed
}

// Net returns the transaction's effect on the running balance:
// balance after = balance before + amount - fee.
func (t *Transaction) Net() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}
