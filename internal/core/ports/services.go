package ports

import (
	"context"
	"time"

	"silverhand-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeCalculator computes the settlement fee for an amount. Pure and
// deterministic.
type FeeCalculator interface {
	Fee(amount decimal.Decimal, role domain.Role) (decimal.Decimal, error)
}

// RequestCodec encodes payment requests to the canonical QR payload and
// back, and derives merchant share links.
type RequestCodec interface {
	Encode(req domain.PaymentRequest) string
	// Decode is the exact left inverse of Encode on Encode's range. It
	// returns a typed error for any other input and never panics.
	Decode(payload string) (domain.PaymentRequest, error)
	Slug(name string) string
	ShareURL(link *domain.PaymentLink) string
	// ParseShareURL reports the link slug carried by a shareable HTTPS
	// link, or false when the payload is not one.
	ParseShareURL(payload string) (string, bool)
}

// Ledger is the append-only transaction store and balance projection for
// the owner's wallet. Append is the only mutation path; Resolve closes the
// pending window and may only be called by the transfer state machine.
type Ledger interface {
	Append(ctx context.Context, tx *domain.Transaction) error
	Resolve(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, reason *string) error
	// Balance is the projection over confirmed transactions only; pending
	// amounts are not spendable.
	Balance() decimal.Decimal
	// History returns records ordered by timestamp descending, sequence
	// ascending on ties. cursor is the Seq of the last record of the
	// previous page; 0 starts from the top. limit <= 0 means no limit.
	History(ctx context.Context, limit int, cursor uint64) ([]domain.Transaction, error)
}

// LinkRegistry manages merchant-created reusable payment links.
type LinkRegistry interface {
	Create(ctx context.Context, merchantID uuid.UUID, name string, fixedAmount *decimal.Decimal) (*domain.PaymentLink, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// RecordUse increments the link's use count exactly once; it fails for
	// inactive or unknown links and is safe under concurrent completions.
	RecordUse(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error)
	GetBySlug(ctx context.Context, slug string) (*domain.PaymentLink, error)
	List(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentLink, error)
}

// TransferOrder is the finalized transfer handed to the signer: the chosen
// amount and computed fee are fixed by the time it is built.
type TransferOrder struct {
	Sender  string
	Request domain.PaymentRequest
	Amount  decimal.Decimal
	Fee     decimal.Decimal
}

// SignedPayload is the signer's output, opaque to the core.
type SignedPayload struct {
	Order     TransferOrder
	Signature string
	SignedAt  time.Time
}

// Signer is the external signing collaborator. Sign may block until ctx
// expires; the caller supplies the timeout.
type Signer interface {
	Sign(ctx context.Context, order TransferOrder) (*SignedPayload, error)
}

// SubmissionReceipt acknowledges an accepted settlement.
type SubmissionReceipt struct {
	ID          string
	SubmittedAt time.Time
}

// Submitter is the external settlement collaborator. The core treats it as
// at-most-effectively-once and never retries; retry policy belongs to the
// implementation.
type Submitter interface {
	Submit(ctx context.Context, payload *SignedPayload) (*SubmissionReceipt, error)
}

// ReceiptStore recognizes settlement receipts that were already recorded,
// so a retried submission cannot double-book the ledger or a link's use
// count. CheckAndSet returns true when the receipt is new.
type ReceiptStore interface {
	CheckAndSet(ctx context.Context, receiptID string, ttl time.Duration) (bool, error)
}

// TransferInput is the intent fed into the transfer state machine.
type TransferInput struct {
	Request domain.PaymentRequest
	// Amount is the payer-chosen amount for open requests; ignored when
	// the request already fixes one.
	Amount *decimal.Decimal
	// LinkID is set when the request was decoded from a merchant payment
	// link; its use count is incremented on confirmation.
	LinkID *uuid.UUID
}

// TransferService runs a single transfer attempt from intent to terminal
// outcome and records the result in the Ledger.
type TransferService interface {
	Execute(ctx context.Context, input TransferInput) (*domain.Transaction, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(merchantID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID uuid.UUID
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// AuthService defines merchant authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Merchant, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for merchant registration.
type RegisterRequest struct {
	Username     string
	Password     string
	MerchantName string
}
