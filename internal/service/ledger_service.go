package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerService implements ports.Ledger for the owner's wallet. All
// balance-affecting operations are serialized behind one mutex, so a
// read-then-write of the balance can never interleave. The balance is a
// cached projection over confirmed records only; pending amounts are not
// spendable.
type LedgerService struct {
	mu      sync.Mutex
	repo    ports.TransactionRepository
	wallet  string
	records []domain.Transaction
	byID    map[uuid.UUID]int
	balance decimal.Decimal
	seq     uint64
	log     zerolog.Logger
}

// NewLedgerService creates a LedgerService for walletAddress, rebuilding
// the balance projection from the repository.
func NewLedgerService(ctx context.Context, repo ports.TransactionRepository, walletAddress string, log zerolog.Logger) (*LedgerService, error) {
	existing, err := repo.All(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("loading ledger records: %w", err)
	}

	s := &LedgerService{
		repo:    repo,
		wallet:  walletAddress,
		records: existing,
		byID:    make(map[uuid.UUID]int, len(existing)),
		balance: decimal.Zero,
		log:     log,
	}
	for i := range existing {
		s.byID[existing[i].ID] = i
		if existing[i].Seq > s.seq {
			s.seq = existing[i].Seq
		}
		if existing[i].Status == domain.TransactionStatusConfirmed {
			s.balance = s.balance.Add(existing[i].Net())
		}
	}
	return s, nil
}

// Append records a transaction and assigns its ledger sequence. It is the
// only mutation path. Appending a confirmed sent transaction that would
// drive the balance negative fails with LED_001; the transfer state
// machine checks funds in Validating, this is the second line of defense.
func (s *LedgerService) Append(ctx context.Context, tx *domain.Transaction) error {
	if err := checkRecordShape(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byID[tx.ID]; dup {
		return apperror.InternalError(fmt.Errorf("duplicate transaction id %s", tx.ID))
	}
	if tx.Status == domain.TransactionStatusConfirmed && s.balance.Add(tx.Net()).IsNegative() {
		return apperror.ErrLedgerInsufficientFunds()
	}

	tx.Seq = s.seq + 1
	tx.WalletAddress = s.wallet
	if err := s.repo.Append(ctx, tx); err != nil {
		return apperror.InternalError(fmt.Errorf("persist transaction: %w", err))
	}
	s.seq = tx.Seq

	s.records = append(s.records, *tx)
	s.byID[tx.ID] = len(s.records) - 1
	if tx.Status == domain.TransactionStatusConfirmed {
		s.balance = s.balance.Add(tx.Net())
	}

	s.log.Debug().
		Str("tx_id", tx.ID.String()).
		Uint64("seq", tx.Seq).
		Str("status", string(tx.Status)).
		Str("amount", tx.Amount.String()).
		Msg("ledger append")

	return nil
}

// Resolve closes the pending window of a transaction. Only the transfer
// state machine calls this; confirmed and failed records are immutable.
// The confirmed path re-validates funds atomically with the balance
// update.
func (s *LedgerService) Resolve(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, reason *string) error {
	if status != domain.TransactionStatusConfirmed && status != domain.TransactionStatusFailed {
		return apperror.InternalError(fmt.Errorf("resolve to non-terminal status %s", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return apperror.ErrNotFound("transaction")
	}
	rec := &s.records[idx]
	if rec.Status != domain.TransactionStatusPending {
		return apperror.ErrLedgerNotPending()
	}
	if status == domain.TransactionStatusConfirmed && s.balance.Add(rec.Net()).IsNegative() {
		return apperror.ErrLedgerInsufficientFunds()
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now, reason); err != nil {
		return apperror.InternalError(fmt.Errorf("persist status: %w", err))
	}

	rec.Status = status
	rec.ProcessedAt = &now
	rec.FailureReason = reason
	if status == domain.TransactionStatusConfirmed {
		s.balance = s.balance.Add(rec.Net())
	}

	s.log.Debug().
		Str("tx_id", id.String()).
		Str("status", string(status)).
		Msg("ledger resolve")

	return nil
}

// Balance returns the confirmed-only balance projection.
func (s *LedgerService) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// History returns records most recent first: timestamp descending with
// ledger sequence ascending breaking ties, a total order. cursor is the
// Seq of the last record of the previous page; 0 starts from the top.
func (s *LedgerService) History(ctx context.Context, limit int, cursor uint64) ([]domain.Transaction, error) {
	s.mu.Lock()
	ordered := make([]domain.Transaction, len(s.records))
	copy(ordered, s.records)
	s.mu.Unlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].Timestamp, ordered[j].Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	start := 0
	if cursor != 0 {
		for i := range ordered {
			if ordered[i].Seq == cursor {
				start = i + 1
				break
			}
		}
	}
	ordered = ordered[start:]

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

// checkRecordShape enforces the sign conventions of ledger records.
func checkRecordShape(tx *domain.Transaction) error {
	if tx.Fee.IsNegative() {
		return apperror.InternalError(fmt.Errorf("negative fee %s", tx.Fee))
	}
	switch tx.Direction {
	case domain.DirectionSent:
		if tx.Amount.IsPositive() {
			return apperror.InternalError(fmt.Errorf("sent amount must be negative, got %s", tx.Amount))
		}
	case domain.DirectionReceived:
		if tx.Amount.IsNegative() {
			return apperror.InternalError(fmt.Errorf("received amount must be positive, got %s", tx.Amount))
		}
		if !tx.Fee.IsZero() {
			return apperror.InternalError(fmt.Errorf("received fee must be zero, got %s", tx.Fee))
		}
	default:
		return apperror.InternalError(fmt.Errorf("unknown direction %q", tx.Direction))
	}
	return nil
}
