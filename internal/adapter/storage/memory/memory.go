// Package memory provides in-memory repository implementations for the
// client-local, single-user mode and for tests. All stores are safe for
// concurrent use.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"silverhand-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// --- Transaction repository ---

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	mu      sync.RWMutex
	records []domain.Transaction
	byID    map[uuid.UUID]int
}

// NewTransactionRepo creates an empty in-memory transaction repository.
func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{byID: make(map[uuid.UUID]int)}
}

func (r *TransactionRepo) Append(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[tx.ID]; ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	r.records = append(r.records, *tx)
	r.byID[tx.ID] = len(r.records) - 1
	return nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, processedAt time.Time, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("transaction %s not found", id)
	}
	r.records[idx].Status = status
	r.records[idx].ProcessedAt = &processedAt
	r.records[idx].FailureReason = reason
	return nil
}

func (r *TransactionRepo) All(ctx context.Context, walletAddress string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(r.records))
	for _, rec := range r.records {
		if rec.WalletAddress == walletAddress {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- Payment link repository ---

// LinkRepo implements ports.PaymentLinkRepository.
type LinkRepo struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*domain.PaymentLink
}

// NewLinkRepo creates an empty in-memory payment link repository.
func NewLinkRepo() *LinkRepo {
	return &LinkRepo{links: make(map[uuid.UUID]*domain.PaymentLink)}
}

func (r *LinkRepo) Create(ctx context.Context, link *domain.PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.links {
		if existing.MerchantID == link.MerchantID && domain.NormalizeName(existing.Name) == domain.NormalizeName(link.Name) {
			return fmt.Errorf("link name %q already exists", link.Name)
		}
		if existing.Slug == link.Slug {
			return fmt.Errorf("link slug %q already exists", link.Slug)
		}
	}
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.links[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *LinkRepo) GetByName(ctx context.Context, merchantID uuid.UUID, normalizedName string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.links {
		if l.MerchantID == merchantID && domain.NormalizeName(l.Name) == normalizedName {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *LinkRepo) GetBySlug(ctx context.Context, slug string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.links {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *LinkRepo) List(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PaymentLink, 0, len(r.links))
	for _, l := range r.links {
		if l.MerchantID == merchantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *LinkRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return fmt.Errorf("link %s not found", id)
	}
	l.Active = active
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LinkRepo) IncrementUse(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok {
		return nil, nil
	}
	if l.Active {
		l.UseCount++
		l.UpdatedAt = time.Now().UTC()
	}
	cp := *l
	return &cp, nil
}

// --- Merchant repository ---

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

// NewMerchantRepo creates an empty in-memory merchant repository.
func NewMerchantRepo() *MerchantRepo {
	return &MerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Username == m.Username {
			return fmt.Errorf("username %q already exists", m.Username)
		}
	}
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *MerchantRepo) GetByUsername(ctx context.Context, username string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Username == username {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// --- Receipt store ---

// ReceiptStore implements ports.ReceiptStore without Redis, for the
// client-local mode and tests.
type ReceiptStore struct {
	mu   sync.Mutex
	seen map[string]time.Time // receipt id -> expiry
}

// NewReceiptStore creates an empty in-memory receipt store.
func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{seen: make(map[string]time.Time)}
}

// CheckAndSet returns true when the receipt id has not been recorded
// within its TTL, recording it as a side effect.
func (r *ReceiptStore) CheckAndSet(ctx context.Context, receiptID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if exp, ok := r.seen[receiptID]; ok && now.Before(exp) {
		return false, nil
	}
	r.seen[receiptID] = now.Add(ttl)
	return true, nil
}
