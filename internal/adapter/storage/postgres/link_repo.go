package postgres

import (
	"context"
	"errors"
	"fmt"

	"silverhand-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const linkColumns = `id, merchant_id, name, slug, fixed_amount, active, use_count, created_at, updated_at`

// LinkRepo implements ports.PaymentLinkRepository.
type LinkRepo struct {
	pool Pool
}

func NewLinkRepo(pool Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

func (r *LinkRepo) Create(ctx context.Context, link *domain.PaymentLink) error {
	query := `INSERT INTO payment_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		link.ID, link.MerchantID, link.Name, link.Slug,
		link.FixedAmount, link.Active, link.UseCount,
		link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment link: %w", err)
	}
	return nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get link by id")
}

func (r *LinkRepo) GetByName(ctx context.Context, merchantID uuid.UUID, normalizedName string) (*domain.PaymentLink, error) {
	// Names are compared after the same normalization the registry applies
	// on create.
	query := `SELECT ` + linkColumns + ` FROM payment_links
		WHERE merchant_id = $1 AND lower(regexp_replace(trim(name), '\s+', ' ', 'g')) = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, merchantID, normalizedName), "get link by name")
}

func (r *LinkRepo) GetBySlug(ctx context.Context, slug string) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE slug = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, slug), "get link by slug")
}

func (r *LinkRepo) List(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query payment links: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentLink
	for rows.Next() {
		var l domain.PaymentLink
		if err := scanLink(rows, &l); err != nil {
			return nil, fmt.Errorf("scan payment link: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment links: %w", err)
	}
	return out, nil
}

func (r *LinkRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE payment_links SET active=$1, updated_at=NOW() WHERE id=$2`

	tag, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set link active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment link %s not found", id)
	}
	return nil
}

// IncrementUse bumps use_count in a single conditional UPDATE so that
// concurrent confirmations against the same link cannot lose a count.
// Inactive links are returned unchanged.
func (r *LinkRepo) IncrementUse(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error) {
	query := `UPDATE payment_links
		SET use_count = use_count + 1, updated_at = NOW()
		WHERE id = $1 AND active
		RETURNING ` + linkColumns

	link, err := r.scanOne(r.pool.QueryRow(ctx, query, id), "increment link use")
	if err != nil {
		return nil, err
	}
	if link != nil {
		return link, nil
	}
	// No row updated: either unknown or inactive. A plain read tells the
	// caller which.
	return r.GetByID(ctx, id)
}

func (r *LinkRepo) scanOne(row pgx.Row, op string) (*domain.PaymentLink, error) {
	l := &domain.PaymentLink{}
	if err := scanLink(row, l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func scanLink(row pgx.Row, l *domain.PaymentLink) error {
	return row.Scan(
		&l.ID, &l.MerchantID, &l.Name, &l.Slug,
		&l.FixedAmount, &l.Active, &l.UseCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
}
