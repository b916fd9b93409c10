package service

import (
	"context"
	"fmt"
	"time"

	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LinkService implements ports.LinkRegistry. Name uniqueness is per
// merchant over the normalized name; slugs are unique across the whole
// registry because they address links on the public share host.
type LinkService struct {
	linkRepo ports.PaymentLinkRepository
	codec    ports.RequestCodec
	log      zerolog.Logger
}

func NewLinkService(linkRepo ports.PaymentLinkRepository, codec ports.RequestCodec, log zerolog.Logger) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		codec:    codec,
		log:      log.With().Str("component", "link_service").Logger(),
	}
}

func (s *LinkService) Create(ctx context.Context, merchantID uuid.UUID, name string, fixedAmount *decimal.Decimal) (*domain.PaymentLink, error) {
	normalized := domain.NormalizeName(name)
	if normalized == "" {
		return nil, apperror.Validation("link name must not be empty")
	}
	if fixedAmount != nil && !domain.ValidAmount(*fixedAmount) {
		return nil, apperror.ErrInvalidAmount()
	}

	existing, err := s.linkRepo.GetByName(ctx, merchantID, normalized)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check link name: %w", err))
	}
	if existing != nil {
		s.log.Warn().Str("name", name).Msg("duplicate link name")
		return nil, apperror.ErrDuplicateLinkName()
	}

	slug := s.codec.Slug(name)
	if slug == "" {
		return nil, apperror.Validation("link name yields an empty slug")
	}
	taken, err := s.linkRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check link slug: %w", err))
	}
	if taken != nil {
		return nil, apperror.ErrDuplicateLinkName()
	}

	now := time.Now().UTC()
	link := &domain.PaymentLink{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Name:        name,
		Slug:        slug,
		FixedAmount: fixedAmount,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create link: %w", err))
	}

	s.log.Info().
		Str("link_id", link.ID.String()).
		Str("slug", slug).
		Bool("fixed_amount", link.HasFixedAmount()).
		Msg("payment link created")

	return link, nil
}

func (s *LinkService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get link: %w", err))
	}
	if link == nil {
		return apperror.ErrNotFound("payment link")
	}
	if err := s.linkRepo.SetActive(ctx, id, active); err != nil {
		return apperror.InternalError(fmt.Errorf("set link active: %w", err))
	}
	s.log.Info().Str("link_id", id.String()).Bool("active", active).Msg("payment link state changed")
	return nil
}

// RecordUse increments the use count of an active link. The increment is
// performed by the repository in a single conditional update, so two
// transfers confirming against the same link cannot lose a count.
func (s *LinkService) RecordUse(ctx context.Context, id uuid.UUID) error {
	link, err := s.linkRepo.IncrementUse(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("increment link use: %w", err))
	}
	if link == nil {
		return apperror.ErrNotFound("payment link")
	}
	if !link.Active {
		return apperror.ErrLinkInactive()
	}
	return nil
}

func (s *LinkService) Get(ctx context.Context, id uuid.UUID) (*domain.PaymentLink, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("payment link")
	}
	return link, nil
}

func (s *LinkService) GetBySlug(ctx context.Context, slug string) (*domain.PaymentLink, error) {
	link, err := s.linkRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get link by slug: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("payment link")
	}
	return link, nil
}

func (s *LinkService) List(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentLink, error) {
	links, err := s.linkRepo.List(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list links: %w", err))
	}
	return links, nil
}
