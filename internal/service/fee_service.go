package service

import (
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/pkg/apperror"

	"github.com/shopspring/decimal"
)

// FeeService implements ports.FeeCalculator with a flat proportional rate
// per role. Rates come from configuration, never from call sites.
type FeeService struct {
	consumerRate decimal.Decimal
	merchantRate decimal.Decimal
}

// NewFeeService creates a new FeeService.
func NewFeeService(consumerRate, merchantRate decimal.Decimal) *FeeService {
	return &FeeService{
		consumerRate: consumerRate,
		merchantRate: merchantRate,
	}
}

// Fee computes the settlement fee for the amount, rounded half-up to the
// asset's fractional precision so exact halves never under-charge. A zero
// amount yields a zero fee; a negative amount is a validation error.
func (s *FeeService) Fee(amount decimal.Decimal, role domain.Role) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	var rate decimal.Decimal
	switch role {
	case domain.RoleConsumer:
		rate = s.consumerRate
	case domain.RoleMerchant:
		rate = s.merchantRate
	default:
		return decimal.Zero, apperror.Validation("unknown fee role: " + string(role))
	}

	// Round is half away from zero, which is half-up for non-negative fees.
	return amount.Mul(rate).Round(domain.AssetDecimals), nil
}
