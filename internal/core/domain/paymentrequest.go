package domain

import "github.com/shopspring/decimal"

// PaymentRequest describes a desired transfer (recipient, optional amount,
// optional label) prior to execution. Values are never mutated after
// construction.
type PaymentRequest struct {
	RecipientAddress string           `json:"recipient_address"`
	Amount           *decimal.Decimal `json:"amount,omitempty"` // nil = payer specifies the amount
	Label            string           `json:"label,omitempty"`
	AssetSymbol      string           `json:"asset_symbol"`
}

// HasAmount reports whether the request fixes an amount. Absence is
// semantically "open amount", distinct from zero.
func (r PaymentRequest) HasAmount() bool {
	return r.Amount != nil
}

// Equal reports value equality. Amounts compare numerically, so 15.5 and
// 15.50 are the same request.
func (r PaymentRequest) Equal(other PaymentRequest) bool {
	if r.RecipientAddress != other.RecipientAddress ||
		r.Label != other.Label ||
		r.AssetSymbol != other.AssetSymbol {
		return false
	}
	if (r.Amount == nil) != (other.Amount == nil) {
		return false
	}
	if r.Amount == nil {
		return true
	}
	return r.Amount.Equal(*other.Amount)
}
