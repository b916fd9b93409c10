package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Asset constants for the single supported stable asset.
const (
	AssetSymbol   = "USDC"
	AssetDecimals = 2
)

// Role distinguishes who bears a settlement fee.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleMerchant Role = "merchant"
)

var addressRe = regexp.MustCompile(`^[A-Za-z0-9]{4,64}$`)

// ValidAddress reports whether s is a well-formed recipient address.
func ValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// ValidAmount reports whether d is a positive amount within the asset's
// fractional precision. Zero is not a valid amount; an open amount is
// represented by absence, never by zero.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Exponent() >= -AssetDecimals
}
