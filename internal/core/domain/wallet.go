package domain

import "time"

// Wallet identifies the signed-in owner's account on the asset network.
// The balance is owned by the Ledger projection, never mutated directly.
type Wallet struct {
	Address   string    `json:"address"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
