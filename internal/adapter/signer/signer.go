// Package signer provides the local signing collaborator. Production
// deployments plug in an external signer; this one derives an
// HMAC-SHA256 signature over the canonical order string with a
// device-local key.
package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"silverhand-wallet/internal/core/ports"
)

// Local implements ports.Signer with a device-local HMAC key.
type Local struct {
	key []byte
}

func NewLocal(key string) *Local {
	return &Local{key: []byte(key)}
}

// Sign produces a signed payload for the order. It honors ctx so a caller
// abandoning the transfer is not left waiting.
func (s *Local) Sign(ctx context.Context, order ports.TransferOrder) (*ports.SignedPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.key) == 0 {
		return nil, fmt.Errorf("signing key not configured")
	}

	now := time.Now().UTC()
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s|%s|%s|%s|%d",
		order.Sender,
		order.Request.RecipientAddress,
		order.Amount.String(),
		order.Fee.String(),
		now.UnixNano(),
	)

	return &ports.SignedPayload{
		Order:     order,
		Signature: hex.EncodeToString(mac.Sum(nil)),
		SignedAt:  now,
	}, nil
}
