// Package submitter provides the settlement collaborator. HTTP posts the
// signed payload to a settlement endpoint; Loopback acknowledges locally
// for client-only and test deployments.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"silverhand-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// submitRequest is the wire form posted to the settlement endpoint.
type submitRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Asset     string `json:"asset"`
	Signature string `json:"signature"`
	SignedAt  string `json:"signed_at"`
}

type submitResponse struct {
	ReceiptID   string    `json:"receipt_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// HTTP implements ports.Submitter against a settlement HTTP endpoint. It
// never retries; a timeout or transport error is reported to the caller
// as a failed submission.
type HTTP struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewHTTP(endpoint string, timeout time.Duration, log zerolog.Logger) *HTTP {
	return &HTTP{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "submitter").Logger(),
	}
}

func (s *HTTP) Submit(ctx context.Context, payload *ports.SignedPayload) (*ports.SubmissionReceipt, error) {
	body, err := json.Marshal(submitRequest{
		Sender:    payload.Order.Sender,
		Recipient: payload.Order.Request.RecipientAddress,
		Amount:    payload.Order.Amount.String(),
		Fee:       payload.Order.Fee.String(),
		Asset:     payload.Order.Request.AssetSymbol,
		Signature: payload.Signature,
		SignedAt:  payload.SignedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("settlement endpoint returned %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode submission response: %w", err)
	}
	if out.ReceiptID == "" {
		return nil, fmt.Errorf("settlement endpoint returned no receipt id")
	}

	s.log.Debug().Str("receipt_id", out.ReceiptID).Msg("submission accepted")
	return &ports.SubmissionReceipt{ID: out.ReceiptID, SubmittedAt: out.SubmittedAt}, nil
}

// Loopback implements ports.Submitter by acknowledging every submission
// locally. Used when no settlement endpoint is configured.
type Loopback struct{}

func NewLoopback() *Loopback {
	return &Loopback{}
}

func (Loopback) Submit(ctx context.Context, payload *ports.SignedPayload) (*ports.SubmissionReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ports.SubmissionReceipt{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
	}, nil
}
