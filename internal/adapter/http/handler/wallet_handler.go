package handler

import (
	"context"
	"strconv"
	"time"

	"silverhand-wallet/internal/adapter/http/dto"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/pkg/apperror"
	"silverhand-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// WalletHandler handles wallet endpoints: balance, history, send, scan
// and receive.
type WalletHandler struct {
	transferSvc ports.TransferService
	ledger      ports.Ledger
	codec       ports.RequestCodec
	links       ports.LinkRegistry
	owner       domain.Wallet
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(transferSvc ports.TransferService, ledger ports.Ledger, codec ports.RequestCodec, links ports.LinkRegistry, owner domain.Wallet) *WalletHandler {
	return &WalletHandler{
		transferSvc: transferSvc,
		ledger:      ledger,
		codec:       codec,
		links:       links,
		owner:       owner,
	}
}

// GetBalance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	response.OK(c, dto.BalanceResponse{
		Balance: h.ledger.Balance().String(),
		Asset:   domain.AssetSymbol,
	})
}

// ListTransactions handles GET /api/v1/wallet/transactions?limit=&cursor=.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var cursor uint64
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("cursor must be a non-negative integer"))
			return
		}
		cursor = parsed
	}

	items, err := h.ledger.History(c.Request.Context(), limit, cursor)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := dto.HistoryResponse{Items: make([]dto.TransactionResponse, 0, len(items))}
	for i := range items {
		out.Items = append(out.Items, toTransactionResponse(&items[i]))
	}
	// A full page may have more behind it; the last seq resumes the walk.
	if len(items) == limit {
		out.NextCursor = items[len(items)-1].Seq
	}

	response.OK(c, out)
}

// Send handles POST /api/v1/wallet/send — runs a full transfer attempt.
// The payload field is passed to the codec verbatim, so this request is
// deliberately not sanitized.
func (h *WalletHandler) Send(c *gin.Context) {
	var req dto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	paymentReq, linkID, err := h.resolveRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	input := ports.TransferInput{Request: paymentReq, LinkID: linkID}
	if req.Amount != nil {
		amount, err := dto.ParseAmount(*req.Amount)
		if err != nil {
			response.Error(c, apperror.ErrInvalidAmount())
			return
		}
		input.Amount = &amount
	}
	if req.LinkID != nil {
		linkID, err := uuid.Parse(*req.LinkID)
		if err != nil {
			response.Error(c, apperror.Validation("link_id must be a valid UUID"))
			return
		}
		input.LinkID = &linkID
	}

	tx, err := h.transferSvc.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(tx))
}

// Scan handles POST /api/v1/wallet/scan — decodes a scanned QR payload
// into its payment request. The payload is not sanitized for the same
// reason as Send.
func (h *WalletHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if slug, ok := h.codec.ParseShareURL(req.Payload); ok {
		resolved, linkID, err := h.resolveShareSlug(c.Request.Context(), slug)
		if err != nil {
			response.Error(c, err)
			return
		}
		out := toPaymentRequestResponse(resolved, h.codec.Encode(resolved))
		s := linkID.String()
		out.LinkID = &s
		response.OK(c, out)
		return
	}

	decoded, err := h.codec.Decode(req.Payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentRequestResponse(decoded, h.codec.Encode(decoded)))
}

// Receive handles GET /api/v1/wallet/receive?amount=&label= — encodes a
// payment request for the owner's own address. The wallet's display label
// is used when the caller does not override it.
func (h *WalletHandler) Receive(c *gin.Context) {
	label := c.Query("label")
	if label == "" {
		label = h.owner.Label
	}
	req := domain.PaymentRequest{
		RecipientAddress: h.owner.Address,
		Label:            label,
		AssetSymbol:      domain.AssetSymbol,
	}
	if raw := c.Query("amount"); raw != "" {
		amount, err := dto.ParseAmount(raw)
		if err != nil {
			response.Error(c, apperror.ErrInvalidAmount())
			return
		}
		req.Amount = &amount
	}

	response.OK(c, toPaymentRequestResponse(req, h.codec.Encode(req)))
}

// resolveRequest turns a send body into a payment request: a scanned
// payload when present, otherwise an open request to the given recipient.
// Share-link payloads also carry the link id so the transfer records the
// use against the right link.
func (h *WalletHandler) resolveRequest(ctx context.Context, req dto.SendRequest) (domain.PaymentRequest, *uuid.UUID, error) {
	if req.Payload != "" {
		if slug, ok := h.codec.ParseShareURL(req.Payload); ok {
			return h.resolveShareSlug(ctx, slug)
		}
		decoded, err := h.codec.Decode(req.Payload)
		if err != nil {
			return domain.PaymentRequest{}, nil, err
		}
		return decoded, nil, nil
	}
	if req.Recipient == "" {
		return domain.PaymentRequest{}, nil, apperror.Validation("either payload or recipient is required")
	}
	return domain.PaymentRequest{
		RecipientAddress: req.Recipient,
		Label:            req.Label,
		AssetSymbol:      domain.AssetSymbol,
	}, nil, nil
}

// resolveShareSlug looks a share-link slug up in the registry and rebuilds
// the payment request it stands for.
func (h *WalletHandler) resolveShareSlug(ctx context.Context, slug string) (domain.PaymentRequest, *uuid.UUID, error) {
	link, err := h.links.GetBySlug(ctx, slug)
	if err != nil {
		return domain.PaymentRequest{}, nil, err
	}
	if !link.Active {
		return domain.PaymentRequest{}, nil, apperror.ErrLinkInactive()
	}
	id := link.ID
	return domain.PaymentRequest{
		RecipientAddress: h.owner.Address,
		Amount:           link.FixedAmount,
		Label:            link.Name,
		AssetSymbol:      domain.AssetSymbol,
	}, &id, nil
}

func toPaymentRequestResponse(req domain.PaymentRequest, uri string) dto.PaymentRequestResponse {
	out := dto.PaymentRequestResponse{
		Recipient: req.RecipientAddress,
		Label:     req.Label,
		Asset:     req.AssetSymbol,
		URI:       uri,
	}
	if req.Amount != nil {
		s := req.Amount.String()
		out.Amount = &s
	}
	return out
}

func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	out := dto.TransactionResponse{
		ID:            tx.ID.String(),
		Seq:           tx.Seq,
		Direction:     string(tx.Direction),
		Counterparty:  tx.Counterparty,
		Amount:        tx.Amount.String(),
		Fee:           tx.Fee.String(),
		Status:        string(tx.Status),
		FailureReason: tx.FailureReason,
		Timestamp:     tx.Timestamp.Format(time.RFC3339),
	}
	if tx.LinkID != nil {
		s := tx.LinkID.String()
		out.LinkID = &s
	}
	if tx.ProcessedAt != nil {
		s := tx.ProcessedAt.Format(time.RFC3339)
		out.ProcessedAt = &s
	}
	return out
}
