package handler

import (
	"time"

	"silverhand-wallet/internal/adapter/http/dto"
	"silverhand-wallet/internal/adapter/http/middleware"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/pkg/apperror"
	"silverhand-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkHandler handles merchant payment link endpoints.
type LinkHandler struct {
	linkSvc ports.LinkRegistry
	codec   ports.RequestCodec
	owner   domain.Wallet
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(linkSvc ports.LinkRegistry, codec ports.RequestCodec, owner domain.Wallet) *LinkHandler {
	return &LinkHandler{
		linkSvc: linkSvc,
		codec:   codec,
		owner:   owner,
	}
}

// Create handles POST /api/v1/links.
func (h *LinkHandler) Create(c *gin.Context) {
	merchantID, ok := merchantFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	var fixedAmount *decimal.Decimal
	if req.FixedAmount != nil {
		amount, err := dto.ParseAmount(*req.FixedAmount)
		if err != nil {
			response.Error(c, apperror.ErrInvalidAmount())
			return
		}
		fixedAmount = &amount
	}

	link, err := h.linkSvc.Create(c.Request.Context(), merchantID, req.Name, fixedAmount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, h.toLinkResponse(link))
}

// List handles GET /api/v1/links.
func (h *LinkHandler) List(c *gin.Context) {
	merchantID, ok := merchantFromCtx(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	links, err := h.linkSvc.List(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, h.toLinkResponse(&links[i]))
	}
	response.OK(c, out)
}

// Get handles GET /api/v1/links/:id.
func (h *LinkHandler) Get(c *gin.Context) {
	link, err := h.ownedLink(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toLinkResponse(link))
}

// SetActive handles PATCH /api/v1/links/:id/active.
func (h *LinkHandler) SetActive(c *gin.Context) {
	link, err := h.ownedLink(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SetLinkActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.linkSvc.SetActive(c.Request.Context(), link.ID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.linkSvc.Get(c.Request.Context(), link.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, h.toLinkResponse(updated))
}

// Share handles GET /api/v1/links/:id/share — the shareable URL plus the
// equivalent QR payload.
func (h *LinkHandler) Share(c *gin.Context) {
	link, err := h.ownedLink(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	req := domain.PaymentRequest{
		RecipientAddress: h.owner.Address,
		Amount:           link.FixedAmount,
		Label:            link.Name,
		AssetSymbol:      domain.AssetSymbol,
	}
	response.OK(c, dto.LinkShareResponse{
		ShareURL: h.codec.ShareURL(link),
		URI:      h.codec.Encode(req),
	})
}

// ownedLink resolves the :id path parameter to a link owned by the
// authenticated merchant. Foreign links are indistinguishable from
// missing ones.
func (h *LinkHandler) ownedLink(c *gin.Context) (*domain.PaymentLink, error) {
	merchantID, ok := merchantFromCtx(c)
	if !ok {
		return nil, apperror.ErrInvalidToken()
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, apperror.Validation("id must be a valid UUID")
	}

	link, err := h.linkSvc.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if link.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("payment link")
	}
	return link, nil
}

func merchantFromCtx(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

func (h *LinkHandler) toLinkResponse(link *domain.PaymentLink) dto.LinkResponse {
	out := dto.LinkResponse{
		ID:        link.ID.String(),
		Name:      link.Name,
		Slug:      link.Slug,
		Active:    link.Active,
		UseCount:  link.UseCount,
		ShareURL:  h.codec.ShareURL(link),
		CreatedAt: link.CreatedAt.Format(time.RFC3339),
		UpdatedAt: link.UpdatedAt.Format(time.RFC3339),
	}
	if link.FixedAmount != nil {
		s := link.FixedAmount.String()
		out.FixedAmount = &s
	}
	return out
}
