package service

import (
	"net/url"
	"strings"

	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/pkg/apperror"

	"github.com/shopspring/decimal"
)

// CodecService implements ports.RequestCodec. The canonical payment URI is
// <scheme>:<address>[?amount=<decimal>][&label=<escaped>]; absence of the
// amount parameter means "open amount", which is distinct from zero.
type CodecService struct {
	scheme string
	host   string
}

// NewCodecService creates a new CodecService. scheme is the payment URI
// scheme, host the share-link host.
func NewCodecService(scheme, host string) *CodecService {
	return &CodecService{scheme: scheme, host: host}
}

// Encode renders the canonical URI form of a payment request (the QR
// payload).
func (s *CodecService) Encode(req domain.PaymentRequest) string {
	var b strings.Builder
	b.WriteString(s.scheme)
	b.WriteByte(':')
	b.WriteString(req.RecipientAddress)

	sep := byte('?')
	if req.Amount != nil {
		b.WriteByte(sep)
		b.WriteString("amount=")
		b.WriteString(req.Amount.String())
		sep = '&'
	}
	if req.Label != "" {
		b.WriteByte(sep)
		b.WriteString("label=")
		b.WriteString(url.QueryEscape(req.Label))
	}
	return b.String()
}

// Decode parses a scanned payload back into a payment request. It is the
// exact left inverse of Encode for everything Encode can produce, returns
// a typed error for anything else, and never panics on adversarial input.
func (s *CodecService) Decode(payload string) (domain.PaymentRequest, error) {
	u, err := url.Parse(payload)
	if err != nil {
		return domain.PaymentRequest{}, apperror.ErrMalformedPayload()
	}
	// Canonical form is opaque (scheme:address), not authority (scheme://).
	if u.Scheme != s.scheme || u.Opaque == "" || strings.Contains(u.Opaque, "/") {
		return domain.PaymentRequest{}, apperror.ErrMalformedPayload()
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return domain.PaymentRequest{}, apperror.ErrMalformedPayload()
	}

	req := domain.PaymentRequest{
		RecipientAddress: u.Opaque,
		Label:            values.Get("label"),
		AssetSymbol:      domain.AssetSymbol,
	}

	if raw := values.Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil || !domain.ValidAmount(amount) {
			return domain.PaymentRequest{}, apperror.ErrDecodeInvalidAmount()
		}
		req.Amount = &amount
	} else if values.Has("amount") {
		// amount= with an empty value is not an open amount.
		return domain.PaymentRequest{}, apperror.ErrDecodeInvalidAmount()
	}

	return req, nil
}

// Slug derives the URL-safe identifier for a link name: lowercased,
// whitespace runs collapsed to a single hyphen, characters outside the
// URL-unreserved set removed, leading and trailing hyphens trimmed.
func (s *CodecService) Slug(name string) string {
	joined := strings.Join(strings.Fields(strings.ToLower(name)), "-")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '.', r == '_', r == '~':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// ShareURL renders the shareable HTTPS form of a merchant payment link.
func (s *CodecService) ShareURL(link *domain.PaymentLink) string {
	slug := link.Slug
	if slug == "" {
		slug = s.Slug(link.Name)
	}
	return "https://" + s.host + "/" + slug
}

// ParseShareURL extracts the link slug from a shareable HTTPS link. Any
// payload that is not an https URL on the configured host, or that carries
// more than a single path segment, reports false.
func (s *CodecService) ParseShareURL(payload string) (string, bool) {
	u, err := url.Parse(payload)
	if err != nil || u.Scheme != "https" || u.Host != s.host {
		return "", false
	}
	slug := strings.Trim(u.Path, "/")
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}
	return slug, true
}
