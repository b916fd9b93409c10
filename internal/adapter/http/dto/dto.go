package dto

// RegisterRequest is the request body for merchant registration.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	MerchantName string `json:"merchant_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for merchant login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// MerchantResponse is the public view of a merchant account.
type MerchantResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	MerchantName string `json:"merchant_name"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// SendRequest is the request body for an outgoing transfer. Either a
// scanned payload or an explicit recipient must be supplied; amount is
// required when the request does not already fix one.
type SendRequest struct {
	Payload   string  `json:"payload,omitempty"`
	Recipient string  `json:"recipient,omitempty"`
	Label     string  `json:"label,omitempty" binding:"max=200"`
	Amount    *string `json:"amount,omitempty" binding:"omitempty,amount"`
	LinkID    *string `json:"link_id,omitempty" binding:"omitempty,uuid"`
}

// ScanRequest carries a scanned QR payload for decoding.
type ScanRequest struct {
	Payload string `json:"payload" binding:"required,max=2048"`
}

// PaymentRequestResponse is the decoded or encoded payment request.
type PaymentRequestResponse struct {
	Recipient string  `json:"recipient"`
	Amount    *string `json:"amount,omitempty"`
	Label     string  `json:"label,omitempty"`
	Asset     string  `json:"asset"`
	URI       string  `json:"uri"`
	// LinkID is set when the scanned payload was a share link, so the
	// client can attribute the payment to it.
	LinkID *string `json:"link_id,omitempty"`
}

// TransactionResponse is the response body for ledger records.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Seq           uint64  `json:"seq"`
	Direction     string  `json:"direction"`
	Counterparty  string  `json:"counterparty"`
	Amount        string  `json:"amount"`
	Fee           string  `json:"fee"`
	Status        string  `json:"status"`
	LinkID        *string `json:"link_id,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
	Timestamp     string  `json:"timestamp"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Balance string `json:"balance"`
	Asset   string `json:"asset"`
}

// HistoryResponse wraps a page of ledger records. NextCursor is the seq
// to pass for the next page; 0 means the history is exhausted.
type HistoryResponse struct {
	Items      []TransactionResponse `json:"items"`
	NextCursor uint64                `json:"next_cursor"`
}

// LinkShareResponse carries the shareable forms of a payment link: the
// web URL and the QR payload for the same request.
type LinkShareResponse struct {
	ShareURL string `json:"share_url"`
	URI      string `json:"uri"`
}

// CreateLinkRequest is the request body for creating a payment link.
type CreateLinkRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	FixedAmount *string `json:"fixed_amount,omitempty" binding:"omitempty,amount"`
}

// SetLinkActiveRequest toggles a payment link.
type SetLinkActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// LinkResponse is the response body for payment links.
type LinkResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	FixedAmount *string `json:"fixed_amount,omitempty"`
	Active      bool    `json:"active"`
	UseCount    int64   `json:"use_count"`
	ShareURL    string  `json:"share_url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
