package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"silverhand-wallet/internal/adapter/http/dto"
	"silverhand-wallet/internal/adapter/http/middleware"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/internal/core/ports/mocks"
	"silverhand-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testWalletAddr = "7xKpQw9f3mVq"

var testOwner = domain.Wallet{Address: testWalletAddr, Label: "SilverHand"}

func jsonRequest(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	merchantID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Username:     "coffeecorner",
		Password:     "password123",
		MerchantName: "Coffee Corner",
	}).Return(&domain.Merchant{
		ID:           merchantID,
		Username:     "coffeecorner",
		MerchantName: "Coffee Corner",
		Status:       domain.MerchantStatusActive,
		CreatedAt:    time.Now(),
	}, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Username:     "coffeecorner",
		Password:     "password123",
		MerchantName: "Coffee Corner",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, merchantID.String(), data["id"])
	assert.Equal(t, "coffeecorner", data["username"])
	assert.Equal(t, "ACTIVE", data["status"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{})
	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrUsernameExists())

	w, c := jsonRequest(t, http.MethodPost, "/", dto.RegisterRequest{
		Username:     "taken",
		Password:     "password123",
		MerchantName: "Shop",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_002")
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "coffeecorner", "password123").Return("jwt-token-123", expiry, nil)

	w, c := jsonRequest(t, http.MethodPost, "/", dto.LoginRequest{
		Username: "coffeecorner",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "bad", "badpassword").Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w, c := jsonRequest(t, http.MethodPost, "/", dto.LoginRequest{
		Username: "bad",
		Password: "badpassword",
	})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Wallet Handler Tests ---

type walletMocks struct {
	transfer *mocks.MockTransferService
	ledger   *mocks.MockLedger
	codec    *mocks.MockRequestCodec
	links    *mocks.MockLinkRegistry
}

func newWalletHandler(ctrl *gomock.Controller) (*WalletHandler, walletMocks) {
	m := walletMocks{
		transfer: mocks.NewMockTransferService(ctrl),
		ledger:   mocks.NewMockLedger(ctrl),
		codec:    mocks.NewMockRequestCodec(ctrl),
		links:    mocks.NewMockLinkRegistry(ctrl),
	}
	return NewWalletHandler(m.transfer, m.ledger, m.codec, m.links, testOwner), m
}

func TestGetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)
	m.ledger.EXPECT().Balance().Return(decimal.RequireFromString("74.92"))

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/balance", nil)
	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "74.92", data["balance"])
	assert.Equal(t, "USDC", data["asset"])
}

func TestListTransactions_Paging(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	page := []domain.Transaction{
		{ID: uuid.New(), Seq: 5, Direction: domain.DirectionReceived, Amount: decimal.RequireFromString("10"), Status: domain.TransactionStatusConfirmed, Timestamp: time.Now()},
		{ID: uuid.New(), Seq: 3, Direction: domain.DirectionSent, Amount: decimal.RequireFromString("-4.50"), Fee: decimal.RequireFromString("0.01"), Status: domain.TransactionStatusConfirmed, Timestamp: time.Now()},
	}
	m.ledger.EXPECT().History(gomock.Any(), 2, uint64(0)).Return(page, nil)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/transactions?limit=2", nil)
	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	// A full page points at the last seq for the next request.
	assert.Equal(t, float64(3), data["next_cursor"])
	first := items[0].(map[string]interface{})
	assert.Equal(t, "RECEIVED", first["direction"])
	assert.Equal(t, "10", first["amount"])
}

func TestListTransactions_PartialPageEndsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)
	m.ledger.EXPECT().History(gomock.Any(), 20, uint64(3)).Return([]domain.Transaction{
		{ID: uuid.New(), Seq: 1, Direction: domain.DirectionReceived, Amount: decimal.RequireFromString("1"), Status: domain.TransactionStatusConfirmed, Timestamp: time.Now()},
	}, nil)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/transactions?cursor=3", nil)
	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, float64(0), data["next_cursor"])
}

func TestListTransactions_BadLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newWalletHandler(ctrl)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/transactions?limit=zero", nil)
	h.ListTransactions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_005")
}

func TestSend_FromPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	amount := decimal.RequireFromString("25.00")
	decoded := domain.PaymentRequest{
		RecipientAddress: "9aBcDeFgHiJk",
		Amount:           &amount,
		Label:            "Coffee Corner",
		AssetSymbol:      domain.AssetSymbol,
	}
	m.codec.EXPECT().ParseShareURL(gomock.Any()).Return("", false)
	m.codec.EXPECT().Decode("pay:9aBcDeFgHiJk?amount=25.00&label=Coffee%20Corner").Return(decoded, nil)

	confirmed := &domain.Transaction{
		ID:           uuid.New(),
		Seq:          2,
		Direction:    domain.DirectionSent,
		Counterparty: "Coffee Corner",
		Amount:       amount.Neg(),
		Fee:          decimal.RequireFromString("0.08"),
		Status:       domain.TransactionStatusConfirmed,
		Timestamp:    time.Now(),
	}
	m.transfer.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, input ports.TransferInput) (*domain.Transaction, error) {
			assert.True(t, decoded.Equal(input.Request))
			assert.Nil(t, input.Amount)
			assert.Nil(t, input.LinkID)
			return confirmed, nil
		})

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/send", dto.SendRequest{
		Payload: "pay:9aBcDeFgHiJk?amount=25.00&label=Coffee%20Corner",
	})
	h.Send(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "CONFIRMED", data["status"])
	assert.Equal(t, "-25", data["amount"])
	assert.Equal(t, "0.08", data["fee"])
}

func TestSend_DirectRecipientWithAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	m.transfer.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, input ports.TransferInput) (*domain.Transaction, error) {
			assert.Equal(t, "9aBcDeFgHiJk", input.Request.RecipientAddress)
			assert.False(t, input.Request.HasAmount())
			require.NotNil(t, input.Amount)
			assert.True(t, input.Amount.Equal(decimal.RequireFromString("4.50")))
			return &domain.Transaction{
				ID:        uuid.New(),
				Direction: domain.DirectionSent,
				Amount:    decimal.RequireFromString("-4.50"),
				Fee:       decimal.RequireFromString("0.01"),
				Status:    domain.TransactionStatusConfirmed,
				Timestamp: time.Now(),
			}, nil
		})

	amount := "4.50"
	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/send", dto.SendRequest{
		Recipient: "9aBcDeFgHiJk",
		Amount:    &amount,
	})
	h.Send(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSend_MissingTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newWalletHandler(ctrl)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/send", dto.SendRequest{})
	h.Send(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_005")
}

func TestSend_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	amount := decimal.RequireFromString("99.99")
	m.codec.EXPECT().ParseShareURL(gomock.Any()).Return("", false)
	m.codec.EXPECT().Decode(gomock.Any()).Return(domain.PaymentRequest{
		RecipientAddress: "9aBcDeFgHiJk",
		Amount:           &amount,
		AssetSymbol:      domain.AssetSymbol,
	}, nil)
	m.transfer.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/send", dto.SendRequest{
		Payload: "pay:9aBcDeFgHiJk?amount=99.99",
	})
	h.Send(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_003")
}

func TestScan_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	amount := decimal.RequireFromString("15.50")
	decoded := domain.PaymentRequest{
		RecipientAddress: "9aBcDeFgHiJk",
		Amount:           &amount,
		Label:            "Lunch",
		AssetSymbol:      domain.AssetSymbol,
	}
	m.codec.EXPECT().ParseShareURL(gomock.Any()).Return("", false)
	m.codec.EXPECT().Decode("pay:9aBcDeFgHiJk?amount=15.50&label=Lunch").Return(decoded, nil)
	m.codec.EXPECT().Encode(decoded).Return("pay:9aBcDeFgHiJk?amount=15.50&label=Lunch")

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/scan", dto.ScanRequest{
		Payload: "pay:9aBcDeFgHiJk?amount=15.50&label=Lunch",
	})
	h.Scan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "9aBcDeFgHiJk", data["recipient"])
	assert.Equal(t, "15.5", data["amount"])
	assert.Equal(t, "Lunch", data["label"])
	assert.Equal(t, "USDC", data["asset"])
}

func TestScan_MalformedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)
	m.codec.EXPECT().ParseShareURL(gomock.Any()).Return("", false)
	m.codec.EXPECT().Decode("bitcoin:whatever").Return(domain.PaymentRequest{}, apperror.ErrMalformedPayload())

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/scan", dto.ScanRequest{Payload: "bitcoin:whatever"})
	h.Scan(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DEC_001")
}

func TestScan_ShareURLResolvesLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	fixed := decimal.RequireFromString("4.50")
	link := &domain.PaymentLink{
		ID:          uuid.New(),
		Name:        "Coffee Menu",
		Slug:        "coffee-menu",
		FixedAmount: &fixed,
		Active:      true,
	}
	m.codec.EXPECT().ParseShareURL("https://pay.silverhand.io/coffee-menu").Return("coffee-menu", true)
	m.links.EXPECT().GetBySlug(gomock.Any(), "coffee-menu").Return(link, nil)
	m.codec.EXPECT().Encode(gomock.Any()).DoAndReturn(func(req domain.PaymentRequest) string {
		assert.Equal(t, testWalletAddr, req.RecipientAddress)
		require.NotNil(t, req.Amount)
		assert.True(t, req.Amount.Equal(fixed))
		return "pay:" + testWalletAddr + "?amount=4.50&label=Coffee%20Menu"
	})

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/scan", dto.ScanRequest{
		Payload: "https://pay.silverhand.io/coffee-menu",
	})
	h.Scan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, testWalletAddr, data["recipient"])
	assert.Equal(t, "4.5", data["amount"])
	assert.Equal(t, "Coffee Menu", data["label"])
	assert.Equal(t, link.ID.String(), data["link_id"])
}

func TestScan_ShareURLInactiveLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	m.codec.EXPECT().ParseShareURL("https://pay.silverhand.io/coffee-menu").Return("coffee-menu", true)
	m.links.EXPECT().GetBySlug(gomock.Any(), "coffee-menu").Return(&domain.PaymentLink{
		ID:   uuid.New(),
		Name: "Coffee Menu",
		Slug: "coffee-menu",
	}, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/scan", dto.ScanRequest{
		Payload: "https://pay.silverhand.io/coffee-menu",
	})
	h.Scan(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LNK_002")
}

func TestSend_ShareURLAttachesLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)

	fixed := decimal.RequireFromString("4.50")
	link := &domain.PaymentLink{
		ID:          uuid.New(),
		Name:        "Coffee Menu",
		Slug:        "coffee-menu",
		FixedAmount: &fixed,
		Active:      true,
	}
	m.codec.EXPECT().ParseShareURL("https://pay.silverhand.io/coffee-menu").Return("coffee-menu", true)
	m.links.EXPECT().GetBySlug(gomock.Any(), "coffee-menu").Return(link, nil)

	m.transfer.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, input ports.TransferInput) (*domain.Transaction, error) {
			assert.Equal(t, testWalletAddr, input.Request.RecipientAddress)
			require.NotNil(t, input.LinkID)
			assert.Equal(t, link.ID, *input.LinkID)
			return &domain.Transaction{
				ID:        uuid.New(),
				Direction: domain.DirectionSent,
				Amount:    fixed.Neg(),
				Fee:       decimal.RequireFromString("0.01"),
				Status:    domain.TransactionStatusConfirmed,
				LinkID:    &link.ID,
				Timestamp: time.Now(),
			}, nil
		})

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/send", dto.SendRequest{
		Payload: "https://pay.silverhand.io/coffee-menu",
	})
	h.Send(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, link.ID.String(), data["link_id"])
}

func TestReceive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)
	m.codec.EXPECT().Encode(gomock.Any()).DoAndReturn(func(req domain.PaymentRequest) string {
		assert.Equal(t, testWalletAddr, req.RecipientAddress)
		require.NotNil(t, req.Amount)
		assert.True(t, req.Amount.Equal(decimal.RequireFromString("4.50")))
		assert.Equal(t, "Latte", req.Label)
		return "pay:" + testWalletAddr + "?amount=4.50&label=Latte"
	})

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/receive?amount=4.50&label=Latte", nil)
	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, testWalletAddr, data["recipient"])
	assert.Contains(t, data["uri"], "pay:"+testWalletAddr)
}

func TestReceive_OpenAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newWalletHandler(ctrl)
	m.codec.EXPECT().Encode(gomock.Any()).Return("pay:" + testWalletAddr)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/receive", nil)
	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	_, hasAmount := data["amount"]
	assert.False(t, hasAmount)
}

func TestReceive_BadAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newWalletHandler(ctrl)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/receive?amount=-3", nil)
	h.Receive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

// --- Link Handler Tests ---

type linkMocks struct {
	links *mocks.MockLinkRegistry
	codec *mocks.MockRequestCodec
}

func newLinkHandler(ctrl *gomock.Controller) (*LinkHandler, linkMocks) {
	m := linkMocks{
		links: mocks.NewMockLinkRegistry(ctrl),
		codec: mocks.NewMockRequestCodec(ctrl),
	}
	return NewLinkHandler(m.links, m.codec, testOwner), m
}

func sampleLink(merchantID uuid.UUID, amount *decimal.Decimal) *domain.PaymentLink {
	return &domain.PaymentLink{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Name:        "Coffee Menu",
		Slug:        "coffee-menu",
		FixedAmount: amount,
		Active:      true,
		UseCount:    3,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestCreateLink_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newLinkHandler(ctrl)
	merchantID := uuid.New()

	amount := decimal.RequireFromString("4.50")
	link := sampleLink(merchantID, &amount)
	m.links.EXPECT().Create(gomock.Any(), merchantID, "Coffee Menu", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, _ string, fixed *decimal.Decimal) (*domain.PaymentLink, error) {
			require.NotNil(t, fixed)
			assert.True(t, fixed.Equal(amount))
			return link, nil
		})
	m.codec.EXPECT().ShareURL(link).Return("https://pay.silverhand.io/l/coffee-menu")

	fixed := "4.50"
	w, c := jsonRequest(t, http.MethodPost, "/api/v1/links", dto.CreateLinkRequest{
		Name:        "Coffee Menu",
		FixedAmount: &fixed,
	})
	c.Set(middleware.CtxMerchantID, merchantID)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "coffee-menu", data["slug"])
	assert.Equal(t, "4.5", data["fixed_amount"])
	assert.Equal(t, "https://pay.silverhand.io/l/coffee-menu", data["share_url"])
}

func TestCreateLink_DuplicateName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newLinkHandler(ctrl)
	merchantID := uuid.New()

	m.links.EXPECT().Create(gomock.Any(), merchantID, "Coffee Menu", nil).Return(nil, apperror.ErrDuplicateLinkName())

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/links", dto.CreateLinkRequest{Name: "Coffee Menu"})
	c.Set(middleware.CtxMerchantID, merchantID)
	h.Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LNK_001")
}

func TestCreateLink_NoAuthContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _ := newLinkHandler(ctrl)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/links", dto.CreateLinkRequest{Name: "Coffee Menu"})
	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLink_ForeignLinkHidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newLinkHandler(ctrl)
	owner := uuid.New()
	intruder := uuid.New()

	link := sampleLink(owner, nil)
	m.links.EXPECT().Get(gomock.Any(), link.ID).Return(link, nil)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/links/"+link.ID.String(), nil)
	c.Set(middleware.CtxMerchantID, intruder)
	c.Params = gin.Params{{Key: "id", Value: link.ID.String()}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetLinkActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newLinkHandler(ctrl)
	merchantID := uuid.New()

	link := sampleLink(merchantID, nil)
	deactivated := *link
	deactivated.Active = false

	m.links.EXPECT().Get(gomock.Any(), link.ID).Return(link, nil)
	m.links.EXPECT().SetActive(gomock.Any(), link.ID, false).Return(nil)
	m.links.EXPECT().Get(gomock.Any(), link.ID).Return(&deactivated, nil)
	m.codec.EXPECT().ShareURL(&deactivated).Return("https://pay.silverhand.io/l/coffee-menu")

	active := false
	w, c := jsonRequest(t, http.MethodPatch, "/api/v1/links/"+link.ID.String()+"/active", dto.SetLinkActiveRequest{Active: &active})
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: link.ID.String()}}
	h.SetActive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, false, data["active"])
}

func TestShareLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, m := newLinkHandler(ctrl)
	merchantID := uuid.New()

	amount := decimal.RequireFromString("4.50")
	link := sampleLink(merchantID, &amount)
	m.links.EXPECT().Get(gomock.Any(), link.ID).Return(link, nil)
	m.codec.EXPECT().ShareURL(link).Return("https://pay.silverhand.io/l/coffee-menu")
	m.codec.EXPECT().Encode(gomock.Any()).DoAndReturn(func(req domain.PaymentRequest) string {
		assert.Equal(t, testWalletAddr, req.RecipientAddress)
		assert.Equal(t, "Coffee Menu", req.Label)
		require.NotNil(t, req.Amount)
		return "pay:" + testWalletAddr + "?amount=4.50&label=Coffee%20Menu"
	})

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/links/"+link.ID.String()+"/share", nil)
	c.Set(middleware.CtxMerchantID, merchantID)
	c.Params = gin.Params{{Key: "id", Value: link.ID.String()}}
	h.Share(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "https://pay.silverhand.io/l/coffee-menu", data["share_url"])
	assert.Contains(t, data["uri"], "pay:"+testWalletAddr)
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	healthy := mocks.NewMockHealthChecker(ctrl)
	healthy.EXPECT().Ping(gomock.Any()).Return(nil)
	healthy.EXPECT().Name().Return("postgresql")

	broken := mocks.NewMockHealthChecker(ctrl)
	broken.EXPECT().Ping(gomock.Any()).Return(assert.AnError)
	broken.EXPECT().Name().Return("redis")

	w, c := jsonRequest(t, http.MethodGet, "/health", nil)
	HealthCheck(healthy, broken)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
