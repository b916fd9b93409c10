package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "silverhand-wallet/internal/adapter/http/handler"
	"silverhand-wallet/internal/adapter/signer"
	"silverhand-wallet/internal/adapter/storage/memory"
	redisStorage "silverhand-wallet/internal/adapter/storage/redis"
	"silverhand-wallet/internal/adapter/submitter"
	"silverhand-wallet/internal/core/domain"
	"silverhand-wallet/internal/core/ports"
	"silverhand-wallet/internal/service"
	"silverhand-wallet/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletAddr = "7xKpQw9f3mVq"

// testApp wires the full stack end-to-end: real services and HTTP layer,
// in-memory repos, miniredis for receipt dedupe, local signer and loopback
// settlement.
type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	ledger ports.Ledger
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	receiptStore := redisStorage.NewReceiptStore(rdb)

	txRepo := memory.NewTransactionRepo()
	linkRepo := memory.NewLinkRepo()
	merchantRepo := memory.NewMerchantRepo()

	log := logger.New("debug", false)

	feeSvc := service.NewFeeService(
		decimal.RequireFromString("0.003"),
		decimal.RequireFromString("0.0025"),
	)
	codecSvc := service.NewCodecService("pay", "pay.silverhand.io")
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	ledgerSvc, err := service.NewLedgerService(context.Background(), txRepo, walletAddr, log)
	require.NoError(t, err)
	linkSvc := service.NewLinkService(linkRepo, codecSvc, log)
	authSvc := service.NewAuthService(merchantRepo, hashSvc, tokenSvc, log)

	transferSvc := service.NewTransferService(
		walletAddr,
		feeSvc,
		ledgerSvc,
		linkSvc,
		signer.NewLocal("test-signing-key"),
		submitter.NewLoopback(),
		receiptStore,
		log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TransferSvc:    transferSvc,
		Ledger:         ledgerSvc,
		LinkSvc:        linkSvc,
		Codec:          codecSvc,
		TokenSvc:       tokenSvc,
		Owner:          domain.Wallet{Address: walletAddr, Label: "SilverHand"},
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, redis: mr, ledger: ledgerSvc}
}

// fund credits the wallet with a confirmed incoming transaction so the
// balance projection has something to spend.
func (a *testApp) fund(t *testing.T, amount string) {
	t.Helper()
	err := a.ledger.Append(context.Background(), &domain.Transaction{
		ID:            uuid.New(),
		WalletAddress: walletAddr,
		Direction:     domain.DirectionReceived,
		Counterparty:  "faucet",
		Amount:        decimal.RequireFromString(amount),
		Fee:           decimal.Zero,
		Status:        domain.TransactionStatusConfirmed,
		Timestamp:     time.Now(),
	})
	require.NoError(t, err)
}

func (a *testApp) register(t *testing.T, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username":      username,
		"password":      "StrongPass123!",
		"merchant_name": "Coffee Corner",
	})
	resp, err := http.Post(a.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	loginBody, _ := json.Marshal(map[string]string{
		"username": username,
		"password": "StrongPass123!",
	})
	resp, err = http.Post(a.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	token := login["data"].(map[string]interface{})["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_UnauthenticatedRejected(t *testing.T) {
	app := newTestApp(t)

	code, _ := app.do(t, http.MethodGet, "/api/v1/wallet/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_ScanAndSendFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "merchant1")
	app.fund(t, "100.00")

	// Scan a counterparty's request
	payload := "pay:9aBcDeFgHiJk?amount=25.00&label=Coffee%20Corner"
	code, body := app.do(t, http.MethodPost, "/api/v1/wallet/scan", token, map[string]string{"payload": payload})
	require.Equal(t, http.StatusOK, code)
	scanned := data(t, body)
	assert.Equal(t, "9aBcDeFgHiJk", scanned["recipient"])
	assert.Equal(t, "25", scanned["amount"])
	assert.Equal(t, "Coffee Corner", scanned["label"])

	// Send against the scanned payload
	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/send", token, map[string]string{"payload": payload})
	require.Equal(t, http.StatusCreated, code)
	tx := data(t, body)
	assert.Equal(t, "CONFIRMED", tx["status"])
	assert.Equal(t, "-25", tx["amount"])
	assert.Equal(t, "0.08", tx["fee"])

	// Balance reflects amount plus fee
	code, body = app.do(t, http.MethodGet, "/api/v1/wallet/balance", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "74.92", data(t, body)["balance"])

	// History: send first (newest), then the funding credit
	code, body = app.do(t, http.MethodGet, "/api/v1/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, code)
	items := data(t, body)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "SENT", items[0].(map[string]interface{})["direction"])
	assert.Equal(t, "RECEIVED", items[1].(map[string]interface{})["direction"])
}

func TestIntegration_InsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "merchant1")
	app.fund(t, "10.00")

	code, body := app.do(t, http.MethodPost, "/api/v1/wallet/send", token, map[string]string{
		"payload": "pay:9aBcDeFgHiJk?amount=25.00",
	})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "VAL_003", body["error_code"])
}

func TestIntegration_ReceiveEncodesOwnAddress(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "merchant1")

	code, body := app.do(t, http.MethodGet, "/api/v1/wallet/receive?amount=4.50&label=Latte", token, nil)
	require.Equal(t, http.StatusOK, code)
	d := data(t, body)
	assert.Equal(t, walletAddr, d["recipient"])
	assert.Contains(t, d["uri"], "pay:"+walletAddr)

	// The emitted URI scans back to the same request
	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/scan", token, map[string]string{"payload": d["uri"].(string)})
	require.Equal(t, http.StatusOK, code)
	scanned := data(t, body)
	assert.Equal(t, walletAddr, scanned["recipient"])
	assert.Equal(t, "4.5", scanned["amount"])
	assert.Equal(t, "Latte", scanned["label"])
}

func TestIntegration_PaymentLinkLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "merchant1")
	app.fund(t, "50.00")

	// Create a fixed-amount link
	code, body := app.do(t, http.MethodPost, "/api/v1/links", token, map[string]interface{}{
		"name":         "Coffee Menu",
		"fixed_amount": "4.50",
	})
	require.Equal(t, http.StatusCreated, code)
	link := data(t, body)
	linkID := link["id"].(string)
	assert.Equal(t, "coffee-menu", link["slug"])
	assert.Equal(t, true, link["active"])
	assert.Contains(t, link["share_url"], "coffee-menu")

	// Duplicate name (case and spacing variants collapse)
	code, body = app.do(t, http.MethodPost, "/api/v1/links", token, map[string]interface{}{
		"name": "  coffee   MENU ",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "LNK_001", body["error_code"])

	// Share gives back a scannable payload and a shareable link
	code, body = app.do(t, http.MethodGet, "/api/v1/links/"+linkID+"/share", token, nil)
	require.Equal(t, http.StatusOK, code)
	uri := data(t, body)["uri"].(string)
	shareURL := data(t, body)["share_url"].(string)

	// Scanning the share link resolves it back to the payment request
	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/scan", token, map[string]string{
		"payload": shareURL,
	})
	require.Equal(t, http.StatusOK, code)
	resolved := data(t, body)
	assert.Equal(t, walletAddr, resolved["recipient"])
	assert.Equal(t, "4.5", resolved["amount"])
	assert.Equal(t, linkID, resolved["link_id"])

	// Pay the link
	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/send", token, map[string]string{
		"payload": uri,
		"link_id": linkID,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "CONFIRMED", data(t, body)["status"])

	// Paying via the share link attributes the use without an explicit id
	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/send", token, map[string]string{
		"payload": shareURL,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, linkID, data(t, body)["link_id"])

	// Both payments counted
	code, body = app.do(t, http.MethodGet, "/api/v1/links/"+linkID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), data(t, body)["use_count"])

	// Deactivate, then paying it is rejected
	code, body = app.do(t, http.MethodPatch, "/api/v1/links/"+linkID+"/active", token, map[string]interface{}{
		"active": false,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, data(t, body)["active"])

	code, body = app.do(t, http.MethodPost, "/api/v1/wallet/send", token, map[string]string{
		"payload": uri,
		"link_id": linkID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "LNK_002", body["error_code"])
}

func TestIntegration_MetricsExposed(t *testing.T) {
	app := newTestApp(t)

	// Generate one request so counters have something to say
	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(app.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "silverhand_http_requests_total")
}

func TestIntegration_HistoryPaging(t *testing.T) {
	app := newTestApp(t)
	token := app.register(t, "merchant1")
	for i := 0; i < 5; i++ {
		app.fund(t, fmt.Sprintf("%d.00", i+1))
	}

	code, body := app.do(t, http.MethodGet, "/api/v1/wallet/transactions?limit=2", token, nil)
	require.Equal(t, http.StatusOK, code)
	d := data(t, body)
	require.Len(t, d["items"].([]interface{}), 2)
	cursor := d["next_cursor"].(float64)
	require.NotZero(t, cursor)

	code, body = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/wallet/transactions?limit=2&cursor=%d", int(cursor)), token, nil)
	require.Equal(t, http.StatusOK, code)
	d = data(t, body)
	require.Len(t, d["items"].([]interface{}), 2)
	assert.NotEqual(t, cursor, d["next_cursor"])
}
