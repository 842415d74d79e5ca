package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/database"
	"github.com/tipflow/tip-backend/middlewares"
	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret     = "integration-secret"
	testWebhookSecret = "whsec-integration"
)

func TestMain(m *testing.M) {
	utils.InitLogger("warn", "text")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeChapa struct {
	*httptest.Server
	lastTxRef string
}

func newFakeChapa(t *testing.T) *fakeChapa {
	f := &fakeChapa{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/transaction/initialize":
			f.lastTxRef, _ = body["tx_ref"].(string)
			if body["amount"] == "0.50" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"The amount must be at least 1.","status":"failed","data":null}`))
				return
			}
			w.Write([]byte(`{"message":"Hosted Link","status":"success","data":{"checkout_url":"https://checkout.chapa.co/checkout/payment/` + f.lastTxRef + `"}}`))
		case "/subaccount":
			if body["account_number"] == "bad" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"The account number is not valid for bank name","status":"failed","data":null}`))
				return
			}
			w.Write([]byte(`{"message":"Subaccount created successfully","status":"success","data":{"subaccount_id":"sub-new"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig(chapaURL string) *config.Config {
	return &config.Config{
		Port:      "0",
		JWTSecret: []byte(testJWTSecret),
		Database:  config.DatabaseConfig{Driver: "sqlite"},
		Chapa: config.ChapaConfig{
			SecretKey:     "CHASECK_TEST-integration",
			BaseURL:       chapaURL,
			WebhookSecret: testWebhookSecret,
			Timeout:       2 * time.Second,
			SplitValue:    decimal.RequireFromString("0.05"),
			SplitType:     "percentage",
			Currency:      "ETB",
		},
		RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100},
	}
}

func newTestApp(t *testing.T) (*app, *gorm.DB, *database.SeedResult) {
	chapa := newFakeChapa(t)
	db := setupTestDB(t)
	seeded, err := database.Seed(db, database.SeedOptions{TipCode: "TIP001", SubAccount: "sub-123"})
	require.NoError(t, err)

	cfg := testConfig(chapa.URL)
	gw, err := newGateway(cfg.Chapa)
	require.NoError(t, err)
	a, err := buildApp(context.Background(), cfg, db, gw)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, db, seeded
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signed(body string) map[string]string {
	return map[string]string{"Chapa-Signature": middlewares.Sign(testWebhookSecret, []byte(body))}
}

func initiateTip(t *testing.T, h http.Handler, amount string) string {
	w := do(h, http.MethodGet, "/tip/TIP001?amount="+amount, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			CheckoutURL string `json:"checkout_url"`
			TxRef       string `json:"tx_ref"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.TxRef)
	assert.Contains(t, resp.Data.CheckoutURL, resp.Data.TxRef)
	return resp.Data.TxRef
}

func count(db *gorm.DB, model interface{}) int64 {
	var n int64
	db.Model(model).Count(&n)
	return n
}

func TestTipFlow_EndToEnd(t *testing.T) {
	a, db, _ := newTestApp(t)
	h := a.engine

	txRef := initiateTip(t, h, "100.00")
	assert.EqualValues(t, 1, count(db, &models.Tip{}))

	body := `{"tx_ref":"` + txRef + `","amount":"100.00","charge":"2.00","status":"success"}`
	w := do(h, http.MethodPost, "/verify-payment", body, signed(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Payment applied")

	var payment models.Payment
	require.NoError(t, db.First(&payment).Error)
	assert.Equal(t, "93.00", payment.Amount.StringFixed(2))
	assert.Equal(t, "5.00", payment.ServiceFee.StringFixed(2))
	assert.Equal(t, "2.00", payment.ChapaFee.StringFixed(2))

	// replay
	w = do(h, http.MethodPost, "/verify-payment", body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Payment already applied")
	assert.EqualValues(t, 1, count(db, &models.Payment{}))

	var tip models.Tip
	require.NoError(t, db.First(&tip).Error)
	assert.Equal(t, models.StatusCompleted, tip.Status)

	var outcomes []string
	db.Model(&models.WebhookEvent{}).Order("id").Pluck("outcome", &outcomes)
	assert.Equal(t, []string{models.WebhookOutcomeApplied, models.WebhookOutcomeDuplicate}, outcomes)

	w = do(h, http.MethodGet, "/health/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"confirmations_applied":1`)
	assert.Contains(t, w.Body.String(), `"duplicate_confirmations":1`)
}

func TestTipFlow_InitiationErrors(t *testing.T) {
	a, db, _ := newTestApp(t)
	h := a.engine

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown tip code", "/tip/NOPE?amount=10", http.StatusNotFound},
		{"missing amount", "/tip/TIP001", http.StatusUnprocessableEntity},
		{"non numeric amount", "/tip/TIP001?amount=ten", http.StatusUnprocessableEntity},
		{"too many decimals", "/tip/TIP001?amount=1.001", http.StatusUnprocessableEntity},
		{"gateway user error", "/tip/TIP001?amount=0.50", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Zero(t, count(db, &models.Tip{}))

	w := do(h, http.MethodGet, "/tip/TIP001?amount=0.50", "", nil)
	assert.Contains(t, w.Body.String(), "The amount must be at least 1.")
}

func TestTipFlow_NoPayoutAccount(t *testing.T) {
	a, db, _ := newTestApp(t)
	_, err := database.Seed(db, database.SeedOptions{TipCode: "TIP002"})
	require.NoError(t, err)

	w := do(a.engine, http.MethodGet, "/tip/TIP002?amount=10", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, count(db, &models.Tip{}))
}

func TestTipFlow_WebhookRejections(t *testing.T) {
	a, db, _ := newTestApp(t)
	h := a.engine
	txRef := initiateTip(t, h, "50")

	unknown := `{"tx_ref":"never-issued","amount":"50","charge":"1"}`
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/verify-payment", unknown, signed(unknown)).Code)

	for _, body := range []string{
		`{"tx_ref":"` + txRef + `","amount":"abc","charge":"1"}`,
		`{"tx_ref":"` + txRef + `","charge":"1"}`,
		`{"tx_ref":"","amount":"50","charge":"1"}`,
		`{"tx_ref":"` + txRef + `","amount":"50","charge":"-1"}`,
		`{"tx_ref":"` + txRef + `","amount":"49","charge":"1"}`,
		`not json`,
	} {
		w := do(h, http.MethodPost, "/verify-payment", body, signed(body))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
	}

	failed := `{"tx_ref":"` + txRef + `","amount":"50","charge":"1","status":"failed"}`
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/verify-payment", failed, signed(failed)).Code)

	good := `{"tx_ref":"` + txRef + `","amount":50,"charge":1.75}`
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/verify-payment", good, signed(good+" ")).Code)

	assert.Zero(t, count(db, &models.Payment{}))

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/verify-payment", good, signed(good)).Code)
	assert.EqualValues(t, 1, count(db, &models.Payment{}))
}

func TestTipFlow_BankAccountRegistration(t *testing.T) {
	a, db, _ := newTestApp(t)
	h := a.engine
	other, err := database.Seed(db, database.SeedOptions{TipCode: "TIP002"})
	require.NoError(t, err)

	token, err := utils.GenerateToken([]byte(testJWTSecret), other.EmployeeID, utils.RoleEmployee, time.Hour)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	body := `{"account_name":"Abebe","account_number":"bad","bank_code":"946"}`
	w := do(h, http.MethodPost, "/employee/bank-account", body, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "The account number is not valid for bank name")

	body = `{"account_name":"Abebe","account_number":"0123456789","bank_code":"946"}`
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/employee/bank-account", body, nil).Code)

	w = do(h, http.MethodPost, "/employee/bank-account", body, auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/employee/bank-account", body, auth).Code)

	// the new account is usable straight away
	w = do(h, http.MethodGet, "/tip/TIP002?amount=20", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestTipFlow_LiveFeed(t *testing.T) {
	a, _, seeded := newTestApp(t)
	srv := httptest.NewServer(a.engine)
	defer srv.Close()

	token, err := utils.GenerateToken([]byte(testJWTSecret), seeded.ServiceProviderID, utils.RoleProvider, time.Hour)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tips?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return a.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	txRef := initiateTip(t, a.engine, "100")
	body := `{"tx_ref":"` + txRef + `","amount":"100","charge":"2"}`
	require.Equal(t, http.StatusOK, do(a.engine, http.MethodPost, "/verify-payment", body, signed(body)).Code)

	var msg struct {
		Event string `json:"event"`
		Data  struct {
			TxRef   string `json:"tx_ref"`
			Display string `json:"display"`
		} `json:"data"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tip_completed", msg.Event)
	assert.Equal(t, txRef, msg.Data.TxRef)
	assert.Equal(t, "ETB 100.00", msg.Data.Display)
}

func TestPing(t *testing.T) {
	a, _, _ := newTestApp(t)
	w := do(a.engine, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
