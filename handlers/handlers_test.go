package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"finzora/api/advisor"
	"finzora/api/auth"
	"finzora/api/categorizer"
	"finzora/api/middleware"
	"finzora/api/receipt"
	"finzora/api/sse"
	"finzora/api/store"
	"finzora/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStocks struct {
	prices map[string]float64
}

func (f *fakeStocks) GetLivePrice(_ context.Context, symbol string) (float64, error) {
	if p, ok := f.prices[symbol]; ok {
		return p, nil
	}
	return 0, errors.New("no price")
}

func (f *fakeStocks) GetBatchPrices(_ context.Context, symbols []string) map[string]float64 {
	out := map[string]float64{}
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = p
		}
	}
	return out
}

type fakeCrypto struct {
	prices map[string]float64
	err    error
}

func (f *fakeCrypto) Resolve(_ context.Context, symbol string) (string, float64, error) {
	id := symbol
	if symbol == "btc" {
		id = "bitcoin"
	}
	if p, ok := f.prices[id]; ok {
		return id, p, nil
	}
	return "", 0, errors.New("no price")
}

func (f *fakeCrypto) GetPrices(_ context.Context, ids []string) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]float64{}
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(context.Context, string, string) (string, error) {
	return f.reply, f.err
}

type captureSender struct{ code string }

func (c *captureSender) SendOTP(_ context.Context, _, code string) error {
	c.code = code
	return nil
}

type testServer struct {
	router *gin.Engine
	h      *Handler
	stocks *fakeStocks
	sender *captureSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.New(store.NewFileBackend(filepath.Join(t.TempDir(), "store.json")))
	stocks := &fakeStocks{prices: map[string]float64{"AAPL": 152.50}}
	sender := &captureSender{}
	tokens := auth.NewTokens("test-secret", "default_user")

	h := &Handler{
		Store:       st,
		Categorizer: categorizer.New(nil),
		Stocks:      stocks,
		Crypto:      &fakeCrypto{prices: map[string]float64{"bitcoin": 5000000}},
		Advisor:     advisor.New(&fakeProvider{reply: "Spend less on food."}),
		Scanner:     receipt.NewScanner(nil),
		Auth:        auth.NewService(st, sender, tokens),
		Hub:         sse.NewHub(),
	}
	router := NewRouter(h, RouterOptions{
		Auth: middleware.Auth(tokens, false, "default_user"),
	})
	return &testServer{router: router, h: h, stocks: stocks, sender: sender}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Backend is running", body["message"])
	assert.Equal(t, true, body["api_key_configured"])
	assert.Equal(t, "file", body["storage"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint not found", body["message"])
}

func TestExpenseAddIsCategorized(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 500, "merchant": "McDonald's"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Food", body["category"])
	assert.NotEmpty(t, body["expense_id"])

	_, list := s.do(t, http.MethodGet, "/api/expense/list?category=Food", nil)
	assert.Len(t, list["data"], 1)

	_, stats := s.do(t, http.MethodGet, "/api/expense/statistics", nil)
	data := stats["data"].(map[string]any)
	assert.Equal(t, 500.0, data["total"])
	assert.Equal(t, 1.0, data["count"])
}

func TestExpenseCategoryMustBeKnown(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 500, "merchant": "McDonald's", "category": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unknown category: Bogus", body["message"])

	_, list := s.do(t, http.MethodGet, "/api/expense/list", nil)
	assert.Empty(t, list["data"])

	w, body = s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 120, "merchant": "Corner Store", "category": "shopping"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Shopping", body["category"])
}

func TestIncomeListNewestFirstWithDayFirstDates(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/income/add", map[string]any{"amount": 100, "source": "old", "date": "2024-01-01"})
	s.do(t, http.MethodPost, "/api/income/add", map[string]any{"amount": 200, "source": "newest", "date": "15/03/2025"})

	_, list := s.do(t, http.MethodGet, "/api/income/list", nil)
	items := list["data"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "newest", first["source"])
	assert.Equal(t, "2025-03-15", first["date"])
}

func TestTransactionValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		path string
		body map[string]any
		msg  string
	}{
		{"/api/expense/add", map[string]any{"amount": -5, "merchant": "Uber"}, "Expense amount must be greater than zero"},
		{"/api/expense/add", map[string]any{"amount": "abc", "merchant": "Uber"}, "Expense amount must be a valid number"},
		{"/api/expense/add", map[string]any{"amount": 20000000, "merchant": "Uber"}, "Expense amount exceeds maximum limit"},
		{"/api/expense/add", map[string]any{"amount": 10}, "Expense merchant is required"},
		{"/api/income/add", map[string]any{"source": "Salary"}, "Income amount is required"},
	}
	for _, tc := range cases {
		w, body := s.do(t, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.msg)
		assert.Equal(t, tc.msg, body["message"])
		assert.Equal(t, false, body["success"])
	}
}

func TestIncomeLifecycle(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/income/add", map[string]any{"amount": "5000", "source": "Salary", "date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Income added successfully", body["message"])
	id := body["income_id"].(string)

	_, list := s.do(t, http.MethodGet, "/api/income/list", nil)
	assert.Len(t, list["data"], 1)

	w, _ = s.do(t, http.MethodDelete, "/api/income/delete/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, list = s.do(t, http.MethodGet, "/api/income/list", nil)
	assert.Empty(t, list["data"])
}

func TestStockLifecycle(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/stock/add", map[string]any{"symbol": "aapl", "quantity": 10, "buy_price": 150.25})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 22.5, body["profit_loss"])
	assert.Equal(t, 152.5, body["current_price"])
	id := body["stock_id"].(string)

	w, body = s.do(t, http.MethodPost, "/api/stock/add", map[string]any{"symbol": "ZZZZ", "quantity": 1, "buy_price": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	_, list := s.do(t, http.MethodGet, "/api/stock/list", nil)
	assert.Equal(t, 22.5, list["total_profit_loss"])
	assert.Equal(t, 1525.0, list["net_worth"])

	s.stocks.prices["AAPL"] = 160
	_, upd := s.do(t, http.MethodPost, "/api/stock/update-prices", nil)
	assert.Equal(t, "Updated 1 stocks with live prices", upd["message"])
	assert.Nil(t, upd["failed_stocks"])
	updated := upd["updated_stocks"].([]any)[0].(map[string]any)
	assert.Equal(t, 97.5, updated["profit_loss"])

	delete(s.stocks.prices, "AAPL")
	_, upd = s.do(t, http.MethodPost, "/api/stock/update-prices", nil)
	require.Len(t, upd["failed_stocks"], 1)
	updated = upd["updated_stocks"].([]any)[0].(map[string]any)
	assert.Equal(t, 150.25, updated["current_price"])
	assert.Equal(t, 0.0, updated["profit_loss"])

	w, body = s.do(t, http.MethodDelete, "/api/stock/delete/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stock deleted successfully", body["message"])
}

func TestDeleteMissingStock(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodDelete, "/api/stock/delete/does-not-exist", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to delete stock", body["message"])
}

func TestCryptoAdd(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/crypto/add", map[string]any{"symbol": "BTC", "quantity": 0.01, "buy_price": 4000000})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "bitcoin", body["coin_id"])
	assert.Equal(t, 5000000.0, body["current_price"])

	w, body = s.do(t, http.MethodPost, "/api/crypto/add", map[string]any{"symbol": "nope", "quantity": 1, "buy_price": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Try using the full name")

	_, list := s.do(t, http.MethodGet, "/api/crypto/list", nil)
	coins := list["data"].([]any)
	require.Len(t, coins, 1)
	assert.Equal(t, "BTC", coins[0].(map[string]any)["symbol"])

	_, upd := s.do(t, http.MethodPost, "/api/crypto/update-prices", nil)
	assert.Equal(t, 1.0, upd["updated"])
}

func TestCryptoUpdatePricesKeepsPricesWhenProviderFails(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/crypto/add", map[string]any{"symbol": "BTC", "quantity": 0.01, "buy_price": 4000000})
	require.Equal(t, http.StatusCreated, w.Code)

	fc := s.h.Crypto.(*fakeCrypto)
	fc.err = errors.New("coingecko rate limit")

	w, body := s.do(t, http.MethodPost, "/api/crypto/update-prices", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 0.0, body["updated"])
	assert.NotEmpty(t, body["warning"])

	_, list := s.do(t, http.MethodGet, "/api/crypto/list", nil)
	coins := list["data"].([]any)
	require.Len(t, coins, 1)
	assert.Equal(t, 5000000.0, coins[0].(map[string]any)["current_price"])
}

func TestBudgets(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/budget/set", map[string]any{"category": "Food"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing category or limit", body["message"])

	w, body = s.do(t, http.MethodPost, "/api/budget/set", map[string]any{"category": "Food", "limit": 1000})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Budget updated", body["message"])
	s.do(t, http.MethodPost, "/api/budget/set", map[string]any{"category": "food", "limit": 400})

	_, list := s.do(t, http.MethodGet, "/api/budget/list", nil)
	assert.Len(t, list["data"], 1)

	s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 500, "merchant": "Swiggy", "date": "2024-03-05"})
	_, status := s.do(t, http.MethodGet, "/api/budget/status?month=2024-03", nil)
	entry := status["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "exceeded", entry["state"])
	assert.Equal(t, 500.0, entry["spent"])
}

func TestAlertsAndToken(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/alerts/add", map[string]any{"symbol": "aapl", "type": "target", "value": 100})
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["alert_id"].(string)

	w, _ = s.do(t, http.MethodPost, "/api/alerts/add", map[string]any{"symbol": "aapl", "type": "moon", "value": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, list := s.do(t, http.MethodGet, "/api/alerts/list", nil)
	alert := list["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "AAPL", alert["symbol"])
	assert.Equal(t, false, alert["triggered"])

	w, _ = s.do(t, http.MethodPost, "/api/notifications/save-token", map[string]any{"token": "fcm-123"})
	assert.Equal(t, http.StatusOK, w.Code)
	users, err := s.h.Store.UsersWithPushTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default_user"}, users)

	w, _ = s.do(t, http.MethodDelete, "/api/alerts/delete/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "advice?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Spend less on food.", body["response"])
	assert.Equal(t, true, body["data_used"])

	w, _ = s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.h.Advisor = advisor.New()
	w, body = s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "hi", "include_context": false})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["fallback"])

	_, prompts := s.do(t, http.MethodGet, "/api/chat/prompts", nil)
	assert.Len(t, prompts["prompts"], 6)
}

func TestCategoriesRoutes(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/categories/rules", map[string]any{"category": "Pets", "keywords": []string{"petsmart"}})
	assert.Equal(t, http.StatusOK, w.Code)

	_, bulk := s.do(t, http.MethodPost, "/api/categories/bulk", map[string]any{"merchants": []string{"PetSmart #12", "Unknown Co"}})
	data := bulk["data"].(map[string]any)
	assert.Equal(t, "Pets", data["PetSmart #12"])
	assert.Equal(t, "Uncategorized", data["Unknown Co"])

	_, cats := s.do(t, http.MethodGet, "/api/categories", nil)
	assert.Contains(t, cats["data"], "Pets")
}

func TestReceiptScanNotConfigured(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/receipt/scan", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := s.do(t, http.MethodPost, "/api/receipt/scan", map[string]any{"image": "aGVsbG8="})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestExpenseReport(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 250, "merchant": "Uber", "date": "2024-03-05"})

	w, _ := s.do(t, http.MethodGet, "/api/expense/report?month=2024-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	_, body := s.do(t, http.MethodGet, "/api/expense/report?month=2024-03&format=json", nil)
	assert.Equal(t, 250.0, body["data"].(map[string]any)["total_expenses"])

	w, _ = s.do(t, http.MethodGet, "/api/expense/report?month=March", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOTPRoutes(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email address", body["message"])

	w, _ = s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]any{"email": "User@Example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.sender.code, 6)

	w, body = s.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]any{"email": "user@example.com", "otp": s.sender.code})
	require.Equal(t, http.StatusOK, w.Code)
	token := body["token"].(string)
	assert.NotEmpty(t, token)

	w, body = s.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]any{"email": "user@example.com", "otp": s.sender.code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No OTP found for this email", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/income/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubscriptionsRoute(t *testing.T) {
	s := newTestServer(t)
	for _, d := range []string{"2024-01-05", "2024-02-04", "2024-03-05", "2024-04-04"} {
		s.do(t, http.MethodPost, "/api/expense/add", map[string]any{"amount": 649, "merchant": "Netflix", "date": d})
	}
	_, body := s.do(t, http.MethodGet, "/api/expense/subscriptions", nil)
	assert.Equal(t, 1.0, body["count"])

	w, _ := s.do(t, http.MethodGet, "/api/expense/subscriptions?min_occurrences=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsWithoutPool(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, http.MethodGet, "/api/notifications/metrics", nil)
	assert.Equal(t, false, body["enabled"])
}

func TestMetricsWithPool(t *testing.T) {
	s := newTestServer(t)
	s.h.Pool = worker.NewWorkerPool(2, s.h.Hub)

	w, body := s.do(t, http.MethodGet, "/api/notifications/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["enabled"])
	data := body["data"].(map[string]any)
	assert.Equal(t, 2.0, data["active_workers"])
}

func TestWrongOTPMessage(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]any{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	wrong := "000000"
	if s.sender.code == wrong {
		wrong = "111111"
	}
	w, body := s.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]any{"email": "user@example.com", "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid OTP", body["message"])

	_, body = s.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]any{"email": "user@example.com", "otp": s.sender.code})
	assert.Equal(t, "No OTP found for this email", body["message"])
}
