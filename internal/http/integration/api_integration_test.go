package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/auth"
	"github.com/geocoder89/fintrack/internal/cache"
	"github.com/geocoder89/fintrack/internal/config"
	apphttp "github.com/geocoder89/fintrack/internal/http"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/repo/memory"
	"github.com/geocoder89/fintrack/internal/report"
	"github.com/geocoder89/fintrack/internal/security"
	"github.com/geocoder89/fintrack/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		StoreDriver:         config.StoreMemory,
		JWTSecret:           "test-secret-key",
		JWTIssuer:           "fintrack",
		JWTAudience:         "fintrack-clients",
		JWTAccessTTLMinutes: 60,
		RateLimitAuthPerMin: 1000,
		RateLimitAPIPerMin:  1000,
		MaxBodyBytes:        1 << 16,
		RequestTimeout:      2 * time.Second,
		ReportCacheTTL:      time.Minute,
	}
}

type testApp struct {
	router *gin.Engine
	store  *memory.Store
}

func setupApp(t *testing.T) testApp {
	t.Helper()
	return setupAppWith(t, testConfig())
}

func setupAppWith(t *testing.T, cfg config.Config) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	store := memory.NewStore()
	for _, name := range []string{"Food", "Transport", "Salary"} {
		if _, err := store.CreateCategory(context.Background(), name); err != nil {
			t.Fatalf("seed categories: %v", err)
		}
	}

	jwtm := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	engine := report.NewEngine(store,
		report.WithCache(cache.NewMemory(), cfg.ReportCacheTTL),
		report.WithMetrics(prom),
		report.WithLogger(logger),
	)

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Auth:         services.NewAuthService(store, security.NewHasher(bcrypt.MinCost), jwtm, prom, logger),
		Transactions: services.NewTransactionService(store, engine, logger),
		Categories:   store,
		Reports:      engine,
		Tokens:       jwtm,
		Prom:         prom,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:       map[string]handlers.PingFunc{"store": store.Ping},
	})

	return testApp{router: router, store: store}
}

func (a testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

// registerAndLogin returns a bearer token for a fresh user.
func (a testApp) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	w := a.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test", "email": email, "password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w = a.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	resp := decode[struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType"`
		ExpiresIn int64  `json:"expiresIn"`
	}](t, w)

	if resp.Token == "" || resp.TokenType != "Bearer" || resp.ExpiresIn <= 0 {
		t.Fatalf("unexpected login response %+v", resp)
	}
	return resp.Token
}

type txBody struct {
	CategoryID  int64  `json:"categoryId"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

type txResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Amount string `json:"amount"`
	Type   string `json:"type"`
	Date   string `json:"date"`
}

type summaryResponse struct {
	TotalIncome  string `json:"totalIncome"`
	TotalExpense string `json:"totalExpense"`
	Balance      string `json:"balance"`
}

type byCategoryResponse struct {
	Items []struct {
		Category    string `json:"category"`
		TotalAmount string `json:"totalAmount"`
	} `json:"items"`
	Count int `json:"count"`
}

func TestAPI_RegisterValidationAndDuplicates(t *testing.T) {
	app := setupApp(t)

	w := app.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	app.registerAndLogin(t, "ana@example.com")

	w = app.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ANA@example.com", "password": "password123"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", w.Code)
	}
	if got := decode[struct {
		Error handlers.APIError `json:"error"`
	}](t, w).Error.Code; got != "email_taken" {
		t.Fatalf("expected email_taken, got %q", got)
	}

	w = app.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "eve@example.com", "password": strings.Repeat("é", 40)})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a password over 72 bytes, got %d (%s)", w.Code, w.Body.String())
	}

	w = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
}

func TestAPI_UnsetLimitsFallBackToDefaults(t *testing.T) {
	app := setupAppWith(t, config.Config{
		Env:         "test",
		JWTSecret:   "test-secret-key",
		JWTIssuer:   "fintrack",
		JWTAudience: "fintrack-clients",
	})

	w := app.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ana@example.com", "password": "password123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("a zero body limit must not reject writes, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/transactions", "/api/categories", "/api/users/profile", "/api/reports/summary?year=2025&month=2"} {
		if w := app.request(t, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
		if w := app.request(t, http.MethodGet, path, "garbage", nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for bad token, got %d", path, w.Code)
		}
	}
}

func TestAPI_MonthlyReportsAreCallerScoped(t *testing.T) {
	app := setupApp(t)

	ana := app.registerAndLogin(t, "ana@example.com")
	bob := app.registerAndLogin(t, "bob@example.com")

	seed := []struct {
		token string
		body  txBody
	}{
		{ana, txBody{CategoryID: 3, Amount: "1000", Type: "Income", Date: "2025-02-01T10:00:00Z"}},
		{ana, txBody{CategoryID: 1, Amount: "300", Type: "Expense", Date: "2025-02-02T10:00:00Z"}},
		{ana, txBody{CategoryID: 2, Amount: "150", Type: "expense", Date: "2025-02-03T10:00:00Z"}},
		{bob, txBody{CategoryID: 1, Amount: "777", Type: "Expense", Date: "2025-02-04T10:00:00Z"}},
	}
	for i, s := range seed {
		if w := app.request(t, http.MethodPost, "/api/transactions", s.token, s.body); w.Code != http.StatusCreated {
			t.Fatalf("seed %d: %d %s", i, w.Code, w.Body.String())
		}
	}

	w := app.request(t, http.MethodGet, "/api/reports/summary?year=2025&month=2", ana, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", w.Code, w.Body.String())
	}
	summary := decode[summaryResponse](t, w)
	if summary != (summaryResponse{TotalIncome: "1000", TotalExpense: "450", Balance: "550"}) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	w = app.request(t, http.MethodGet, "/api/reports/by-category?year=2025&month=2", ana, nil)
	groups := decode[byCategoryResponse](t, w)
	if groups.Count != 2 {
		t.Fatalf("expected 2 groups, got %+v", groups)
	}
	got := map[string]string{}
	for _, g := range groups.Items {
		got[g.Category] = g.TotalAmount
	}
	if got["Food"] != "300" || got["Transport"] != "150" {
		t.Fatalf("unexpected groups %+v", got)
	}

	w = app.request(t, http.MethodGet, "/api/reports/summary?year=2025&month=13", ana, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("month 13: %d", w.Code)
	}
	if s := decode[summaryResponse](t, w); s != (summaryResponse{TotalIncome: "0", TotalExpense: "0", Balance: "0"}) {
		t.Fatalf("expected zeros, got %+v", s)
	}

	w = app.request(t, http.MethodGet, "/api/reports/by-category?year=2024&month=2", ana, nil)
	if g := decode[byCategoryResponse](t, w); g.Count != 0 || g.Items == nil {
		t.Fatalf("expected an empty list, got %s", w.Body.String())
	}

	if w := app.request(t, http.MethodGet, "/api/reports/summary?year=2025", ana, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing month: expected 400, got %d", w.Code)
	}
}

func TestAPI_WritesInvalidateCachedReports(t *testing.T) {
	app := setupApp(t)
	ana := app.registerAndLogin(t, "ana@example.com")

	create := app.request(t, http.MethodPost, "/api/transactions", ana, txBody{CategoryID: 1, Amount: "10", Type: "Expense", Date: "2025-02-02T00:00:00Z"})
	created := decode[txResponse](t, create)

	first := app.request(t, http.MethodGet, "/api/reports/summary?year=2025&month=2", ana, nil)
	etag := first.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/api/reports/summary?year=2025&month=2", nil)
	req.Header.Set("Authorization", "Bearer "+ana)
	req.Header.Set("If-None-Match", etag)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	upd := app.request(t, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), ana, txBody{CategoryID: 1, Amount: "25.5", Type: "Expense"})
	if upd.Code != http.StatusOK {
		t.Fatalf("update: %d %s", upd.Code, upd.Body.String())
	}
	if updated := decode[txResponse](t, upd); updated.Date != created.Date {
		t.Fatalf("omitted date must keep %s, got %s", created.Date, updated.Date)
	}

	after := decode[summaryResponse](t, app.request(t, http.MethodGet, "/api/reports/summary?year=2025&month=2", ana, nil))
	if after.TotalExpense != "25.5" {
		t.Fatalf("cached report survived an update: %+v", after)
	}
}

func TestAPI_ForeignTransactionsAreProtected(t *testing.T) {
	app := setupApp(t)

	ana := app.registerAndLogin(t, "ana@example.com")
	bob := app.registerAndLogin(t, "bob@example.com")

	w := app.request(t, http.MethodPost, "/api/transactions", ana, txBody{CategoryID: 1, Amount: "300", Type: "Expense"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[txResponse](t, w)
	path := fmt.Sprintf("/api/transactions/%d", created.ID)

	if w := app.request(t, http.MethodGet, path, bob, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", w.Code)
	}
	if w := app.request(t, http.MethodPut, path, bob, txBody{CategoryID: 1, Amount: "1", Type: "Income"}); w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: expected 403, got %d", w.Code)
	}
	if w := app.request(t, http.MethodDelete, path, bob, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: expected 403, got %d", w.Code)
	}
	if w := app.request(t, http.MethodDelete, "/api/transactions/9999", bob, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing delete: expected 404, got %d", w.Code)
	}

	w = app.request(t, http.MethodGet, path, ana, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner get: %d", w.Code)
	}
	if got := decode[txResponse](t, w); got.Amount != "300" || got.Type != "Expense" {
		t.Fatalf("record changed by rejected writes: %+v", got)
	}

	list := decode[struct {
		Count int `json:"count"`
	}](t, app.request(t, http.MethodGet, "/api/transactions", bob, nil))
	if list.Count != 0 {
		t.Fatalf("bob should see no transactions, got %d", list.Count)
	}

	if w := app.request(t, http.MethodDelete, path, ana, nil); w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", w.Code)
	}
}

func TestAPI_CreateRejectsUnknownCategoryAndBadAmount(t *testing.T) {
	app := setupApp(t)
	ana := app.registerAndLogin(t, "ana@example.com")

	tests := []struct {
		name string
		body txBody
		code string
	}{
		{"unknown category", txBody{CategoryID: 99, Amount: "5", Type: "Expense"}, "invalid_category"},
		{"zero amount", txBody{CategoryID: 1, Amount: "0", Type: "Expense"}, "invalid_amount"},
		{"negative amount", txBody{CategoryID: 1, Amount: "-5", Type: "Income"}, "invalid_amount"},
		{"bad type", txBody{CategoryID: 1, Amount: "5", Type: "Transfer"}, "invalid_request"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := app.request(t, http.MethodPost, "/api/transactions", ana, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			if got := decode[struct {
				Error handlers.APIError `json:"error"`
			}](t, w).Error.Code; got != tc.code {
				t.Fatalf("expected %q, got %q", tc.code, got)
			}
		})
	}

	rows, _ := app.store.ListTransactionsByUser(context.Background(), 1)
	if len(rows) != 0 {
		t.Fatalf("nothing should have been written, got %d rows", len(rows))
	}
}

func TestAPI_CategoriesAndProfile(t *testing.T) {
	app := setupApp(t)
	token := app.registerAndLogin(t, "ana@example.com")

	w := app.request(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Books"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", w.Code, w.Body.String())
	}

	list := decode[struct {
		Count int `json:"count"`
	}](t, app.request(t, http.MethodGet, "/api/categories", token, nil))
	if list.Count != 4 {
		t.Fatalf("expected 4 categories, got %d", list.Count)
	}

	if w := app.request(t, http.MethodGet, "/api/categories/4", token, nil); w.Code != http.StatusOK {
		t.Fatalf("get category: %d", w.Code)
	}
	if w := app.request(t, http.MethodGet, "/api/categories/404", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing category: expected 404, got %d", w.Code)
	}

	w = app.request(t, http.MethodGet, "/api/users/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatalf("profile must not expose the password hash: %s", w.Body.String())
	}
}

func TestAPI_OperationalEndpoints(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/docs", "/docs/openapi.yaml"} {
		if w := app.request(t, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}
