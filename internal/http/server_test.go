package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"grana/internal/finance"
	"grana/internal/services"
	"grana/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "grana_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	service := services.NewTransactionService(repo, nil, nil, nil)
	srv := NewServer(":0", service, repo, finance.NewProjector(nil), 6, false)
	t.Cleanup(func() { close(srv.stopCacheCleanup); srv.rateLimiter.stop() })
	return srv, repo
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateTransactionValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	// Wrong method
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid amount
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"type":"EXPENSE","category":"FOOD","amount":"abc","name":"x","date":"2024-03-10"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 422 {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Unknown category
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"type":"EXPENSE","category":"NOPE","amount":"1.23","name":"x","date":"2024-03-10"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 422 {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"type":"EXPENSE","category":"FOOD","amount":"45.90","name":"mercado","date":"2024-03-10"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID == 0 || resp.AmountCents != 4590 || resp.Category != "food" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"type":"EXPENSE","category":"FOOD","amount":"10.00","name":"lanche","date":"2024-03-10"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}
	var created transactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	path := fmt.Sprintf("/api/transactions/%d", created.ID)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestInstallmentPurchaseEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/installments",
		strings.NewReader(`{"name":"tv","category":"ENTERTAINMENT","total_amount":"1200.00","count":3,"start_date":"2024-01-15","end_date":"2024-05-15"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d: %s", rr.Code, rr.Body.String())
	}

	txs, err := repo.ListTransactionsSince(req.Context(), mustDate(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("ListTransactionsSince: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(txs))
	}

	// Out-of-range count is rejected before anything is written.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/installments",
		strings.NewReader(`{"name":"tv","category":"ENTERTAINMENT","total_amount":"1200.00","count":1,"start_date":"2024-01-15","end_date":"2024-05-15"}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 422 {
		t.Fatalf("expected 422 for bad count, got %d", rr.Code)
	}
}

func TestBenefitEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/benefits",
		strings.NewReader(`[{"type":"VR","value":"300.00"},{"type":"VT","value":"150.00"}]`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("put status=%d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/benefits", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("get status=%d", rr.Code)
	}
	var rows []struct {
		Type       string `json:"type"`
		ValueCents int64  `json:"value_cents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(rows))
	}

	// Insufficient balance surfaces as a conflict with the shortfall.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"type":"EXPENSE","category":"FOOD","amount":"400.00","name":"rodízio","date":"2024-03-10","deduct_benefit":true}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	var conflict struct {
		ShortfallCents int64 `json:"shortfall_cents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("unmarshal conflict: %v", err)
	}
	if conflict.ShortfallCents != 10000 {
		t.Errorf("shortfall = %d, want 10000", conflict.ShortfallCents)
	}

	// Balances may be reset to zero.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/benefits",
		strings.NewReader(`[{"type":"VR","value":"0"}]`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("zero reset status=%d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/benefits", nil)
	srv.Handler.ServeHTTP(rr, req)
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, row := range rows {
		if row.Type == "VR" && row.ValueCents != 0 {
			t.Errorf("VR = %d, want 0 after reset", row.ValueCents)
		}
	}
}

func TestStatsCacheKeyRollsDaily(t *testing.T) {
	srv, _ := newTestServer(t)

	key := srv.statsCacheKey(6)
	if !strings.Contains(key, time.Now().Format("2006-01-02")) {
		t.Errorf("cache key %q does not carry the current day", key)
	}
	if key == srv.statsCacheKey(3) {
		t.Error("expected distinct keys for distinct month counts")
	}
}

func TestCostAndDashboardEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/costs",
		strings.NewReader(`{"name":"aluguel","amount":"1200.00","frequency":"MONTHLY","is_fixed":true}`))
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create cost status=%d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/costs", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("list costs status=%d", rr.Code)
	}
	var costs []costResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &costs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(costs) != 1 || costs[0].AmountCents != 120000 {
		t.Errorf("unexpected costs: %+v", costs)
	}

	for _, path := range []string{
		"/api/dashboard/monthly-stats",
		"/api/dashboard/monthly-stats?months=3",
		"/api/dashboard/spend",
		"/api/dashboard/projection",
	} {
		rr = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d: %s", path, rr.Code, rr.Body.String())
		}
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}
