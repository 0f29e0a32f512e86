package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/cache"
	"momentum/internal/finance"
	"momentum/internal/log"
	"momentum/internal/mailparse"
	"momentum/internal/middleware/ratelimit"
	"momentum/internal/middleware/trace"
	"momentum/internal/services"
	"momentum/internal/storage"
)

var fixedNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type staticSource struct{ emails []mailparse.Email }

func (s staticSource) Fetch(context.Context, int) ([]mailparse.Email, error) {
	return s.emails, nil
}

var swiggyAlert = mailparse.Email{
	ID:         "gm-1",
	From:       "HDFC Bank InstaAlerts <alerts@hdfcbank.net>",
	Subject:    "Alert : Update on your HDFC Bank Credit Card",
	Body:       "Rs.450.00 is debited from your HDFC Bank Credit Card ending 1234 towards SWIGGY on 02 Mar, 2026 at 20:01:00.",
	ReceivedAt: time.Date(2026, 3, 2, 20, 5, 0, 0, time.UTC),
}

type testServer struct {
	*Server
	t *testing.T
}

func newTestServer(t *testing.T, source services.MailSource, opts Options) *testServer {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	txs := services.NewTransactionService(repo, nil, cache.NewLRU[finance.Summary](16, time.Minute))
	svc := Services{
		Transactions: txs,
		Habits:       services.NewHabitService(repo),
		Budgets:      services.NewBudgetService(repo),
		Settings:     services.NewSettingsService(repo),
		Ingest:       services.NewIngestService(repo, txs, source, mailparse.DefaultRegistry(), mailparse.DefaultCategorizer(), 10),
		DB:           repo,
	}
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	srv := NewServer(":0", svc, logger, opts)
	srv.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, t: t}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get(trace.HeaderRequestID))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}

	rec := s.do(http.MethodPost, "/healthz", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTransactions(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPost, "/api/transactions", map[string]any{
		"type": "income", "date": "2026-03-01", "amount": "1000.00", "category": "Salary",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/transactions", map[string]any{
		"type": "expense", "date": "2026-03-02", "amount": 250.5, "category": "Food", "merchant": "SWIGGY",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, 250.5, created["amount"])
	location := rec.Header().Get("Location")
	require.NotEmpty(t, location)

	rec = s.do(http.MethodGet, location, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2, "defaults to the current month")

	rec = s.do(http.MethodGet, "/api/transactions?year=2026&month=4", nil)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = s.do(http.MethodGet, "/api/finance/summary?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), sum["month"])
	assert.Equal(t, 1000.0, sum["income"])
	assert.Equal(t, 749.5, sum["savings"])
	assert.Equal(t, "Food", sum["highest_category"])

	rec = s.do(http.MethodDelete, location, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, location, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, location, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions_Errors(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"zero amount", http.MethodPost, "/api/transactions", map[string]any{"type": "expense", "date": "2026-03-02", "amount": 0, "category": "Food"}, http.StatusUnprocessableEntity},
		{"bad amount", http.MethodPost, "/api/transactions", `{"type":"expense","amount":"abc","category":"Food"}`, http.StatusUnprocessableEntity},
		{"overflowing amount", http.MethodPost, "/api/transactions", `{"type":"expense","date":"2026-03-02","amount":"184467440737095516.17","category":"Food"}`, http.StatusUnprocessableEntity},
		{"overflowing budget", http.MethodPut, "/api/budgets", `{"category":"Food","monthly_limit":100000000000000000000}`, http.StatusUnprocessableEntity},
		{"bad type", http.MethodPost, "/api/transactions", map[string]any{"type": "gift", "amount": 1, "category": "Food"}, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/api/transactions", map[string]any{"type": "expense", "date": "02/03/2026", "amount": 1, "category": "Food"}, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/transactions", `{"type":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/transactions", `{"kind":"expense"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/transactions", nil, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/transactions/abc", nil, http.StatusBadRequest},
		{"bad month", http.MethodGet, "/api/transactions?month=13", nil, http.StatusUnprocessableEntity},
		{"missing", http.MethodGet, "/api/transactions/999", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestHabits(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPost, "/api/habits", map[string]any{
		"name": "  Meditate ", "frequency": "daily", "grace_days": 1, "created_on": "2025-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	habit := decode[map[string]any](t, rec)
	assert.Equal(t, "Meditate", habit["name"])
	base := rec.Header().Get("Location")

	for _, entry := range []map[string]any{
		{"date": "2025-06-07", "completed": true},
		{"date": "2025-06-08", "completed": true},
		{"date": "2025-06-09", "completed": false},
		{"date": "2025-06-10", "completed": true, "notes": "evening"},
	} {
		rec = s.do(http.MethodPut, base+"/logs", entry)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, base+"/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 4)

	rec = s.do(http.MethodGet, base+"/stats?asOf=2025-06-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Equal(t, "2025-06-10", stats["as_of"])
	assert.Equal(t, float64(4), stats["current_streak"])
	assert.Equal(t, float64(3), stats["total_completions"])

	rec = s.do(http.MethodGet, base+"/stats?asOf=June", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, base+"/logs", map[string]any{"date": "2999-01-01", "completed": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "future days cannot be logged")

	rec = s.do(http.MethodPut, "/api/habits/999/logs", map[string]any{"date": "2025-06-01", "completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/habits", map[string]any{"name": "Run", "frequency": "hourly"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/habits", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
	rec = s.do(http.MethodGet, "/api/habits?archived=true", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
	rec = s.do(http.MethodGet, base, nil)
	assert.Equal(t, true, decode[map[string]any](t, rec)["archived"])
}

func TestBudgets(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPut, "/api/budgets", map[string]any{"category": "Food", "monthly_limit": "1000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPut, "/api/budgets", map[string]any{"category": " ", "monthly_limit": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/transactions", map[string]any{
		"type": "expense", "date": "2026-03-03", "amount": 900, "category": "Food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/budgets/status?year=2026&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]finance.BudgetStatus](t, rec)
	require.Len(t, statuses, 1)
	assert.Equal(t, finance.StatusNearLimit, statuses[0].Status)
	assert.Equal(t, 90.0, statuses[0].Percentage)

	rec = s.do(http.MethodGet, "/api/budgets", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = s.do(http.MethodDelete, "/api/budgets/Food", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/api/budgets/Food", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["email_sync"])

	rec = s.do(http.MethodPost, "/api/settings/toggle/email_sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["email_sync"])

	rec = s.do(http.MethodPost, "/api/settings/toggle/dark_mode", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, "/api/settings", map[string]any{"currency": "eur", "budget_alerts": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "EUR", decode[map[string]any](t, rec)["currency"])

	rec = s.do(http.MethodPut, "/api/settings", map[string]any{"currency": "euro"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEmailParse(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPost, "/api/email/parse", map[string]any{
		"from": swiggyAlert.From, "subject": swiggyAlert.Subject, "body": swiggyAlert.Body,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[services.Preview](t, rec)
	assert.Equal(t, "parsed", preview.Outcome)
	assert.Equal(t, "Food", preview.Category)
	require.NotNil(t, preview.Result)
	assert.Equal(t, "1234", preview.Result.CardLast4)

	raw := "From: alerts@hdfcbank.net\r\nSubject: Your OTP\r\n\r\nYour OTP is 123456.\r\n"
	r := httptest.NewRequest(http.MethodPost, "/api/email/parse", strings.NewReader(raw))
	r.Header.Set("Content-Type", "message/rfc822")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "excluded", decode[services.Preview](t, rec).Outcome)

	rec = s.do(http.MethodPost, "/api/email/parse", map[string]any{"from": "x@y.z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailSync(t *testing.T) {
	t.Run("no mailbox", func(t *testing.T) {
		s := newTestServer(t, nil, Options{})
		rec := s.do(http.MethodPost, "/api/email/sync", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("sync then runs", func(t *testing.T) {
		s := newTestServer(t, staticSource{emails: []mailparse.Email{swiggyAlert}}, Options{})

		rec := s.do(http.MethodPost, "/api/email/sync", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		run := decode[map[string]any](t, rec)
		assert.Equal(t, float64(1), run["inserted"])

		rec = s.do(http.MethodPost, "/api/email/sync", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), decode[map[string]any](t, rec)["duplicates"])

		rec = s.do(http.MethodGet, "/api/email/runs?limit=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]map[string]any](t, rec), 2)

		rec = s.do(http.MethodGet, "/api/email/runs?limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPost, "/api/settings/toggle/email_sync", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = s.do(http.MethodPost, "/api/email/sync", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestWriteRateLimit(t *testing.T) {
	s := newTestServer(t, nil, Options{WriteLimit: ratelimit.Config{Requests: 1, Period: time.Minute}})

	rec := s.do(http.MethodPost, "/api/settings/toggle/budget_alerts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/settings/toggle/budget_alerts", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = s.do(http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}

func TestSuspiciousRequestRejected(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	rec := s.do(http.MethodGet, "/api/habits?file=../../etc/passwd", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
