package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"momentum/internal/core"
)

// fakeSheets serves the two Values endpoints the client uses.
type fakeSheets struct {
	appended [][]any
	rows     [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.Unmarshal(body, &vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, vr.Values...)
		fmt.Fprintf(w, `{"updates":{"updatedRange":"Sheet!A%d:I%d"}}`, len(f.appended)+1, len(f.appended)+1)
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestClient_AppendWritesRow(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	assert.Equal(t, fmt.Sprintf("%d Transactions", time.Now().Year()), c.sheet)

	ref, err := c.Append(context.Background(), core.Transaction{
		ID:            7,
		Type:          core.Expense,
		Date:          core.NewDate(2026, 1, 30),
		Amount:        core.Money{Cents: 11000},
		Category:      "Shopping",
		Merchant:      "BalajiBartanBhandar",
		CardLast4:     "0468",
		SourceEmailID: "msg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sheet!A2:I2", ref)

	require.Len(t, fake.appended, 1)
	row := fake.appended[0]
	assert.Equal(t, "2026-01-30", row[0])
	assert.Equal(t, "expense", row[1])
	assert.Equal(t, "110.00", row[2])
	assert.Equal(t, "Shopping", row[3])
	assert.Equal(t, "0468", row[6])
	assert.Equal(t, float64(7), row[8])
}

func TestClient_AppendValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.Append(context.Background(), core.Transaction{Type: core.Expense, Date: core.NewDate(2026, 1, 1), Category: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestClient_ListTransactions(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		{"Date", "Type", "Amount", "Category", "Merchant", "Description", "Card", "Source", "ID"},
		{"2026-01-30", "expense", "110.00", "Shopping", "BalajiBartanBhandar", "", "0468", "msg-1", "7"},
		{"2026-01-31", "income", "1,000.00", "Salary"},
		{"2026-02-01", "expense", "5", "Food"},
		{"garbage"},
	}}
	c := newTestClient(t, fake)

	txs, err := c.ListTransactions(context.Background(), 2026, 1)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(7), txs[0].ID)
	assert.Equal(t, "BalajiBartanBhandar", txs[0].Merchant)
	assert.Equal(t, core.Income, txs[1].Type)
	assert.Equal(t, int64(100000), txs[1].Amount.Cents)

	_, err = c.ListTransactions(context.Background(), 2026, 13)
	assert.Error(t, err)
}

func TestYearPrefixedName(t *testing.T) {
	assert.Equal(t, "2026 Transactions", yearPrefixedName("Transactions", 2026))
	assert.Equal(t, "2025 Transactions", yearPrefixedName("2025 Transactions", 2026))
	assert.Equal(t, "", yearPrefixedName("  ", 2026))
}
