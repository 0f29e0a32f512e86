package google

import (
	"strconv"
	"strings"

	"momentum/internal/core"
)

// Column order matches sheets.Header.
const (
	colDate = iota
	colType
	colAmount
	colCategory
	colMerchant
	colDescription
	colCard
	colSource
	colID
	numCols
)

func rowFor(t core.Transaction) []any {
	row := make([]any, numCols)
	row[colDate] = t.Date.String()
	row[colType] = string(t.Type)
	row[colAmount] = t.Amount.String()
	row[colCategory] = t.Category
	row[colMerchant] = t.Merchant
	row[colDescription] = t.Description
	row[colCard] = t.CardLast4
	row[colSource] = t.SourceEmailID
	row[colID] = t.ID
	return row
}

// parseRow converts a sheet row back into a transaction. Header rows and
// rows that do not carry a date, type and amount are rejected.
func parseRow(cols []string) (core.Transaction, bool) {
	if len(cols) <= colCategory {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[colDate])
	if err != nil {
		return core.Transaction{}, false
	}
	typ := core.TransactionType(strings.ToLower(cols[colType]))
	if !typ.Valid() {
		return core.Transaction{}, false
	}
	cents, err := core.ParseDecimalToCents(cols[colAmount])
	if err != nil {
		return core.Transaction{}, false
	}

	t := core.Transaction{
		Type:     typ,
		Date:     date,
		Amount:   core.Money{Cents: cents},
		Category: cols[colCategory],
	}
	t.Merchant = safeGet(cols, colMerchant)
	t.Description = safeGet(cols, colDescription)
	t.CardLast4 = safeGet(cols, colCard)
	t.SourceEmailID = safeGet(cols, colSource)
	if id, err := strconv.ParseInt(safeGet(cols, colID), 10, 64); err == nil {
		t.ID = id
	}
	return t, true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
