package sheets

import (
	"context"

	"momentum/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionWriter appends one transaction as a spreadsheet row.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionLister reads exported transactions back for a month.
	TransactionLister interface {
		ListTransactions(ctx context.Context, year int, month int) ([]core.Transaction, error)
	}
)

// Header is the column layout of the export sheet.
var Header = []string{"Date", "Type", "Amount", "Category", "Merchant", "Description", "Card", "Source", "ID"}
