package backend

import (
	"context"
	"fmt"

	"momentum/internal/config"
	"momentum/internal/sheets"
	gsheet "momentum/internal/sheets/google"
	"momentum/internal/sheets/memory"
)

// ExporterType names where synced transactions are written.
type ExporterType string

const (
	SheetsExporter ExporterType = "sheets"
	MemoryExporter ExporterType = "memory"
)

func (t ExporterType) String() string {
	return string(t)
}

// ExporterFor picks the spreadsheet exporter when a spreadsheet is
// configured and the in-memory one otherwise.
func ExporterFor(cfg *config.Config) ExporterType {
	if cfg.SheetsEnabled() {
		return SheetsExporter
	}
	return MemoryExporter
}

// NewExporter creates the transaction writer used by the sync worker.
func NewExporter(ctx context.Context, cfg *config.Config) (sheets.TransactionWriter, ExporterType, error) {
	switch kind := ExporterFor(cfg); kind {
	case SheetsExporter:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, kind, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		return cli, kind, nil
	default:
		return memory.New(), kind, nil
	}
}
