package storage

import (
	"context"
	"fmt"

	"momentum/internal/core"
)

// SaveToken stores a sealed OAuth token envelope for a provider.
func (r *SQLiteRepository) SaveToken(ctx context.Context, provider, envelope string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_tokens (provider, envelope, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (provider) DO UPDATE SET envelope = excluded.envelope, updated_at = excluded.updated_at`,
		provider, envelope, r.timestamp())
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadToken returns core.ErrNotFound when no token was stored for provider.
func (r *SQLiteRepository) LoadToken(ctx context.Context, provider string) (string, error) {
	var envelope string
	err := r.db.QueryRowContext(ctx, `SELECT envelope FROM oauth_tokens WHERE provider = ?`, provider).Scan(&envelope)
	if isNoRows(err) {
		return "", fmt.Errorf("token for %s: %w", provider, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return envelope, nil
}

func (r *SQLiteRepository) SaveIngestRun(ctx context.Context, run core.IngestRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, started_at, finished_at, fetched, parsed, inserted,
			duplicates, excluded, unsupported, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Fetched, run.Parsed, run.Inserted, run.Duplicates, run.Excluded, run.Unsupported,
		run.Failed, run.Error)
	if err != nil {
		return fmt.Errorf("save ingest run: %w", err)
	}
	return nil
}

// ListIngestRuns returns the most recent runs first.
func (r *SQLiteRepository) ListIngestRuns(ctx context.Context, limit int) ([]core.IngestRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, fetched, parsed, inserted, duplicates,
			excluded, unsupported, failed, error
		FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingest runs: %w", err)
	}
	defer rows.Close()

	var out []core.IngestRun
	for rows.Next() {
		var (
			run             core.IngestRun
			started, finish string
		)
		if err := rows.Scan(&run.ID, &started, &finish, &run.Fetched, &run.Parsed, &run.Inserted,
			&run.Duplicates, &run.Excluded, &run.Unsupported, &run.Failed, &run.Error); err != nil {
			return nil, fmt.Errorf("scan ingest run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finish)
		out = append(out, run)
	}
	return out, rows.Err()
}
