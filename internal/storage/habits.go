package storage

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"

	"momentum/internal/core"
)

const habitColumns = `id, name, frequency, times_per_week, grace_days, created_on, archived`

func scanHabit(s rowScanner) (core.Habit, error) {
	var (
		h         core.Habit
		freq, day string
		archived  int
	)
	if err := s.Scan(&h.ID, &h.Name, &freq, &h.TimesPerWeek, &h.GraceDays, &day, &archived); err != nil {
		return core.Habit{}, err
	}
	created, err := civil.ParseDate(day)
	if err != nil {
		return core.Habit{}, fmt.Errorf("habit %d created_on: %w", h.ID, err)
	}
	h.Frequency = core.Frequency(freq)
	h.CreatedOn = created
	h.Archived = archived != 0
	return h, nil
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (name, frequency, times_per_week, grace_days, created_on, archived)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.Name, string(h.Frequency), h.TimesPerWeek, h.GraceDays, h.CreatedOn.String(), boolInt(h.Archived))
	if err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	h.ID = id

	slog.InfoContext(ctx, "Habit created", "id", h.ID, "name", h.Name, "frequency", h.Frequency)
	return h, nil
}

func (r *SQLiteRepository) GetHabit(ctx context.Context, id int64) (core.Habit, error) {
	h, err := scanHabit(r.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if isNoRows(err) {
		return core.Habit{}, fmt.Errorf("habit %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Habit{}, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

// ListHabits returns habits ordered by id, skipping archived ones unless
// includeArchived is set.
func (r *SQLiteRepository) ListHabits(ctx context.Context, includeArchived bool) ([]core.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var out []core.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ArchiveHabit hides a habit from listings; its logs are kept.
func (r *SQLiteRepository) ArchiveHabit(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE habits SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("habit %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Habit archived", "id", id)
	return nil
}

// UpsertHabitLog stores the entry for l.Date, replacing any earlier entry
// for the same day.
func (r *SQLiteRepository) UpsertHabitLog(ctx context.Context, habitID int64, l core.HabitLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habit_logs (habit_id, log_date, completed, notes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, log_date) DO UPDATE SET
			completed = excluded.completed,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		habitID, l.Date.String(), boolInt(l.Completed), l.Notes, r.timestamp())
	if err != nil {
		return fmt.Errorf("upsert habit log: %w", err)
	}
	return nil
}

// ListHabitLogs returns a habit's log ordered by date.
func (r *SQLiteRepository) ListHabitLogs(ctx context.Context, habitID int64) ([]core.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT log_date, completed, notes FROM habit_logs
		WHERE habit_id = ? ORDER BY log_date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()

	var out []core.HabitLog
	for rows.Next() {
		var (
			day       string
			completed int
			l         core.HabitLog
		)
		if err := rows.Scan(&day, &completed, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		if l.Date, err = civil.ParseDate(day); err != nil {
			return nil, fmt.Errorf("habit log date %q: %w", day, err)
		}
		l.Completed = completed != 0
		out = append(out, l)
	}
	return out, rows.Err()
}
