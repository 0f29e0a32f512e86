package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"momentum/internal/core"
	"momentum/internal/storage"
	"momentum/internal/streak"
)

// HabitService manages habits, their day logs and streak statistics.
type HabitService struct {
	storage *storage.SQLiteRepository
	today   func() civil.Date
}

func NewHabitService(storage *storage.SQLiteRepository) *HabitService {
	return &HabitService{
		storage: storage,
		today:   func() civil.Date { return civil.DateOf(time.Now()) },
	}
}

// CreateHabit stores h. A habit without a creation day starts today.
func (s *HabitService) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Archived = false
	if h.CreatedOn.IsZero() {
		h.CreatedOn = s.today()
	}
	if h.Frequency == core.Daily {
		h.TimesPerWeek = 0
	}
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	return s.storage.CreateHabit(ctx, h)
}

func (s *HabitService) GetHabit(ctx context.Context, id int64) (core.Habit, error) {
	return s.storage.GetHabit(ctx, id)
}

func (s *HabitService) ListHabits(ctx context.Context, includeArchived bool) ([]core.Habit, error) {
	return s.storage.ListHabits(ctx, includeArchived)
}

func (s *HabitService) ArchiveHabit(ctx context.Context, id int64) error {
	return s.storage.ArchiveHabit(ctx, id)
}

// LogDay records the outcome of one day, replacing any earlier entry for it.
func (s *HabitService) LogDay(ctx context.Context, habitID int64, l core.HabitLog) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.Date.After(s.today()) {
		return fmt.Errorf("log date %s: %w", l.Date, core.ErrInvalidDay)
	}
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return err
	}
	return s.storage.UpsertHabitLog(ctx, habitID, l)
}

func (s *HabitService) Logs(ctx context.Context, habitID int64) ([]core.HabitLog, error) {
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return nil, err
	}
	return s.storage.ListHabitLogs(ctx, habitID)
}

// Stats computes streaks as of asOf, or today when asOf is the zero date.
func (s *HabitService) Stats(ctx context.Context, habitID int64, asOf civil.Date) (streak.Stats, error) {
	h, err := s.storage.GetHabit(ctx, habitID)
	if err != nil {
		return streak.Stats{}, err
	}
	logs, err := s.storage.ListHabitLogs(ctx, habitID)
	if err != nil {
		return streak.Stats{}, err
	}
	if asOf.IsZero() {
		asOf = s.today()
	}
	return streak.Compute(h, logs, asOf)
}
