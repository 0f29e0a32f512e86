package core

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

type (
	Frequency string

	Habit struct {
		ID           int64      `json:"id"`
		Name         string     `json:"name"`
		Frequency    Frequency  `json:"frequency"`
		TimesPerWeek int        `json:"times_per_week,omitempty"` // only meaningful for weekly habits
		GraceDays    int        `json:"grace_days"`
		CreatedOn    civil.Date `json:"created_on"`
		Archived     bool       `json:"archived"`
	}

	HabitLog struct {
		Date      civil.Date `json:"date"`
		Completed bool       `json:"completed"`
		Notes     string     `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidGraceDays = errors.New("grace days must be between 0 and 7")
	ErrInvalidWeekly    = errors.New("times per week must be between 1 and 7")
	ErrNameTooLong      = errors.New("name too long (max 100 characters)")
	ErrNotesTooLong     = errors.New("notes too long (max 500 characters)")
	ErrInvalidCalendar  = errors.New("invalid calendar date")
)

func (h Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if len(h.Name) > 100 {
		return ErrNameTooLong
	}
	switch h.Frequency {
	case Daily:
	case Weekly:
		if h.TimesPerWeek < 1 || h.TimesPerWeek > 7 {
			return ErrInvalidWeekly
		}
	default:
		return ErrInvalidFrequency
	}
	if h.GraceDays < 0 || h.GraceDays > 7 {
		return ErrInvalidGraceDays
	}
	if !h.CreatedOn.IsValid() {
		return fmt.Errorf("created_on: %w", ErrInvalidCalendar)
	}
	return nil
}

func (l HabitLog) Validate() error {
	if !l.Date.IsValid() {
		return fmt.Errorf("log date: %w", ErrInvalidCalendar)
	}
	if len(l.Notes) > 500 {
		return ErrNotesTooLong
	}
	return nil
}
