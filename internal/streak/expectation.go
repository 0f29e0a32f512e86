// Package streak computes habit streaks and success rates from day logs.
//
// This file implements the Strategy Pattern for expected completions.
// Each habit frequency owns the rule for how many completions a habit should
// have accumulated between its creation day and a reference day.
package streak

import (
	"fmt"

	"cloud.google.com/go/civil"

	"momentum/internal/core"
)

// Expectation is the strategy interface for counting expected completions.
type Expectation interface {
	// Expected returns how many completions the habit should have between
	// from and to, both inclusive. It returns 0 when to is before from.
	Expected(h core.Habit, from, to civil.Date) int
}

// DailyExpectation expects one completion per calendar day.
type DailyExpectation struct{}

func (DailyExpectation) Expected(_ core.Habit, from, to civil.Date) int {
	if to.Before(from) {
		return 0
	}
	return to.DaysSince(from) + 1
}

// WeeklyExpectation expects TimesPerWeek completions for every started week.
type WeeklyExpectation struct{}

func (WeeklyExpectation) Expected(h core.Habit, from, to civil.Date) int {
	if to.Before(from) {
		return 0
	}
	days := to.DaysSince(from) + 1
	weeks := (days + 6) / 7
	return weeks * h.TimesPerWeek
}

var expectations = map[core.Frequency]Expectation{
	core.Daily:  DailyExpectation{},
	core.Weekly: WeeklyExpectation{},
}

// ExpectationFor returns the strategy registered for a frequency.
func ExpectationFor(f core.Frequency) (Expectation, error) {
	e, ok := expectations[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return e, nil
}

// RegisterExpectation registers a strategy for a new frequency.
func RegisterExpectation(f core.Frequency, e Expectation) {
	expectations[f] = e
}
