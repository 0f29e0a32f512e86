package streak

import (
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"momentum/internal/core"
)

// Stats summarises a habit's history as of a reference day.
type Stats struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	TotalCompletions int     `json:"total_completions"`
	SuccessRate      float64 `json:"success_rate"`
}

// run is a span of days held together by completions. Missed days inside
// the span never exceed the grace allowance for any single gap.
type run struct {
	start, end civil.Date
}

func (r run) length() int {
	return r.end.DaysSince(r.start) + 1
}

// Compute derives streak statistics for h from its logs as of asOf.
//
// Logs may be unsorted and may repeat a date; a day counts as completed if
// any entry for it is completed. Entries after asOf are ignored. A gap of
// missed days breaks a run only when it is longer than h.GraceDays, and each
// gap is judged on its own. Grace days inside a run count toward its length.
//
// asOf itself is treated as still open: an unlogged reference day does not
// count as missed when deciding whether the current streak is alive.
func Compute(h core.Habit, logs []core.HabitLog, asOf civil.Date) (Stats, error) {
	expectation, err := ExpectationFor(h.Frequency)
	if err != nil {
		return Stats{}, err
	}

	days := completedDays(logs, asOf)
	if len(days) == 0 {
		return Stats{}, nil
	}

	runs := splitRuns(days, h.GraceDays)

	var stats Stats
	stats.TotalCompletions = len(days)
	for _, r := range runs {
		if l := r.length(); l > stats.LongestStreak {
			stats.LongestStreak = l
		}
	}

	last := runs[len(runs)-1]
	if missed := asOf.DaysSince(last.end) - 1; missed <= h.GraceDays {
		stats.CurrentStreak = last.length()
	}

	start := h.CreatedOn
	if !start.IsValid() || days[0].Before(start) {
		start = days[0]
	}
	stats.SuccessRate = successRate(stats.TotalCompletions, expectation.Expected(h, start, asOf))

	return stats, nil
}

// completedDays returns the distinct completed days up to asOf, ascending.
func completedDays(logs []core.HabitLog, asOf civil.Date) []civil.Date {
	seen := make(map[civil.Date]bool, len(logs))
	days := make([]civil.Date, 0, len(logs))
	for _, l := range logs {
		if !l.Completed || !l.Date.IsValid() || l.Date.After(asOf) || seen[l.Date] {
			continue
		}
		seen[l.Date] = true
		days = append(days, l.Date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// splitRuns groups ascending completed days into runs.
func splitRuns(days []civil.Date, grace int) []run {
	runs := []run{{start: days[0], end: days[0]}}
	for _, d := range days[1:] {
		cur := &runs[len(runs)-1]
		if missed := d.DaysSince(cur.end) - 1; missed <= grace {
			cur.end = d
			continue
		}
		runs = append(runs, run{start: d, end: d})
	}
	return runs
}

// successRate returns completions/expected as a percentage in [0,100],
// rounded to two decimals.
func successRate(completions, expected int) float64 {
	if expected <= 0 || completions <= 0 {
		return 0
	}
	rate := float64(completions) / float64(expected) * 100
	if rate > 100 {
		rate = 100
	}
	return math.Round(rate*100) / 100
}
