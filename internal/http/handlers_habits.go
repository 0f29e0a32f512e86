package http

import (
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"

	"momentum/internal/core"
	"momentum/internal/streak"
)

type habitRequest struct {
	Name         string         `json:"name"`
	Frequency    core.Frequency `json:"frequency"`
	TimesPerWeek int            `json:"times_per_week"`
	GraceDays    int            `json:"grace_days"`
	CreatedOn    civil.Date     `json:"created_on"`
}

type habitStatsResponse struct {
	HabitID int64      `json:"habit_id"`
	AsOf    civil.Date `json:"as_of"`
	streak.Stats
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	habits, err := s.svc.Habits.ListHabits(r.Context(), includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if habits == nil {
		habits = []core.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.Habits.CreateHabit(r.Context(), core.Habit{
		Name:         sanitizeInput(req.Name),
		Frequency:    req.Frequency,
		TimesPerWeek: req.TimesPerWeek,
		GraceDays:    req.GraceDays,
		CreatedOn:    req.CreatedOn,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/habits/"+strconv.FormatInt(h.ID, 10)).
		JSON(h).
		Write(w)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.Habits.GetHabit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleArchiveHabit keeps the habit and its history but hides it from
// the default listing.
func (s *Server) handleArchiveHabit(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Habits.ArchiveHabit(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHabitLogs(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := s.svc.Habits.Logs(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []core.HabitLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleLogHabitDay(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var entry core.HabitLog
	if err := DecodeJSON(w, r, &entry); err != nil {
		writeError(w, r, err)
		return
	}
	entry.Notes = sanitizeInput(entry.Notes)
	if err := s.svc.Habits.LogDay(r.Context(), id, entry); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := ParseDay(r.URL.Query(), "asOf")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if asOf.IsZero() {
		asOf = civil.DateOf(s.now())
	}
	stats, err := s.svc.Habits.Stats(r.Context(), id, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habitStatsResponse{HabitID: id, AsOf: asOf, Stats: stats})
}
