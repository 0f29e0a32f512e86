package http

import (
	"net/http"

	"momentum/internal/core"
	"momentum/internal/finance"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.ListBudgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := DecodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.Category = sanitizeInput(b.Category)
	if err := s.svc.Budgets.UpsertBudget(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.DeleteBudget(r.Context(), r.PathValue("category")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	statuses, err := s.svc.Budgets.Status(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = []finance.BudgetStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	var next core.Settings
	if err := DecodeJSON(w, r, &next); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Settings.Replace(r.Context(), next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleToggleSetting(w http.ResponseWriter, r *http.Request) {
	saved, err := s.svc.Settings.Toggle(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
