package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"momentum/internal/core"
	"momentum/internal/mailparse"
	"momentum/internal/services"
)

type emailRequest struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// handleParseEmail previews how one email would be ingested. It accepts
// either a JSON email or a raw RFC 5322 message (message/rfc822 or
// text/plain).
func (s *Server) handleParseEmail(w http.ResponseWriter, r *http.Request) {
	var (
		e   mailparse.Email
		err error
	)
	if isJSON(r) {
		var req emailRequest
		if err = DecodeJSON(w, r, &req); err == nil {
			e = mailparse.Email{ID: req.ID, From: req.From, Subject: req.Subject, Body: req.Body, ReceivedAt: req.ReceivedAt}
		}
	} else {
		e, err = mailparse.ReadEmail(io.LimitReader(r.Body, maxEmailBytes))
		if err != nil {
			err = errors.Join(err, errBadRequest)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(e.Subject) == "" && strings.TrimSpace(e.Body) == "" {
		ErrorResponse(http.StatusBadRequest, "email needs a subject or a body").Write(w)
		return
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = s.now()
	}
	writeJSON(w, http.StatusOK, s.svc.Ingest.Preview(e))
}

// handleSyncEmail runs one ingest batch synchronously.
func (s *Server) handleSyncEmail(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ingest == nil || !s.svc.Ingest.HasSource() {
		writeError(w, r, errNoMailbox)
		return
	}
	run, err := s.svc.Ingest.Run(r.Context())
	if errors.Is(err, services.ErrEmailSyncDisabled) {
		writeError(w, r, err)
		return
	}
	if err != nil && run.ID == "" {
		writeError(w, r, err)
		return
	}
	if err != nil {
		// The run was recorded; report it with the failure.
		writeJSON(w, http.StatusBadGateway, run)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleIngestRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			ErrorResponse(http.StatusBadRequest, "limit must be between 1 and 100").Write(w)
			return
		}
		limit = n
	}
	runs, err := s.svc.Ingest.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.IngestRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}
