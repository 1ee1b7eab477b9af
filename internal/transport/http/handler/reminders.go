package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/domain"
)

type SweepRequest struct {
	Limit int `json:"limit"`
}

type ReminderHandler struct {
	svc      reminder.Service
	settings settingsSource
	limit    domain.RateLimit
}

func NewReminderHandler(svc reminder.Service, settings settingsSource, limit domain.RateLimit) *ReminderHandler {
	return &ReminderHandler{svc: svc, settings: settings, limit: limit}
}

func (h *ReminderHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	settings, err := h.settings.Snapshot(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	report, err := h.svc.RunReminderSweep(r.Context(), settings, reminder.SweepOptions{Limit: req.Limit, RateLimit: h.limit})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
