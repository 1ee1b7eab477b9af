package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-form-dispatch/internal/application/dispatch"
	"github.com/go-form-dispatch/internal/domain"
)

// DispatchRequest sends one template. Without recipients the settings'
// distribution policy picks them.
type DispatchRequest struct {
	Subject    string                      `json:"subject"`
	HTMLBody   string                      `json:"html_body"`
	TextBody   string                      `json:"text_body"`
	Recipients []domain.NotificationTarget `json:"recipients,omitempty"`
}

type DispatchHandler struct {
	svc      dispatch.Service
	settings settingsSource
	limit    domain.RateLimit
}

func NewDispatchHandler(svc dispatch.Service, settings settingsSource, limit domain.RateLimit) *DispatchHandler {
	return &DispatchHandler{svc: svc, settings: settings, limit: limit}
}

func (h *DispatchHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tmpl := domain.Template{Subject: req.Subject, HTMLBody: req.HTMLBody, TextBody: req.TextBody}

	var (
		report domain.DispatchReport
		err    error
	)
	if req.Recipients != nil {
		report, err = h.svc.Send(r.Context(), tmpl, req.Recipients, h.limit)
	} else {
		settings, serr := h.settings.Snapshot(r.Context())
		if serr != nil {
			httpError(w, serr)
			return
		}
		report, err = h.svc.Announce(r.Context(), settings, tmpl, h.limit)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
