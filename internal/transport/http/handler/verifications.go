package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-form-dispatch/internal/application/verification"
	"github.com/go-form-dispatch/internal/domain"
)

type settingsSource interface {
	Snapshot(ctx context.Context) (domain.Settings, error)
}

type IssueCodeRequest struct {
	Email      string            `json:"email"`
	ActionType domain.ActionType `json:"action_type"`
	ActionData json.RawMessage   `json:"action_data"`
}

type ValidateCodeRequest struct {
	Code string `json:"code"`
}

type ValidateCodeResponse struct {
	ActionType domain.ActionType    `json:"action_type"`
	ActionData domain.ActionPayload `json:"action_data"`
}

type IssueCodeResponse struct {
	CodeID      string             `json:"code_id"`
	ExpiresAt   time.Time          `json:"expires_at"`
	EmailStatus domain.EmailStatus `json:"email_status"`
}

// VerificationHandler exposes the code issue and validate endpoints.
type VerificationHandler struct {
	svc      verification.Service
	settings settingsSource
}

func NewVerificationHandler(svc verification.Service, settings settingsSource) *VerificationHandler {
	return &VerificationHandler{svc: svc, settings: settings}
}

func (h *VerificationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action, err := domain.DecodeAction(req.ActionType, req.ActionData)
	if err != nil {
		httpError(w, err)
		return
	}
	settings, err := h.settings.Snapshot(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	res, err := h.svc.IssueCode(r.Context(), settings, verification.IssueCodeRequest{Email: req.Email, Action: action})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IssueCodeResponse{
		CodeID:      res.CodeID,
		ExpiresAt:   res.ExpiresAt,
		EmailStatus: res.EmailStatus,
	})
}

func (h *VerificationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.ValidateCode(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidateCodeResponse{ActionType: res.ActionType, ActionData: res.Action})
}
