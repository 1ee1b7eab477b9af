package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-form-dispatch/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error onto a status and a stable error_code.
// Storage details are logged, not returned.
func httpError(w http.ResponseWriter, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrExpired):
		status, code = http.StatusGone, "expired"
	case errors.Is(err, domain.ErrAlreadyUsed):
		status, code = http.StatusConflict, "used"
	case errors.Is(err, domain.ErrMismatch):
		status, code = http.StatusUnprocessableEntity, "mismatch"
	case errors.Is(err, domain.ErrTransportUnavailable):
		slog.Error("mail transport unavailable", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, MessageEnvelope{Error: "mail transport unavailable", ErrorCode: "transport_unavailable"})
		return
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	default:
		slog.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, MessageEnvelope{Error: "internal error", ErrorCode: "storage"})
		return
	}
	writeJSON(w, status, MessageEnvelope{Error: err.Error(), ErrorCode: code})
}
