package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func reminderRouter(svc *mockReminderSvc, settings *mockSettings) http.Handler {
	h := NewReminderHandler(svc, settings, testLimit)
	r := chi.NewRouter()
	r.Post("/v1/reminders/sweep", h.Sweep)
	return r
}

func TestSweep_WithLimit(t *testing.T) {
	svc := new(mockReminderSvc)
	settings := new(mockSettings)
	snapshot := domain.Settings{ReminderIntervalDays: 30}
	settings.On("Snapshot", mock.Anything).Return(snapshot, nil)
	svc.On("RunReminderSweep", mock.Anything, snapshot, reminder.SweepOptions{Limit: 10, RateLimit: testLimit}).
		Return(&reminder.SweepReport{DueCount: 12, RemindedIDs: []string{"it1"}}, nil)

	rr := postJSON(t, reminderRouter(svc, settings), "/v1/reminders/sweep", `{"limit":10}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"due_count":12`)
}

func TestSweep_EmptyBody(t *testing.T) {
	svc := new(mockReminderSvc)
	settings := new(mockSettings)
	settings.On("Snapshot", mock.Anything).Return(domain.Settings{}, nil)
	svc.On("RunReminderSweep", mock.Anything, domain.Settings{}, reminder.SweepOptions{RateLimit: testLimit}).
		Return(&reminder.SweepReport{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/reminders/sweep", http.NoBody)
	rr := httptest.NewRecorder()
	reminderRouter(svc, settings).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSweep_NegativeLimit(t *testing.T) {
	svc := new(mockReminderSvc)
	rr := postJSON(t, reminderRouter(svc, new(mockSettings)), "/v1/reminders/sweep", `{"limit":-1}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "RunReminderSweep")
}

func TestSweep_SettingsUnavailable(t *testing.T) {
	settings := new(mockSettings)
	settings.On("Snapshot", mock.Anything).Return(domain.Settings{}, domain.ErrStorage)

	rr := postJSON(t, reminderRouter(new(mockReminderSvc), settings), "/v1/reminders/sweep", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHealth_Ping(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/health-check/{action}", NewHealthHandler().Ping)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health-check/other", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
