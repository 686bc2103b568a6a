package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/service"
)

// App is the handler container; it owns the fund-release service and
// the response helpers shared by all endpoints.
type App struct {
	Svc *service.Service
	Log zerolog.Logger
}

func NewApp(svc *service.Service, logger zerolog.Logger) *App {
	return &App{Svc: svc, Log: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}

// fail translates the domain error taxonomy into HTTP responses.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotEligible):
		a.error(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, domain.ErrVotesCast):
		a.error(w, http.StatusConflict, "votes_cast", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		a.error(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrStateConflict):
		a.error(w, http.StatusConflict, "state_conflict", err.Error())
	default:
		a.Log.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentDonorID(r *http.Request) string {
	return middleware.DonorIDFromContext(r.Context())
}
