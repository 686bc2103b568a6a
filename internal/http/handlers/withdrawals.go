package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type withdrawalCreateRequest struct {
	Amount  int64  `json:"amount"`
	Purpose string `json:"purpose"`
}

func (a *App) WithdrawalsCreate(w http.ResponseWriter, r *http.Request) {
	var req withdrawalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	wr, err := a.Svc.CreateWithdrawal(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Purpose)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, withdrawalJSON(*wr, domain.Tally{}))
}

func (a *App) WithdrawalsListByCampaign(w http.ResponseWriter, r *http.Request) {
	requests, tallies, err := a.Svc.ListCampaignWithdrawals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, len(requests))
	for i := range requests {
		out[i] = withdrawalJSON(requests[i], tallies[i])
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) WithdrawalsGet(w http.ResponseWriter, r *http.Request) {
	wr, t, err := a.Svc.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, withdrawalJSON(*wr, t))
}

type voteRequest struct {
	Choice string `json:"choice"`
}

func (a *App) WithdrawalsVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	donorID := a.currentDonorID(r)
	if donorID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing donor identity")
		return
	}
	if err := a.Svc.CastVote(r.Context(), chi.URLParam(r, "id"), donorID, domain.VoteChoice(req.Choice)); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) WithdrawalsResolve(w http.ResponseWriter, r *http.Request) {
	status, err := a.Svc.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"status": string(status)})
}

func (a *App) WithdrawalsExecute(w http.ResponseWriter, r *http.Request) {
	if err := a.Svc.Execute(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	wr, t, err := a.Svc.GetWithdrawal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, withdrawalJSON(*wr, t))
}

func (a *App) WithdrawalsCancel(w http.ResponseWriter, r *http.Request) {
	if err := a.Svc.CancelWithdrawal(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
