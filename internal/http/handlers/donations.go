package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/middleware"
)

type donationRequest struct {
	Amount    int64 `json:"amount"`
	Anonymous bool  `json:"anonymous"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	donorID := a.currentDonorID(r)
	if donorID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing donor identity")
		return
	}
	campaignID := chi.URLParam(r, "id")
	country := middleware.CountryFromContext(r.Context())

	c, err := a.Svc.Donate(r.Context(), campaignID, donorID, req.Amount, req.Anonymous, country)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, campaignJSON(*c))
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Svc.ListDonations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, len(items))
	for i, d := range items {
		out[i] = donationJSON(d)
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
