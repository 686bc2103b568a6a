package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/service"
)

type campaignCreateRequest struct {
	NGOID        string `json:"ngo_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Purpose      string `json:"purpose"`
	Location     string `json:"location"`
	TargetAmount int64  `json:"target_amount"`
	StartDate    int64  `json:"start_date"` // nanoseconds since epoch
	EndDate      int64  `json:"end_date"`
}

func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var req campaignCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	c, err := a.Svc.CreateCampaign(r.Context(), service.CreateCampaignInput{
		NGOID:        req.NGOID,
		Title:        req.Title,
		Description:  req.Description,
		Purpose:      req.Purpose,
		Location:     req.Location,
		TargetAmount: req.TargetAmount,
		StartDate:    fromNanos(req.StartDate),
		EndDate:      fromNanos(req.EndDate),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, campaignJSON(*c))
}

func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Svc.ListCampaigns(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, len(items))
	for i, c := range items {
		out[i] = campaignJSON(c)
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.Svc.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, campaignJSON(*c))
}

func (a *App) CampaignsCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Svc.CancelCampaign(r.Context(), id); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"id": id, "status": "cancelled"})
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
