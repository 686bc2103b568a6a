package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type ngoCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (a *App) NGOsCreate(w http.ResponseWriter, r *http.Request) {
	var req ngoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ngo, err := a.Svc.CreateNGO(r.Context(), req.Name, req.Description, req.Location)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, ngoJSON(*ngo))
}

func (a *App) NGOsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Svc.ListNGOs(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, len(items))
	for i, n := range items {
		out[i] = ngoJSON(n)
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) NGOsGet(w http.ResponseWriter, r *http.Request) {
	ngo, err := a.Svc.GetNGO(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, ngoJSON(*ngo))
}

func (a *App) NGOsTop(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 {
		n = 10
	}
	items, err := a.Svc.TopNGOs(r.Context(), n)
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, len(items))
	for i, ngo := range items {
		entry := ngoJSON(ngo)
		entry["rank"] = i + 1
		if rate, ok := ngo.ApprovalRate(); ok {
			entry["approval_rate"] = rate
		}
		out[i] = entry
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
