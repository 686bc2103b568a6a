package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/infra"
	appmw "server/internal/middleware"
)

func NewRouter(app *handlers.App, log zerolog.Logger, cfg *infra.Config, lookup appmw.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		appmw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		appmw.Logger(log),
		appmw.CORS(splitOrigins(cfg.AllowedOrigins)),
		appmw.RateLimit(cfg.RateLimitPerMin, time.Minute),
		appmw.I18N(cfg.DefaultLocale, lookup),
		appmw.DonorIdentity,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/ngos", func(r chi.Router) {
		r.Post("/", app.NGOsCreate)
		r.Get("/", app.NGOsList)
		r.Get("/top", app.NGOsTop)
		r.Get("/{id}", app.NGOsGet)
	})

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Post("/", app.CampaignsCreate)
		r.Get("/", app.CampaignsList)
		r.Get("/{id}", app.CampaignsGet)
		r.Post("/{id}/cancel", app.CampaignsCancel)
		r.Post("/{id}/donations", app.DonationsCreate)
		r.Get("/{id}/donations", app.DonationsList)
		r.Post("/{id}/withdrawals", app.WithdrawalsCreate)
		r.Get("/{id}/withdrawals", app.WithdrawalsListByCampaign)
	})

	r.Route("/v1/withdrawals", func(r chi.Router) {
		r.Get("/{id}", app.WithdrawalsGet)
		r.Post("/{id}/votes", app.WithdrawalsVote)
		r.Post("/{id}/resolve", app.WithdrawalsResolve)
		r.Post("/{id}/execute", app.WithdrawalsExecute)
		r.Post("/{id}/cancel", app.WithdrawalsCancel)
	})

	r.Get("/v1/stats/summary", app.StatsSummary)

	return r
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
