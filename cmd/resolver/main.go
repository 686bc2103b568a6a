package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/service"
)

// The resolver settles withdrawal requests whose voting window has
// expired, so outcomes land even when nobody reads the request again.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "resolver").Logger()

	if cfg.StoreDriver != "postgres" {
		logger.Fatal().Msg("resolver: requires STORE_DRIVER=postgres (memory stores are process-local)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("resolver: db connection failed")
	}
	defer pool.Close()

	svc := service.New(repo.NewLedgerPG(pool, logger), logger).WithVotingWindow(cfg.VotingWindow)

	logger.Info().Dur("interval", cfg.ResolverInterval).Msg("resolver: started")

	ticker := time.NewTicker(cfg.ResolverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				logger.Error().Err(ctx.Err()).Msg("resolver: stopped with error")
			}
			logger.Info().Msg("resolver: stopped")
			return
		case <-ticker.C:
			n, err := svc.ResolveDue(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("resolver: sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("settled", n).Msg("resolver: settled expired requests")
			}
		}
	}
}
