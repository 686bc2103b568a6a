package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/adapter/repo"
	"server/internal/infra"
)

// ngoverify marks an NGO as verified (or revokes verification). The
// flag is display metadata for donors; it never gates fund release.
func main() {
	var (
		idFlag     string
		revokeFlag bool
	)

	flag.StringVar(&idFlag, "id", "", "NGO ID to update (UUID)")
	flag.BoolVar(&revokeFlag, "revoke", false, "revoke verification instead of granting it")
	flag.Parse()

	ngoID := strings.TrimSpace(idFlag)
	if ngoID == "" {
		exitWithError(errors.New("-id is required"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "ngoverify").Logger()
	store := repo.NewLedgerPG(pool, logger)

	name, err := store.SetNGOVerified(ctx, ngoID, !revokeFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update NGO: %w", err))
	}

	state := "verified"
	if revokeFlag {
		state = "unverified"
	}
	fmt.Printf("NGO %s (%s) is now %s\n", ngoID, name, state)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
