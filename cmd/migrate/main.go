package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// migrate applies the SQL files under -dir in lexical order, recording
// each applied file in schema_migrations so reruns are no-ops.
func main() {
	var dirFlag string
	flag.StringVar(&dirFlag, "dir", "migrations", "directory containing .sql migration files")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to open database: %w", err))
	}
	defer db.Close()
	db.SetConnMaxLifetime(time.Minute)

	if err := db.Ping(); err != nil {
		exitWithError(fmt.Errorf("failed to reach database: %w", err))
	}

	if _, err := db.Exec(`create table if not exists schema_migrations (
		name text primary key,
		applied_at timestamptz not null default now()
	)`); err != nil {
		exitWithError(fmt.Errorf("failed to prepare schema_migrations: %w", err))
	}

	files, err := migrationFiles(dirFlag)
	if err != nil {
		exitWithError(err)
	}

	applied := 0
	for _, name := range files {
		done, err := alreadyApplied(db, name)
		if err != nil {
			exitWithError(err)
		}
		if done {
			continue
		}
		if err := applyMigration(db, dirFlag, name); err != nil {
			exitWithError(fmt.Errorf("migration %s: %w", name, err))
		}
		fmt.Printf("applied %s\n", name)
		applied++
	}
	if applied == 0 {
		fmt.Println("nothing to apply")
	}
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func alreadyApplied(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(`select count(*) from schema_migrations where name = $1`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", name, err)
	}
	return n > 0, nil
}

func applyMigration(db *sql.DB, dir, name string) error {
	body, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(string(body)); err != nil {
		return err
	}
	if _, err := tx.Exec(`insert into schema_migrations(name) values ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
