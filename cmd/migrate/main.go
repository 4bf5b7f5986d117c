package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"classboard/internal/config"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed]"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn, os.Getenv("CATEGORIES_FILE")); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS teacher_votes CASCADE`,
		`DROP TABLE IF EXISTS peer_votes CASCADE`,
		`DROP TABLE IF EXISTS sessions CASCADE`,
		`DROP TABLE IF EXISTS teams CASCADE`,
		`DROP TABLE IF EXISTS classes CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}
	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			archived   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS teams (
			class_id   TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			id         TEXT NOT NULL,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (class_id, id)
		)`,

		// Categories are frozen at creation and stored inline
		`CREATE TABLE IF NOT EXISTS sessions (
			class_id    TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			id          TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags        TEXT[] NOT NULL DEFAULT '{}',
			categories  JSONB NOT NULL,
			teacher_pct INTEGER NOT NULL DEFAULT 50,
			peers_pct   INTEGER NOT NULL DEFAULT 50,
			status      TEXT NOT NULL DEFAULT 'scheduled'
				CHECK (status IN ('scheduled', 'open', 'closed', 'archived')),
			allow_edits BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			opened_at   TIMESTAMPTZ,
			closed_at   TIMESTAMPTZ,
			archived_at TIMESTAMPTZ,
			PRIMARY KEY (class_id, id)
		)`,

		// One live record per voter per session
		`CREATE TABLE IF NOT EXISTS peer_votes (
			class_id       TEXT NOT NULL,
			session_id     TEXT NOT NULL,
			voter_id       TEXT NOT NULL,
			team_id        TEXT NOT NULL,
			ratings        JSONB NOT NULL,
			super_vote     BOOLEAN NOT NULL DEFAULT FALSE,
			edited_history JSONB NOT NULL DEFAULT '[]',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (class_id, session_id, voter_id),
			FOREIGN KEY (class_id, session_id) REFERENCES sessions(class_id, id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS teacher_votes (
			class_id     TEXT NOT NULL,
			session_id   TEXT NOT NULL,
			evaluator_id TEXT NOT NULL,
			team_id      TEXT NOT NULL,
			ratings      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (class_id, session_id, evaluator_id),
			FOREIGN KEY (class_id, session_id) REFERENCES sessions(class_id, id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(class_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_peer_votes_team ON peer_votes(class_id, session_id, team_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// seedData creates a demo class with three teams and one open session using
// the default category set.
func seedData(ctx context.Context, conn *pgx.Conn, categoriesFile string) error {
	pool, err := config.LoadCategoryPool(categoriesFile)
	if err != nil {
		return err
	}
	categories, err := json.Marshal(pool.DefaultSet())
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	now := time.Now().UTC()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO classes (id, name) VALUES ('demo', 'Demo Class') ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("failed to seed class: %w", err)
	}

	teams := []struct{ id, name string }{
		{"team-a", "Team Alpha"},
		{"team-b", "Team Bravo"},
		{"team-c", "Team Charlie"},
	}
	for _, team := range teams {
		if _, err := tx.Exec(ctx,
			`INSERT INTO teams (class_id, id, name) VALUES ('demo', $1, $2) ON CONFLICT (class_id, id) DO NOTHING`,
			team.id, team.name); err != nil {
			return fmt.Errorf("failed to seed team %s: %w", team.id, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions (class_id, id, title, categories, status, created_at, opened_at)
		VALUES ('demo', 'session-1', 'Session 1', $1, 'open', $2, $2)
		ON CONFLICT (class_id, id) DO NOTHING`,
		categories, now); err != nil {
		return fmt.Errorf("failed to seed session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	fmt.Printf("  Seeded class demo with %d teams and %d categories\n", len(teams), len(pool.DefaultSet()))
	return nil
}
