package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classboard/internal/domain"
	"classboard/pkg/database"
)

type SessionPostgresRepository struct {
	db *database.PostgresDB
}

func NewSessionPostgresRepository(db *database.PostgresDB) *SessionPostgresRepository {
	return &SessionPostgresRepository{db: db}
}

const sessionColumns = `
	id, class_id, title, description, tags, categories, teacher_pct, peers_pct,
	status, allow_edits, created_at, opened_at, closed_at, archived_at
`

// GetSession gets a session by class and session ID
func (r *SessionPostgresRepository) GetSession(ctx context.Context, classID, sessionID string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE class_id = $1 AND id = $2`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, classID, sessionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get session", err)
	}
	return s, nil
}

// ListSessions lists the sessions of a class in creation order
func (r *SessionPostgresRepository) ListSessions(ctx context.Context, classID string) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE class_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Pool.Query(ctx, query, classID)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, storeError("scan session", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list sessions", err)
	}
	return sessions, nil
}

// CreateSession inserts a session
func (r *SessionPostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	categories, err := json.Marshal(s.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (class_id, id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		s.ID,
		s.ClassID,
		s.Title,
		s.Description,
		tagsOrEmpty(s.Tags),
		categories,
		s.Weighting.TeacherPct,
		s.Weighting.PeersPct,
		string(s.Status),
		s.AllowEditsUntilClose,
		s.CreatedAt,
		s.OpenedAt,
		s.ClosedAt,
		s.ArchivedAt,
	)
	if err != nil {
		return storeError("create session", err)
	}
	if tag.RowsAffected() == 0 {
		return duplicateError("session", s.ID)
	}
	return nil
}

// UpdateSession overwrites the mutable session fields. Categories are
// fixed at creation and never rewritten.
func (r *SessionPostgresRepository) UpdateSession(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET title = $3, description = $4, tags = $5, teacher_pct = $6, peers_pct = $7,
		    status = $8, allow_edits = $9, opened_at = $10, closed_at = $11, archived_at = $12
		WHERE class_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		s.ClassID,
		s.ID,
		s.Title,
		s.Description,
		tagsOrEmpty(s.Tags),
		s.Weighting.TeacherPct,
		s.Weighting.PeersPct,
		string(s.Status),
		s.AllowEditsUntilClose,
		s.OpenedAt,
		s.ClosedAt,
		s.ArchivedAt,
	)
	if err != nil {
		return storeError("update session", err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundError("session", s.ID)
	}
	return nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s          domain.Session
		status     string
		categories []byte
	)
	err := row.Scan(
		&s.ID,
		&s.ClassID,
		&s.Title,
		&s.Description,
		&s.Tags,
		&categories,
		&s.Weighting.TeacherPct,
		&s.Weighting.PeersPct,
		&status,
		&s.AllowEditsUntilClose,
		&s.CreatedAt,
		&s.OpenedAt,
		&s.ClosedAt,
		&s.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SessionStatus(status)
	if err := json.Unmarshal(categories, &s.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return &s, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
