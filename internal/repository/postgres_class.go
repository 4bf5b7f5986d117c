package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"classboard/internal/domain"
	"classboard/pkg/database"
)

type ClassPostgresRepository struct {
	db *database.PostgresDB
}

func NewClassPostgresRepository(db *database.PostgresDB) *ClassPostgresRepository {
	return &ClassPostgresRepository{db: db}
}

// ListClasses lists classes, optionally including archived ones
func (r *ClassPostgresRepository) ListClasses(ctx context.Context, includeArchived bool) ([]domain.Class, error) {
	query := `
		SELECT id, name, archived, created_at
		FROM classes
		WHERE $1 OR archived = FALSE
		ORDER BY created_at, id
	`

	rows, err := r.db.Pool.Query(ctx, query, includeArchived)
	if err != nil {
		return nil, storeError("list classes", err)
	}
	defer rows.Close()

	classes := make([]domain.Class, 0)
	for rows.Next() {
		var c domain.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Archived, &c.CreatedAt); err != nil {
			return nil, storeError("scan class", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list classes", err)
	}
	return classes, nil
}

// GetClass gets a class by ID
func (r *ClassPostgresRepository) GetClass(ctx context.Context, classID string) (*domain.Class, error) {
	var c domain.Class
	query := `SELECT id, name, archived, created_at FROM classes WHERE id = $1`

	err := r.db.Pool.QueryRow(ctx, query, classID).Scan(&c.ID, &c.Name, &c.Archived, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get class", err)
	}
	return &c, nil
}

// CreateClass inserts a class
func (r *ClassPostgresRepository) CreateClass(ctx context.Context, class *domain.Class) error {
	query := `
		INSERT INTO classes (id, name, archived, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, class.ID, class.Name, class.Archived, class.CreatedAt)
	if err != nil {
		return storeError("create class", err)
	}
	if tag.RowsAffected() == 0 {
		return duplicateError("class", class.ID)
	}
	return nil
}

type TeamPostgresRepository struct {
	db *database.PostgresDB
}

func NewTeamPostgresRepository(db *database.PostgresDB) *TeamPostgresRepository {
	return &TeamPostgresRepository{db: db}
}

// ListTeams lists the teams of a class
func (r *TeamPostgresRepository) ListTeams(ctx context.Context, classID string) ([]domain.Team, error) {
	query := `
		SELECT id, class_id, name, created_at
		FROM teams
		WHERE class_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, classID)
	if err != nil {
		return nil, storeError("list teams", err)
	}
	defer rows.Close()

	teams := make([]domain.Team, 0)
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.ClassID, &t.Name, &t.CreatedAt); err != nil {
			return nil, storeError("scan team", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list teams", err)
	}
	return teams, nil
}

// CreateTeam inserts a team
func (r *TeamPostgresRepository) CreateTeam(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (class_id, id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (class_id, id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, team.ClassID, team.ID, team.Name, team.CreatedAt)
	if err != nil {
		return storeError("create team", err)
	}
	if tag.RowsAffected() == 0 {
		return duplicateError("team", team.ID)
	}
	return nil
}
