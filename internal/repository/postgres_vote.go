package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"classboard/internal/domain"
	"classboard/pkg/database"
)

type VotePostgresRepository struct {
	db *database.PostgresDB
}

func NewVotePostgresRepository(db *database.PostgresDB) *VotePostgresRepository {
	return &VotePostgresRepository{db: db}
}

// ListPeerVotes returns every peer record of a session
func (r *VotePostgresRepository) ListPeerVotes(ctx context.Context, key domain.SessionKey) ([]domain.PeerVote, error) {
	query := `
		SELECT voter_id, team_id, ratings, super_vote, edited_history, created_at, updated_at
		FROM peer_votes
		WHERE class_id = $1 AND session_id = $2
		ORDER BY voter_id
	`

	rows, err := r.db.Pool.Query(ctx, query, key.ClassID, key.SessionID)
	if err != nil {
		return nil, storeError("list peer votes", err)
	}
	defer rows.Close()

	votes := make([]domain.PeerVote, 0)
	for rows.Next() {
		v, err := scanPeerVote(rows)
		if err != nil {
			return nil, storeError("scan peer vote", err)
		}
		votes = append(votes, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list peer votes", err)
	}
	return votes, nil
}

// ListTeacherVotes returns every evaluator record of a session
func (r *VotePostgresRepository) ListTeacherVotes(ctx context.Context, key domain.SessionKey) ([]domain.TeacherVote, error) {
	query := `
		SELECT evaluator_id, team_id, ratings, created_at, updated_at
		FROM teacher_votes
		WHERE class_id = $1 AND session_id = $2
		ORDER BY evaluator_id
	`

	rows, err := r.db.Pool.Query(ctx, query, key.ClassID, key.SessionID)
	if err != nil {
		return nil, storeError("list teacher votes", err)
	}
	defer rows.Close()

	votes := make([]domain.TeacherVote, 0)
	for rows.Next() {
		var (
			v       domain.TeacherVote
			ratings []byte
		)
		if err := rows.Scan(&v.UserID, &v.TeamID, &ratings, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, storeError("scan teacher vote", err)
		}
		if err := json.Unmarshal(ratings, &v.Ratings); err != nil {
			return nil, storeError("decode teacher ratings", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list teacher votes", err)
	}
	return votes, nil
}

// GetPeerVote gets one voter's record
func (r *VotePostgresRepository) GetPeerVote(ctx context.Context, key domain.SessionKey, voterID string) (*domain.PeerVote, error) {
	query := `
		SELECT voter_id, team_id, ratings, super_vote, edited_history, created_at, updated_at
		FROM peer_votes
		WHERE class_id = $1 AND session_id = $2 AND voter_id = $3
	`

	v, err := scanPeerVote(r.db.Pool.QueryRow(ctx, query, key.ClassID, key.SessionID, voterID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get peer vote", err)
	}
	return v, nil
}

// PutPeerVote writes the voter's record, replacing any previous one
func (r *VotePostgresRepository) PutPeerVote(ctx context.Context, key domain.SessionKey, v *domain.PeerVote) error {
	ratings, err := json.Marshal(v.Ratings)
	if err != nil {
		return fmt.Errorf("failed to encode ratings: %w", err)
	}
	history := v.EditedHistory
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO peer_votes (
			class_id, session_id, voter_id, team_id, ratings, super_vote,
			edited_history, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (class_id, session_id, voter_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			ratings = EXCLUDED.ratings,
			super_vote = EXCLUDED.super_vote,
			edited_history = EXCLUDED.edited_history,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Pool.Exec(ctx, query,
		key.ClassID,
		key.SessionID,
		v.UserID,
		v.TeamID,
		ratings,
		v.SuperVote,
		historyJSON,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return storeError("write peer vote", err)
	}
	return nil
}

// PutTeacherVote writes the evaluator's record, replacing any previous one
func (r *VotePostgresRepository) PutTeacherVote(ctx context.Context, key domain.SessionKey, v *domain.TeacherVote) error {
	ratings, err := json.Marshal(v.Ratings)
	if err != nil {
		return fmt.Errorf("failed to encode ratings: %w", err)
	}

	query := `
		INSERT INTO teacher_votes (class_id, session_id, evaluator_id, team_id, ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (class_id, session_id, evaluator_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			ratings = EXCLUDED.ratings,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Pool.Exec(ctx, query,
		key.ClassID,
		key.SessionID,
		v.UserID,
		v.TeamID,
		ratings,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return storeError("write teacher vote", err)
	}
	return nil
}

func scanPeerVote(row pgx.Row) (*domain.PeerVote, error) {
	var (
		v       domain.PeerVote
		ratings []byte
		history []byte
	)
	if err := row.Scan(&v.UserID, &v.TeamID, &ratings, &v.SuperVote, &history, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(ratings, &v.Ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &v.EditedHistory); err != nil {
			return nil, fmt.Errorf("failed to decode history: %w", err)
		}
	}
	return &v, nil
}

// NewPostgresRepositories wires every repository onto one pool
func NewPostgresRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Classes:  NewClassPostgresRepository(db),
		Teams:    NewTeamPostgresRepository(db),
		Sessions: NewSessionPostgresRepository(db),
		Votes:    NewVotePostgresRepository(db),
		Health:   db,
	}
}
