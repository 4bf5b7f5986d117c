package repository

import (
	"context"

	"classboard/internal/domain"
)

// ClassRepository defines class registry operations
type ClassRepository interface {
	// ListClasses returns classes ordered by creation time. Archived classes
	// are skipped unless includeArchived is set.
	ListClasses(ctx context.Context, includeArchived bool) ([]domain.Class, error)

	// GetClass returns nil, nil when the class does not exist
	GetClass(ctx context.Context, classID string) (*domain.Class, error)

	// CreateClass fails with a conflict error when the id is taken
	CreateClass(ctx context.Context, class *domain.Class) error
}

// TeamRepository defines team registry operations
type TeamRepository interface {
	// ListTeams returns the teams of a class ordered by id
	ListTeams(ctx context.Context, classID string) ([]domain.Team, error)

	// CreateTeam fails with a conflict error when the id is taken
	CreateTeam(ctx context.Context, team *domain.Team) error
}

// SessionRepository defines session document operations
type SessionRepository interface {
	// GetSession returns nil, nil when the session does not exist
	GetSession(ctx context.Context, classID, sessionID string) (*domain.Session, error)

	// ListSessions returns sessions ordered by creation time
	ListSessions(ctx context.Context, classID string) ([]domain.Session, error)

	CreateSession(ctx context.Context, session *domain.Session) error

	// UpdateSession overwrites the stored session document
	UpdateSession(ctx context.Context, session *domain.Session) error
}

// VoteRepository defines rating record operations. Each Put is a full
// overwrite of one document; there is no version check.
type VoteRepository interface {
	ListPeerVotes(ctx context.Context, key domain.SessionKey) ([]domain.PeerVote, error)
	ListTeacherVotes(ctx context.Context, key domain.SessionKey) ([]domain.TeacherVote, error)

	// GetPeerVote returns nil, nil when the voter has no record
	GetPeerVote(ctx context.Context, key domain.SessionKey, voterID string) (*domain.PeerVote, error)

	PutPeerVote(ctx context.Context, key domain.SessionKey, vote *domain.PeerVote) error
	PutTeacherVote(ctx context.Context, key domain.SessionKey, vote *domain.TeacherVote) error
}

// HealthChecker reports backend reachability
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Classes  ClassRepository
	Teams    TeamRepository
	Sessions SessionRepository
	Votes    VoteRepository
	Health   HealthChecker
}
