package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classboard/internal/config"
	"classboard/internal/domain"
	"classboard/internal/repository"
	apperrors "classboard/pkg/errors"
)

// Default weighting shares when a session is created without them.
const (
	DefaultTeacherPct = 50
	DefaultPeersPct   = 50
)

// allowedTransitions lists the legal status moves. Closing can be undone by
// reopening; archiving is final.
var allowedTransitions = map[domain.SessionStatus][]domain.SessionStatus{
	domain.StatusScheduled: {domain.StatusOpen},
	domain.StatusOpen:      {domain.StatusClosed},
	domain.StatusClosed:    {domain.StatusOpen, domain.StatusArchived},
}

// SessionService manages classes, their teams and their sessions.
type SessionService struct {
	classes  repository.ClassRepository
	teams    repository.TeamRepository
	sessions repository.SessionRepository
	pool     *config.CategoryPool
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewSessionService(repos *repository.Repositories, pool *config.CategoryPool, logger *zap.Logger) *SessionService {
	return &SessionService{
		classes:  repos.Classes,
		teams:    repos.Teams,
		sessions: repos.Sessions,
		pool:     pool,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// CategoryPool returns the categories sessions can be created with.
func (s *SessionService) CategoryPool() *config.CategoryPool {
	return s.pool
}

func (s *SessionService) ListClasses(ctx context.Context, includeArchived bool) ([]domain.Class, error) {
	return s.classes.ListClasses(ctx, includeArchived)
}

func (s *SessionService) CreateClass(ctx context.Context, req *domain.CreateClassRequest) (*domain.Class, error) {
	class := &domain.Class{
		ID:        s.idOr(req.ID),
		Name:      req.Name,
		CreatedAt: s.now(),
	}
	if err := s.classes.CreateClass(ctx, class); err != nil {
		return nil, err
	}
	s.logger.Info("class created", zap.String("class_id", class.ID))
	return class, nil
}

// GetClass returns a not found error when the class is absent.
func (s *SessionService) GetClass(ctx context.Context, classID string) (*domain.Class, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, apperrors.NewNotFoundError("class not found")
	}
	return class, nil
}

func (s *SessionService) ListTeams(ctx context.Context, classID string) ([]domain.Team, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return s.teams.ListTeams(ctx, classID)
}

func (s *SessionService) CreateTeam(ctx context.Context, classID string, req *domain.CreateTeamRequest) (*domain.Team, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	team := &domain.Team{
		ID:        s.idOr(req.ID),
		ClassID:   classID,
		Name:      req.Name,
		CreatedAt: s.now(),
	}
	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	s.logger.Info("team created", zap.String("class_id", classID), zap.String("team_id", team.ID))
	return team, nil
}

func (s *SessionService) ListSessions(ctx context.Context, classID string) ([]domain.Session, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return s.sessions.ListSessions(ctx, classID)
}

// GetSession returns a not found error when the session is absent.
func (s *SessionService) GetSession(ctx context.Context, classID, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.GetSession(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	return session, nil
}

// CreateSession creates a session, filling in defaults for anything the
// request leaves out. When only one weighting share is given the other is
// its complement to 100.
func (s *SessionService) CreateSession(ctx context.Context, classID string, req *domain.CreateSessionRequest) (*domain.Session, error) {
	existing, err := s.ListSessions(ctx, classID)
	if err != nil {
		return nil, err
	}

	categories := s.pool.DefaultSet()
	if len(req.CategoryIDs) > 0 {
		categories, err = s.pool.Pick(req.CategoryIDs)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]interface{}{"category_ids": req.CategoryIDs})
		}
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Session %d", len(existing)+1)
	}

	allowEdits := true
	if req.AllowEditsUntilClose != nil {
		allowEdits = *req.AllowEditsUntilClose
	}

	now := s.now()
	session := &domain.Session{
		ID:                   s.idOr(req.ID),
		ClassID:              classID,
		Title:                title,
		Description:          req.Description,
		Tags:                 req.Tags,
		Categories:           categories,
		Weighting:            resolveWeighting(req.TeacherPct, req.PeersPct),
		Status:               domain.StatusScheduled,
		AllowEditsUntilClose: allowEdits,
		CreatedAt:            now,
	}
	if session.Tags == nil {
		session.Tags = []string{}
	}
	if req.Status == string(domain.StatusOpen) {
		session.Status = domain.StatusOpen
		session.OpenedAt = &now
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		zap.String("class_id", classID),
		zap.String("session_id", session.ID),
		zap.Int("categories", len(categories)),
		zap.Int("teacher_pct", session.Weighting.TeacherPct),
		zap.Int("peers_pct", session.Weighting.PeersPct))
	return session, nil
}

// SetStatus moves a session through its lifecycle and stamps the matching
// timestamp. Setting the current status again is a no-op.
func (s *SessionService) SetStatus(ctx context.Context, classID, sessionID string, status domain.SessionStatus) (*domain.Session, error) {
	session, err := s.GetSession(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == status {
		return session, nil
	}
	if !canTransition(session.Status, status) {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("cannot move session from %s to %s", session.Status, status),
			map[string]interface{}{"from": session.Status, "to": status},
		)
	}

	now := s.now()
	switch status {
	case domain.StatusOpen:
		session.OpenedAt = &now
	case domain.StatusClosed:
		session.ClosedAt = &now
	case domain.StatusArchived:
		session.ArchivedAt = &now
	}
	previous := session.Status
	session.Status = status

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session status changed",
		zap.String("class_id", classID),
		zap.String("session_id", sessionID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	return session, nil
}

// CurrentSession picks the session a public display should show: the first
// open session, otherwise the most recently created visible one.
func (s *SessionService) CurrentSession(ctx context.Context, classID string) (*domain.Session, error) {
	sessions, err := s.ListSessions(ctx, classID)
	if err != nil {
		return nil, err
	}

	var latest *domain.Session
	for i := range sessions {
		sess := &sessions[i]
		if !sess.Status.Visible() {
			continue
		}
		if sess.Status == domain.StatusOpen {
			return sess, nil
		}
		latest = sess
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError("no active or recent sessions")
	}
	return latest, nil
}

func (s *SessionService) idOr(id string) string {
	if id != "" {
		return id
	}
	return s.newID()
}

func canTransition(from, to domain.SessionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func resolveWeighting(teacherPct, peersPct *int) domain.Weighting {
	switch {
	case teacherPct != nil && peersPct != nil:
		return domain.Weighting{TeacherPct: *teacherPct, PeersPct: *peersPct}
	case teacherPct != nil:
		return domain.Weighting{TeacherPct: *teacherPct, PeersPct: 100 - *teacherPct}
	case peersPct != nil:
		return domain.Weighting{TeacherPct: 100 - *peersPct, PeersPct: *peersPct}
	default:
		return domain.Weighting{TeacherPct: DefaultTeacherPct, PeersPct: DefaultPeersPct}
	}
}
