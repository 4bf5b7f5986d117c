package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"classboard/internal/domain"
	"classboard/pkg/redis"
)

// RedisStore keeps every document as JSON inside per-collection hashes:
// one hash per class registry, team list, session list and vote collection,
// keyed by document id.
type RedisStore struct {
	client *redis.Client
	keys   *redis.KeyBuilder
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, keys: client.KeyBuilder}
}

// NewRedisRepositories exposes one RedisStore through every repository
func NewRedisRepositories(client *redis.Client) *Repositories {
	store := NewRedisStore(client)
	return &Repositories{
		Classes:  store,
		Teams:    store,
		Sessions: store,
		Votes:    store,
		Health:   client,
	}
}

func (s *RedisStore) ListClasses(ctx context.Context, includeArchived bool) ([]domain.Class, error) {
	all, err := decodeHash[domain.Class](ctx, s.client, s.keys.KeyClasses())
	if err != nil {
		return nil, storeError("list classes", err)
	}

	classes := make([]domain.Class, 0, len(all))
	for _, c := range all {
		if c.Archived && !includeArchived {
			continue
		}
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		if !classes[i].CreatedAt.Equal(classes[j].CreatedAt) {
			return classes[i].CreatedAt.Before(classes[j].CreatedAt)
		}
		return classes[i].ID < classes[j].ID
	})
	return classes, nil
}

func (s *RedisStore) GetClass(ctx context.Context, classID string) (*domain.Class, error) {
	var c domain.Class
	found, err := getField(ctx, s.client, s.keys.KeyClasses(), classID, &c)
	if err != nil {
		return nil, storeError("get class", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *RedisStore) CreateClass(ctx context.Context, class *domain.Class) error {
	return s.create(ctx, s.keys.KeyClasses(), "class", class.ID, class)
}

func (s *RedisStore) ListTeams(ctx context.Context, classID string) ([]domain.Team, error) {
	teams, err := decodeHash[domain.Team](ctx, s.client, s.keys.KeyClassTeams(classID))
	if err != nil {
		return nil, storeError("list teams", err)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (s *RedisStore) CreateTeam(ctx context.Context, team *domain.Team) error {
	return s.create(ctx, s.keys.KeyClassTeams(team.ClassID), "team", team.ID, team)
}

func (s *RedisStore) GetSession(ctx context.Context, classID, sessionID string) (*domain.Session, error) {
	var sess domain.Session
	found, err := getField(ctx, s.client, s.keys.KeyClassSessions(classID), sessionID, &sess)
	if err != nil {
		return nil, storeError("get session", err)
	}
	if !found {
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) ListSessions(ctx context.Context, classID string) ([]domain.Session, error) {
	sessions, err := decodeHash[domain.Session](ctx, s.client, s.keys.KeyClassSessions(classID))
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

func (s *RedisStore) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.create(ctx, s.keys.KeyClassSessions(session.ClassID), "session", session.ID, session)
}

// UpdateSession rewrites an existing session. It never recreates one that
// is gone.
func (s *RedisStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	key := s.keys.KeyClassSessions(session.ClassID)
	ok, err := s.client.HExists(ctx, key, session.ID)
	if err != nil {
		return storeError("update session", err)
	}
	if !ok {
		return notFoundError("session", session.ID)
	}
	return s.put(ctx, key, session.ID, session, "update session")
}

func (s *RedisStore) ListPeerVotes(ctx context.Context, key domain.SessionKey) ([]domain.PeerVote, error) {
	votes, err := decodeHash[domain.PeerVote](ctx, s.client, s.keys.KeyPeerVotes(key.ClassID, key.SessionID))
	if err != nil {
		return nil, storeError("list peer votes", err)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].UserID < votes[j].UserID })
	return votes, nil
}

func (s *RedisStore) ListTeacherVotes(ctx context.Context, key domain.SessionKey) ([]domain.TeacherVote, error) {
	votes, err := decodeHash[domain.TeacherVote](ctx, s.client, s.keys.KeyTeacherVotes(key.ClassID, key.SessionID))
	if err != nil {
		return nil, storeError("list teacher votes", err)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].UserID < votes[j].UserID })
	return votes, nil
}

func (s *RedisStore) GetPeerVote(ctx context.Context, key domain.SessionKey, voterID string) (*domain.PeerVote, error) {
	var v domain.PeerVote
	found, err := getField(ctx, s.client, s.keys.KeyPeerVotes(key.ClassID, key.SessionID), voterID, &v)
	if err != nil {
		return nil, storeError("get peer vote", err)
	}
	if !found {
		return nil, nil
	}
	return &v, nil
}

func (s *RedisStore) PutPeerVote(ctx context.Context, key domain.SessionKey, vote *domain.PeerVote) error {
	return s.put(ctx, s.keys.KeyPeerVotes(key.ClassID, key.SessionID), vote.UserID, vote, "write peer vote")
}

func (s *RedisStore) PutTeacherVote(ctx context.Context, key domain.SessionKey, vote *domain.TeacherVote) error {
	return s.put(ctx, s.keys.KeyTeacherVotes(key.ClassID, key.SessionID), vote.UserID, vote, "write teacher vote")
}

func (s *RedisStore) put(ctx context.Context, hash, field string, doc interface{}, op string) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.client.HSet(ctx, hash, field, payload); err != nil {
		return storeError(op, err)
	}
	return nil
}

func (s *RedisStore) create(ctx context.Context, hash, kind, id string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	ok, err := s.client.HSetNX(ctx, hash, id, payload)
	if err != nil {
		return storeError("create "+kind, err)
	}
	if !ok {
		return duplicateError(kind, id)
	}
	return nil
}

func getField(ctx context.Context, client *redis.Client, hash, field string, dst interface{}) (bool, error) {
	raw, err := client.HGet(ctx, hash, field)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("corrupt document %s/%s: %w", hash, field, err)
	}
	return true, nil
}

func decodeHash[T any](ctx context.Context, client *redis.Client, hash string) ([]T, error) {
	fields, err := client.HGetAll(ctx, hash)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(fields))
	for field, raw := range fields {
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("corrupt document %s/%s: %w", hash, field, err)
		}
		out = append(out, doc)
	}
	return out, nil
}
