package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyClasses() string {
	return kb.BuildKey(KeyClasses)
}

func (kb *KeyBuilder) KeyClassTeams(classID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyClassTeams, classID))
}

func (kb *KeyBuilder) KeyClassSessions(classID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyClassSessions, classID))
}

// KeyPeerVotes is a hash of voter id to peer vote document.
func (kb *KeyBuilder) KeyPeerVotes(classID, sessionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPeerVotes, classID, sessionID))
}

// KeyTeacherVotes is a hash of evaluator id to teacher vote document.
func (kb *KeyBuilder) KeyTeacherVotes(classID, sessionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyTeacherVotes, classID, sessionID))
}
