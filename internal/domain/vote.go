package domain

import (
	"time"
)

// Ratings maps category id to a score in [1,5].
type Ratings map[string]int

// Clone returns an independent copy.
func (r Ratings) Clone() Ratings {
	if r == nil {
		return nil
	}
	out := make(Ratings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// HistoryEntry is a superseded peer rating set.
type HistoryEntry struct {
	Timestamp time.Time `json:"ts"`
	Ratings   Ratings   `json:"ratings"`
}

// PeerVote is the single live record of one voter in one session.
type PeerVote struct {
	UserID        string         `json:"user_id"`
	TeamID        string         `json:"team_id"`
	Ratings       Ratings        `json:"ratings"`
	SuperVote     bool           `json:"super_vote"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	EditedHistory []HistoryEntry `json:"edited_history"`
}

// TeacherVote is the single live record of one evaluator in one session.
// It is overwritten wholesale and keeps no history.
type TeacherVote struct {
	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id"`
	Ratings   Ratings   `json:"ratings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PeerVoteRequest represents a peer vote submission
type PeerVoteRequest struct {
	TeamID    string  `json:"team_id" validate:"required,max=64"`
	Ratings   Ratings `json:"ratings" validate:"required"`
	SuperVote bool    `json:"super_vote"`
}

// TeacherVoteRequest represents an evaluator vote submission
type TeacherVoteRequest struct {
	TeamID  string  `json:"team_id" validate:"required,max=64"`
	Ratings Ratings `json:"ratings"`
}

// VoteResponse represents the response after voting
type VoteResponse struct {
	ClassID   string    `json:"class_id"`
	SessionID string    `json:"session_id"`
	TeamID    string    `json:"team_id"`
	Edited    bool      `json:"edited"`
	Edits     int       `json:"edits"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}
