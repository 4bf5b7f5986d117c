package domain

import "time"

// Category is one rating dimension of a session.
type Category struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Weighting holds the percentage shares applied to peer and teacher sums.
// The two values are not required to add up to 100.
type Weighting struct {
	TeacherPct int `json:"teacher_pct"`
	PeersPct   int `json:"peers_pct"`
}

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusOpen      SessionStatus = "open"
	StatusClosed    SessionStatus = "closed"
	StatusArchived  SessionStatus = "archived"
)

// AcceptsVotes reports whether votes may be written in this state.
func (s SessionStatus) AcceptsVotes() bool {
	return s == StatusScheduled || s == StatusOpen
}

// Visible reports whether the session shows up on public leaderboards.
func (s SessionStatus) Visible() bool {
	return s == StatusScheduled || s == StatusOpen || s == StatusClosed
}

// Session is one presentation round of a class.
type Session struct {
	ID                   string        `json:"id"`
	ClassID              string        `json:"class_id"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Tags                 []string      `json:"tags"`
	Categories           []Category    `json:"categories"`
	Weighting            Weighting     `json:"weighting"`
	Status               SessionStatus `json:"status"`
	AllowEditsUntilClose bool          `json:"allow_edits_until_close"`
	CreatedAt            time.Time     `json:"created_at"`
	OpenedAt             *time.Time    `json:"opened_at,omitempty"`
	ClosedAt             *time.Time    `json:"closed_at,omitempty"`
	ArchivedAt           *time.Time    `json:"archived_at,omitempty"`
}

// CategoryIDs returns the ids in session order.
func (s *Session) CategoryIDs() []string {
	ids := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		ids[i] = c.ID
	}
	return ids
}

// SessionKey addresses the vote collections of one session.
type SessionKey struct {
	ClassID   string
	SessionID string
}

// CreateSessionRequest represents an admin request to create a session.
// Omitted fields take defaults: title "Session N", the default category
// set, a 50/50 split, edits allowed.
type CreateSessionRequest struct {
	ID                   string   `json:"id" validate:"omitempty,max=64,excludesall=:/ "`
	Title                string   `json:"title" validate:"max=200"`
	Description          string   `json:"description" validate:"max=2000"`
	Tags                 []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	CategoryIDs          []string `json:"category_ids" validate:"omitempty,unique,dive,required"`
	TeacherPct           *int     `json:"teacher_pct" validate:"omitempty,min=0,max=100"`
	PeersPct             *int     `json:"peers_pct" validate:"omitempty,min=0,max=100"`
	Status               string   `json:"status" validate:"omitempty,oneof=scheduled open"`
	AllowEditsUntilClose *bool    `json:"allow_edits_until_close"`
}

// SetStatusRequest moves a session to another lifecycle state
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled open closed archived"`
}
