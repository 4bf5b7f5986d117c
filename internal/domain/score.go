package domain

// CategoryScore holds per-category subtotals for one team.
type CategoryScore struct {
	Peer    int `json:"peer"`
	Teacher int `json:"teacher"`
}

// AggregateRow is the derived per-team total of a session.
type AggregateRow struct {
	TeamID     string                   `json:"team_id"`
	PeerSum    int                      `json:"peer_score"`
	TeacherSum int                      `json:"teacher_score"`
	Combined   int                      `json:"combined_score"`
	Cats       map[string]CategoryScore `json:"categories"`
}

// Standing is an AggregateRow with its 1-based rank.
type Standing struct {
	AggregateRow
	Rank int `json:"rank"`
}

// LeaderboardRow is a standing decorated for display.
type LeaderboardRow struct {
	Standing
	TeamName string `json:"team_name"`
	Color    string `json:"color"`
}

// Leaderboard is the public view of a session's ranking.
type Leaderboard struct {
	ClassID        string           `json:"class_id"`
	SessionID      string           `json:"session_id"`
	SessionTitle   string           `json:"session_title"`
	Status         SessionStatus    `json:"status"`
	Categories     []Category       `json:"categories"`
	Weighting      Weighting        `json:"weighting"`
	Rows           []LeaderboardRow `json:"rows"`
	Leader         *LeaderboardRow  `json:"leader,omitempty"`
	PeerVotes      int              `json:"peer_votes"`
	TeacherVotes   int              `json:"teacher_votes"`
	RefreshSeconds int              `json:"refresh_seconds"`
}
