package domain

import "time"

// Class groups the teams and sessions of one course cohort.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// Team represents a presenting team inside a class
type Team struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClassRequest represents an admin request to register a class
type CreateClassRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64,excludesall=:/ "`
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// CreateTeamRequest represents an admin request to register a team
type CreateTeamRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64,excludesall=:/ "`
	Name string `json:"name" validate:"required,min=1,max=200"`
}
