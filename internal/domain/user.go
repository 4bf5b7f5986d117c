package domain

// Role of an authenticated caller
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is the authenticated caller of a request
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the caller may act as evaluator
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
