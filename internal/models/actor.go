package models

// Role identifies the dashboard persona acting on the engine.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Valid reports whether the role is a supported persona.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

// Actor is the identity the session collaborator hands to the engine. The
// engine trusts it; token verification happens in middleware.
type Actor struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the actor sees the full hierarchy.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
