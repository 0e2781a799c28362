package auth

import "time"

// RoleRef is the role pointer stored on a principal record.
type RoleRef string

// Role references known to the fixed role table.
const (
	RoleAdmin RoleRef = "admin"
	RoleStaff RoleRef = "staff"
	RoleOwner RoleRef = "owner"
)

// UserType identifies the kind of authenticated actor.
type UserType string

// User types resolved from role references.
const (
	UserTypeAdmin UserType = "ADMIN"
	UserTypeStaff UserType = "STAFF"
	UserTypeOwner UserType = "OWNER"
)

// Level is a permission level. Lower values carry more privilege.
type Level int

// Permission levels for the three-tier role table.
const (
	LevelAdmin Level = 1
	LevelStaff Level = 2
	LevelOwner Level = 3
)

// Principal represents a registered account able to authenticate.
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	Role         RoleRef
	Active       bool
	CreatedAt    time.Time
}

// AuthResult is the outcome of a credential check. The zero value is a
// failed result.
type AuthResult struct {
	Success  bool
	UserID   string
	UserType UserType
	Level    Level
}
