package auth

import "errors"

var (
	// ErrInvalidInput indicates a missing or empty required field. It is
	// returned before any store access happens.
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrInvalidCredentials indicates login failure. Unknown usernames
	// and wrong passwords collapse into this one error so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrNotFound indicates no matching active principal.
	ErrNotFound = errors.New("auth: principal not found")
	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("auth: username already taken")
	// ErrUnknownRole indicates a role reference outside the fixed table.
	ErrUnknownRole = errors.New("auth: unknown role reference")
)
