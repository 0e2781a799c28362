// Package gate enforces permission levels for validated sessions. It
// deliberately takes a session.Identity, which only token validation can
// produce, so an unverified user type cannot reach the check.
package gate

import (
	"github.com/towerdesk/towerdesk/internal/auth"
	"github.com/towerdesk/towerdesk/internal/session"
)

// Allow reports whether the identity satisfies the required minimum
// permission level. Lower levels are more privileged, so admin (1)
// passes every check and owner (3) only checks at level 3 or looser.
// Unknown user types never pass.
func Allow(id session.Identity, min auth.Level) bool {
	level, ok := auth.LevelOf(id.UserType)
	if !ok {
		return false
	}
	return level <= min
}
