package auth

type roleEntry struct {
	userType UserType
	level    Level
}

// roleTable is the fixed three-tier mapping. Immutable after package
// init; there is no runtime surface that mutates it.
var roleTable = map[RoleRef]roleEntry{
	RoleAdmin: {UserTypeAdmin, LevelAdmin},
	RoleStaff: {UserTypeStaff, LevelStaff},
	RoleOwner: {UserTypeOwner, LevelOwner},
}

// ResolveRole maps a stored role reference to its user type and
// permission level. Unknown references fail closed with ErrUnknownRole
// rather than defaulting to any role.
func ResolveRole(ref RoleRef) (UserType, Level, error) {
	entry, ok := roleTable[ref]
	if !ok {
		return "", 0, ErrUnknownRole
	}
	return entry.userType, entry.level, nil
}

// LevelOf returns the permission level for a user type. The second
// return is false for user types outside the fixed table.
func LevelOf(t UserType) (Level, bool) {
	for _, entry := range roleTable {
		if entry.userType == t {
			return entry.level, true
		}
	}
	return 0, false
}
