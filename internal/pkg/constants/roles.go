package constants

const (
	Admin  = "admin"
	Broker = "broker"
	User   = "user"
)

// ValidRoles is the set of allowed account role values (must match the DB enum).
var ValidRoles = []string{User, Broker, Admin}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
