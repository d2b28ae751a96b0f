package domain

// Role is a dashboard role a user can act as.
type Role string

const (
	RoleLO                Role = "LO"
	RoleLOA               Role = "LOA"
	RoleProductionPartner Role = "PRODUCTION_PARTNER"
	RoleAdmin             Role = "ADMIN"
)

// KnownRoles lists every role the system recognises.
var KnownRoles = []Role{RoleLO, RoleLOA, RoleProductionPartner, RoleAdmin}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleLO, RoleLOA, RoleProductionPartner, RoleAdmin:
		return true
	}
	return false
}

// User represents an actor in the CRM. Permissions is the effective set of
// dashboards the user may switch into and always contains PrimaryRole.
type User struct {
	UserID       string `json:"userID"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	PrimaryRole  Role   `json:"primaryRole"`
	Permissions  []Role `json:"permissions"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}

// HasRole reports whether the user's primary role or permission set grants
// any of the given roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, want := range roles {
		if u.PrimaryRole == want {
			return true
		}
		for _, have := range u.Permissions {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NormalizePermissions ensures the permission set contains PrimaryRole and
// drops duplicates and unknown roles, preserving order.
func (u *User) NormalizePermissions() {
	seen := map[Role]bool{}
	out := make([]Role, 0, len(u.Permissions)+1)
	for _, r := range append([]Role{u.PrimaryRole}, u.Permissions...) {
		if r.IsValid() && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	u.Permissions = out
}
