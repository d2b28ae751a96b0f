// Package access is the single place where role and ownership rules are
// decided. Handlers gate routes with middleware.RequireRole; repositories
// receive a Scope that is ANDed into every query so out-of-scope rows are
// indistinguishable from absent ones.
package access

import "github.com/harborlend/loancrm/internal/core/domain"

// Action is something a caller wants to do to a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource is a guarded entity kind.
type Resource string

const (
	ResourceLoan          Resource = "loan"
	ResourceTask          Resource = "task"
	ResourceDocument      Resource = "document"
	ResourceCommunication Resource = "communication"
	ResourceNotification  Resource = "notification"
	ResourceAppointment   Resource = "appointment"
	ResourceUser          Resource = "user"
	ResourceLead          Resource = "lead"
	ResourceLeadSource    Resource = "lead_source"
)

// Scope restricts which rows a list/read query may return. The zero value
// matches nothing, so an unrecognised role fails closed.
type Scope struct {
	// Unrestricted grants visibility over every row of the resource.
	Unrestricted bool
	// LoanOfficerID, when set, restricts loan-anchored resources to loans
	// owned by this officer.
	LoanOfficerID string
	// UserID, when set, restricts user-owned resources to rows authored by
	// this user.
	UserID string
}

// MatchesNothing reports whether the scope excludes every row.
func (s Scope) MatchesNothing() bool {
	return !s.Unrestricted && s.LoanOfficerID == "" && s.UserID == ""
}

// ScopeFor builds the row-visibility scope for a user against a resource.
func ScopeFor(u *domain.User, res Resource) Scope {
	if u == nil || !u.PrimaryRole.IsValid() {
		return Scope{} // fail closed
	}
	switch res {
	case ResourceLoan, ResourceDocument:
		if u.PrimaryRole == domain.RoleLO {
			return Scope{LoanOfficerID: u.UserID}
		}
		return Scope{Unrestricted: true}
	case ResourceCommunication:
		switch u.PrimaryRole {
		case domain.RoleLO:
			return Scope{LoanOfficerID: u.UserID, UserID: u.UserID}
		case domain.RoleAdmin:
			return Scope{Unrestricted: true}
		default:
			return Scope{UserID: u.UserID}
		}
	case ResourceTask, ResourceNotification, ResourceAppointment:
		// Personal resources: every role works its own list.
		return Scope{UserID: u.UserID}
	case ResourceUser, ResourceLead:
		return Scope{Unrestricted: true}
	}
	return Scope{}
}

// Can decides role-gated actions that do not depend on a specific row.
func Can(u *domain.User, action Action, res Resource) bool {
	if u == nil || !u.PrimaryRole.IsValid() {
		return false
	}
	if u.HasRole(domain.RoleAdmin) {
		return true
	}
	switch res {
	case ResourceLoan:
		switch action {
		case ActionCreate, ActionUpdate:
			return u.HasRole(domain.RoleLO, domain.RoleLOA)
		case ActionDelete:
			return false // admin only
		}
		return true
	case ResourceLead:
		switch action {
		case ActionCreate: // import
			return u.HasRole(domain.RoleLO, domain.RoleLOA)
		case ActionRead:
			return u.HasRole(domain.RoleLO, domain.RoleProductionPartner)
		}
		return false
	case ResourceLeadSource:
		// Source attribution stats are partner-facing; managing the
		// source list itself stays with admins.
		if action == ActionRead {
			return u.HasRole(domain.RoleProductionPartner)
		}
		return false
	case ResourceUser:
		// Non-admins only touch their own profile, handled by CanMutateOwned.
		return action == ActionRead
	}
	return true
}

// CanMutateOwned decides row-level mutation: a user may only edit or delete
// what they own, regardless of role, unless they are an admin.
func CanMutateOwned(u *domain.User, ownerID string) bool {
	if u == nil {
		return false
	}
	return u.UserID == ownerID || u.HasRole(domain.RoleAdmin)
}
