package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
)

func officer() *domain.User {
	return &domain.User{UserID: "u-lo", PrimaryRole: domain.RoleLO, IsActive: true}
}

func admin() *domain.User {
	return &domain.User{UserID: "u-admin", PrimaryRole: domain.RoleAdmin, IsActive: true}
}

func partner() *domain.User {
	return &domain.User{UserID: "u-pp", PrimaryRole: domain.RoleProductionPartner, IsActive: true}
}

func TestScopeFor_LoanVisibility(t *testing.T) {
	assert.Equal(t, access.Scope{LoanOfficerID: "u-lo"}, access.ScopeFor(officer(), access.ResourceLoan))
	assert.Equal(t, access.Scope{Unrestricted: true}, access.ScopeFor(admin(), access.ResourceLoan))
	assert.Equal(t, access.Scope{Unrestricted: true}, access.ScopeFor(partner(), access.ResourceLoan))
}

func TestScopeFor_PersonalResources(t *testing.T) {
	for _, res := range []access.Resource{access.ResourceTask, access.ResourceNotification, access.ResourceAppointment} {
		assert.Equal(t, access.Scope{UserID: "u-admin"}, access.ScopeFor(admin(), res), "resource %s", res)
	}
}

func TestScopeFor_CommunicationCoversOwnedLoans(t *testing.T) {
	scope := access.ScopeFor(officer(), access.ResourceCommunication)
	assert.Equal(t, access.Scope{LoanOfficerID: "u-lo", UserID: "u-lo"}, scope)
}

func TestScopeFor_UnknownRoleFailsClosed(t *testing.T) {
	u := &domain.User{UserID: "u-x", PrimaryRole: domain.Role("WIZARD")}
	scope := access.ScopeFor(u, access.ResourceLoan)
	assert.True(t, scope.MatchesNothing())

	assert.True(t, access.ScopeFor(nil, access.ResourceLoan).MatchesNothing())
}

func TestCan_LoanActions(t *testing.T) {
	assert.True(t, access.Can(officer(), access.ActionCreate, access.ResourceLoan))
	assert.False(t, access.Can(partner(), access.ActionCreate, access.ResourceLoan))
	assert.False(t, access.Can(officer(), access.ActionDelete, access.ResourceLoan))
	assert.True(t, access.Can(admin(), access.ActionDelete, access.ResourceLoan))
}

func TestCan_LeadImport(t *testing.T) {
	assert.True(t, access.Can(officer(), access.ActionCreate, access.ResourceLead))
	assert.False(t, access.Can(partner(), access.ActionCreate, access.ResourceLead))
	assert.True(t, access.Can(admin(), access.ActionCreate, access.ResourceLead))
}

func TestCan_LeadSourceVisibility(t *testing.T) {
	assert.True(t, access.Can(partner(), access.ActionRead, access.ResourceLeadSource))
	assert.True(t, access.Can(admin(), access.ActionRead, access.ResourceLeadSource))
	assert.False(t, access.Can(officer(), access.ActionRead, access.ResourceLeadSource))

	assert.False(t, access.Can(partner(), access.ActionCreate, access.ResourceLeadSource))
	assert.False(t, access.Can(partner(), access.ActionDelete, access.ResourceLeadSource))
	assert.True(t, access.Can(admin(), access.ActionDelete, access.ResourceLeadSource))
}

func TestCan_PermissionGrantCounts(t *testing.T) {
	loa := &domain.User{
		UserID:      "u-loa",
		PrimaryRole: domain.RoleLOA,
		Permissions: []domain.Role{domain.RoleAdmin},
		IsActive:    true,
	}
	assert.True(t, access.Can(loa, access.ActionDelete, access.ResourceLoan))
}

func TestCanMutateOwned(t *testing.T) {
	assert.True(t, access.CanMutateOwned(officer(), "u-lo"))
	assert.False(t, access.CanMutateOwned(officer(), "someone-else"))
	assert.True(t, access.CanMutateOwned(admin(), "someone-else"))
	assert.False(t, access.CanMutateOwned(nil, "u-lo"))
}
