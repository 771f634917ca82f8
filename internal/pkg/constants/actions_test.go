package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform_AdminOnlyActions(t *testing.T) {
	for _, action := range []string{
		ApproveListing, RejectListing, DeleteListing,
		ConfirmPayment, RejectPayment,
		ApproveApplication, RejectApplication, DeleteApplications,
		AssignRole, RemoveAccount, ViewAllListings, ViewAllPayments, ViewAudit,
	} {
		assert.True(t, CanPerform(Admin, action), action)
		assert.False(t, CanPerform(Broker, action), action)
		assert.False(t, CanPerform(User, action), action)
	}
}

func TestCanPerform_SharedActions(t *testing.T) {
	for _, role := range ValidRoles {
		assert.True(t, CanPerform(role, SubmitListing), role)
		assert.True(t, CanPerform(role, MarkListingSold), role)
	}
}

func TestCanPerform_UnknownAction(t *testing.T) {
	assert.False(t, CanPerform(Admin, "launch_rockets"))
}

func TestCanPerform_UnknownRole(t *testing.T) {
	assert.False(t, CanPerform("superadmin", ApproveListing))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(User))
	assert.True(t, IsValidRole(Broker))
	assert.True(t, IsValidRole(Admin))
	assert.False(t, IsValidRole("superadmin"))
	assert.False(t, IsValidRole(""))
}
