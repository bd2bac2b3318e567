package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

var (
	superAdmin   = models.AdminInfo{ID: "root", Role: models.RoleSuperAdmin}
	regularAdmin = models.AdminInfo{ID: "adm-1", Role: models.RoleAdmin}
)

func TestRegularAdminCannotEditApprovedEvent(t *testing.T) {
	policy := NewAccessPolicy()
	for _, owner := range []string{regularAdmin.ID, "someone-else", ""} {
		event := models.Event{ID: "evt", Status: models.EventStatusApproved, CreatedBy: owner}
		err := policy.CanEditEvent(regularAdmin, event)
		require.Error(t, err, owner)
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
		assert.Contains(t, err.Error(), "only edit pending events")
	}
}

func TestRegularAdminOwnPendingOnly(t *testing.T) {
	policy := NewAccessPolicy()
	own := models.Event{Status: models.EventStatusPending, CreatedBy: regularAdmin.ID}
	other := models.Event{Status: models.EventStatusPending, CreatedBy: "adm-2"}

	assert.NoError(t, policy.CanEditEvent(regularAdmin, own))
	assert.NoError(t, policy.CanDeleteEvent(regularAdmin, own))
	assert.Error(t, policy.CanEditEvent(regularAdmin, other))
	assert.Error(t, policy.CanDeleteEvent(regularAdmin, other))
	assert.Error(t, policy.CanApproveEvent(regularAdmin, own))
	assert.Error(t, policy.CanRejectEvent(regularAdmin, own))
	assert.NoError(t, policy.CanCreateEvent(regularAdmin))
	assert.Error(t, policy.CanManageAdmins(regularAdmin))
}

func TestSuperAdminUnrestrictedExceptSelf(t *testing.T) {
	policy := NewAccessPolicy()
	published := models.Event{Status: models.EventStatusPublished, CreatedBy: "adm-1"}

	assert.NoError(t, policy.CanEditEvent(superAdmin, published))
	assert.NoError(t, policy.CanDeleteEvent(superAdmin, published))
	assert.NoError(t, policy.CanApproveEvent(superAdmin, published))
	assert.NoError(t, policy.CanChangeRole(superAdmin, "adm-1"))
	assert.NoError(t, policy.CanSetActive(superAdmin, "adm-1"))
	assert.NoError(t, policy.CanDeleteAdmin(superAdmin, "adm-1"))

	assert.EqualError(t, policy.CanChangeRole(superAdmin, superAdmin.ID), "You cannot change your own role!")
	assert.EqualError(t, policy.CanSetActive(superAdmin, superAdmin.ID), "You cannot deactivate your own account!")
	assert.EqualError(t, policy.CanDeleteAdmin(superAdmin, superAdmin.ID), "You cannot delete your own account!")
}

func TestEventActions(t *testing.T) {
	policy := NewAccessPolicy()
	pending := models.Event{ID: "p", Status: models.EventStatusPending, CreatedBy: regularAdmin.ID}
	approved := models.Event{ID: "a", Status: models.EventStatusApproved, CreatedBy: regularAdmin.ID}

	assert.Equal(t, dto.EventActions{Edit: true, Delete: true}, policy.EventActions(regularAdmin, pending))
	assert.Equal(t, dto.EventActions{}, policy.EventActions(regularAdmin, approved))
	assert.Equal(t, dto.EventActions{Edit: true, Delete: true, Approve: true, Reject: true}, policy.EventActions(superAdmin, pending))
	assert.Equal(t, dto.EventActions{Edit: true, Delete: true}, policy.EventActions(superAdmin, approved))

	rows := policy.Decorate(regularAdmin, []models.Event{pending, approved})
	require.Len(t, rows, 2)
	assert.Equal(t, "p", rows[0].ID)
	assert.True(t, rows[0].Actions.Edit)
	assert.False(t, rows[1].Actions.Delete)
}
