package service

import (
	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// Denial messages shown by the console.
const (
	msgEditPendingOnly   = "You can only edit pending events. Contact Super Admin for published events."
	msgDeletePendingOnly = "You can only delete pending events"
	msgEditOwnOnly       = "You can only edit events you created"
	msgDeleteOwnOnly     = "You can only delete events you created"
	msgModerateSuper     = "Only a super admin can approve or reject events"
	msgSuperAdminOnly    = "Access Denied: Super Admin only"
	msgOwnRole           = "You cannot change your own role!"
	msgOwnStatus         = "You cannot deactivate your own account!"
	msgOwnDelete         = "You cannot delete your own account!"
)

// AccessPolicy decides which console actions are offered to a signed-in
// admin. The backend enforces the same table.
type AccessPolicy struct{}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

func deny(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}

// CanCreateEvent allows every signed-in admin.
func (p *AccessPolicy) CanCreateEvent(actor models.AdminInfo) error {
	if !actor.Role.Valid() {
		return deny(msgSuperAdminOnly)
	}
	return nil
}

// CanEditEvent allows super admins always and admins on their own pending events.
func (p *AccessPolicy) CanEditEvent(actor models.AdminInfo, event models.Event) error {
	return p.ownPending(actor, event, msgEditPendingOnly, msgEditOwnOnly)
}

// CanDeleteEvent follows the same rule as editing.
func (p *AccessPolicy) CanDeleteEvent(actor models.AdminInfo, event models.Event) error {
	return p.ownPending(actor, event, msgDeletePendingOnly, msgDeleteOwnOnly)
}

func (p *AccessPolicy) ownPending(actor models.AdminInfo, event models.Event, notPending, notOwner string) error {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if actor.Role != models.RoleAdmin {
		return deny(msgSuperAdminOnly)
	}
	if event.Status != models.EventStatusPending {
		return deny(notPending)
	}
	if actor.ID == "" || event.CreatedBy != actor.ID {
		return deny(notOwner)
	}
	return nil
}

// CanApproveEvent is reserved to super admins.
func (p *AccessPolicy) CanApproveEvent(actor models.AdminInfo, _ models.Event) error {
	if actor.Role != models.RoleSuperAdmin {
		return deny(msgModerateSuper)
	}
	return nil
}

// CanRejectEvent is reserved to super admins.
func (p *AccessPolicy) CanRejectEvent(actor models.AdminInfo, event models.Event) error {
	return p.CanApproveEvent(actor, event)
}

// CanManageAdmins is reserved to super admins.
func (p *AccessPolicy) CanManageAdmins(actor models.AdminInfo) error {
	if actor.Role != models.RoleSuperAdmin {
		return deny(msgSuperAdminOnly)
	}
	return nil
}

// CanChangeRole denies changing one's own role.
func (p *AccessPolicy) CanChangeRole(actor models.AdminInfo, targetID string) error {
	if err := p.CanManageAdmins(actor); err != nil {
		return err
	}
	if targetID == actor.ID {
		return deny(msgOwnRole)
	}
	return nil
}

// CanSetActive denies toggling one's own account.
func (p *AccessPolicy) CanSetActive(actor models.AdminInfo, targetID string) error {
	if err := p.CanManageAdmins(actor); err != nil {
		return err
	}
	if targetID == actor.ID {
		return deny(msgOwnStatus)
	}
	return nil
}

// CanDeleteAdmin denies deleting one's own account.
func (p *AccessPolicy) CanDeleteAdmin(actor models.AdminInfo, targetID string) error {
	if err := p.CanManageAdmins(actor); err != nil {
		return err
	}
	if targetID == actor.ID {
		return deny(msgOwnDelete)
	}
	return nil
}

// EventActions lists the row affordances for event.
func (p *AccessPolicy) EventActions(actor models.AdminInfo, event models.Event) dto.EventActions {
	pending := event.Status == models.EventStatusPending
	return dto.EventActions{
		Edit:    p.CanEditEvent(actor, event) == nil,
		Delete:  p.CanDeleteEvent(actor, event) == nil,
		Approve: pending && p.CanApproveEvent(actor, event) == nil,
		Reject:  pending && p.CanRejectEvent(actor, event) == nil,
	}
}

// Decorate attaches actions to every event.
func (p *AccessPolicy) Decorate(actor models.AdminInfo, events []models.Event) []dto.AdminEventRow {
	rows := make([]dto.AdminEventRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, dto.AdminEventRow{Event: event, Actions: p.EventActions(actor, event)})
	}
	return rows
}
