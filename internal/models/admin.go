package models

import (
	"encoding/json"
	"time"
)

// AdminRole is the authorization role of a console account.
type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "superadmin"
)

// Valid reports whether r is a known role.
func (r AdminRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Permissions is the named permission set attached to an admin account.
type Permissions struct {
	CreateEvent   bool `json:"createEvent"`
	EditEvent     bool `json:"editEvent"`
	DeleteEvent   bool `json:"deleteEvent"`
	ViewAllEvents bool `json:"viewAllEvents"`
	ApproveEvent  bool `json:"approveEvent"`
	RejectEvent   bool `json:"rejectEvent"`
	ViewAttendees bool `json:"viewAttendees"`
	ManageAdmins  bool `json:"manageAdmins"`
	ViewReports   bool `json:"viewReports"`
}

// DefaultPermissions mirrors the console's initial checkbox state for a new admin.
func DefaultPermissions() Permissions {
	return Permissions{
		CreateEvent:   true,
		EditEvent:     true,
		DeleteEvent:   false,
		ViewAllEvents: true,
		ViewAttendees: true,
	}
}

// Admin is a console account owned by the backend.
type Admin struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        AdminRole   `json:"role"`
	IsActive    bool        `json:"isActive"`
	Permissions Permissions `json:"permissions"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both `_id` and `id`.
func (a *Admin) UnmarshalJSON(data []byte) error {
	type plain Admin
	aux := struct {
		*plain
		AltID string `json:"id"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = aux.AltID
	}
	return nil
}

// AdminInfo is the identity snapshot held in a session.
type AdminInfo struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  AdminRole `json:"role"`
}

// Info projects an Admin into its session identity.
func (a Admin) Info() AdminInfo {
	return AdminInfo{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// AdminFilter narrows the account management list.
type AdminFilter struct {
	Role   AdminRole
	Active *bool
	Search string
}
