package dto

import (
	"time"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// LoginRequest holds console credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the backend token and the signed-in identity.
type LoginResponse struct {
	Token     string           `json:"token"`
	Admin     models.AdminInfo `json:"admin"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// UpdateProfileRequest edits the caller's own name and email.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest updates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// AdminQuery filters the account list.
type AdminQuery struct {
	Role   string `form:"role"`
	Status string `form:"status"`
	Search string `form:"q"`
}

// CreateAdminRequest provisions a console account.
type CreateAdminRequest struct {
	Name     string           `json:"name" validate:"required,max=120"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=6"`
	Role     models.AdminRole `json:"role" validate:"required,oneof=admin superadmin"`
}

// UpdateAdminRequest edits an account. Empty fields are left untouched.
type UpdateAdminRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// Empty reports whether there is nothing to send.
func (r UpdateAdminRequest) Empty() bool {
	return r.Name == "" && r.Email == "" && r.Password == ""
}

// ChangeRoleRequest switches an account's role.
type ChangeRoleRequest struct {
	Role models.AdminRole `json:"role" validate:"required,oneof=admin superadmin"`
}

// AdminListResponse is the account management table.
type AdminListResponse struct {
	Admins   []models.Admin `json:"admins"`
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
}

// AdminMutationResult pairs an account mutation with the refreshed list.
type AdminMutationResult struct {
	Result *models.Admin  `json:"result,omitempty"`
	Admins []models.Admin `json:"admins"`
	Stale  bool           `json:"stale,omitempty"`
}
