package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
)

// Backend operation names for account endpoints.
const (
	OpLogin             = "admin.login"
	OpGetProfile        = "admin.profile"
	OpUpdateProfile     = "admin.profile_update"
	OpChangePassword    = "admin.password"
	OpListAdmins        = "admin.list"
	OpGetAdmin          = "admin.get"
	OpCreateAdmin       = "admin.create"
	OpUpdateAdmin       = "admin.update"
	OpDeleteAdmin       = "admin.delete"
	OpChangeRole        = "admin.role"
	OpUpdatePermissions = "admin.permissions"
	OpActivateAdmin     = "admin.activate"
	OpDeactivateAdmin   = "admin.deactivate"
)

// AdminRepository manages console accounts through the backend.
type AdminRepository struct {
	client *BackendClient
}

// NewAdminRepository constructs the repository.
func NewAdminRepository(client *BackendClient) *AdminRepository {
	return &AdminRepository{client: client}
}

func adminPath(id string, suffix ...string) string {
	path := "/admin/" + url.PathEscape(id)
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

func (r *AdminRepository) one(ctx context.Context, call Call) (*models.Admin, error) {
	var admin models.Admin
	envelope, err := r.client.Do(ctx, call, &admin)
	if err != nil {
		return nil, err
	}
	if !hasData(envelope.Data) {
		return nil, nil
	}
	return &admin, nil
}

// Login exchanges credentials for a backend token.
func (r *AdminRepository) Login(ctx context.Context, email, password string) (string, *models.Admin, error) {
	var admin models.Admin
	envelope, err := r.client.Do(ctx, Call{
		Op:     OpLogin,
		Method: http.MethodPost,
		Path:   "/admin/login",
		JSON:   map[string]string{"email": email, "password": password},
	}, &admin)
	if err != nil {
		return "", nil, err
	}
	if envelope.Token == "" {
		return "", nil, &UpstreamError{Op: OpLogin, Status: http.StatusUnauthorized, Message: envelope.Message}
	}
	return envelope.Token, &admin, nil
}

// Profile returns the account the token belongs to.
func (r *AdminRepository) Profile(ctx context.Context) (*models.Admin, error) {
	admin, err := r.one(ctx, Call{Op: OpGetProfile, Method: http.MethodGet, Path: "/admin/profile"})
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, &UpstreamError{Op: OpGetProfile, Status: http.StatusUnauthorized}
	}
	return admin, nil
}

// UpdateProfile edits the caller's own account.
func (r *AdminRepository) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*models.Admin, error) {
	return r.one(ctx, Call{Op: OpUpdateProfile, Method: http.MethodPut, Path: "/admin/profile", JSON: req})
}

// ChangePassword updates the caller's password.
func (r *AdminRepository) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	_, err := r.client.Do(ctx, Call{Op: OpChangePassword, Method: http.MethodPut, Path: "/admin/password", JSON: req}, nil)
	return err
}

// List returns every account.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if _, err := r.client.Do(ctx, Call{Op: OpListAdmins, Method: http.MethodGet, Path: "/admin/all"}, &admins); err != nil {
		return nil, err
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	return admins, nil
}

// Get loads one account.
func (r *AdminRepository) Get(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := r.one(ctx, Call{Op: OpGetAdmin, Method: http.MethodGet, Path: adminPath(id)})
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, &UpstreamError{Op: OpGetAdmin, Status: http.StatusNotFound}
	}
	return admin, nil
}

// Create provisions an account.
func (r *AdminRepository) Create(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error) {
	return r.one(ctx, Call{Op: OpCreateAdmin, Method: http.MethodPost, Path: "/admin/create", JSON: req})
}

// Update edits name, email or password. Empty fields are omitted.
func (r *AdminRepository) Update(ctx context.Context, id string, req dto.UpdateAdminRequest) (*models.Admin, error) {
	return r.one(ctx, Call{Op: OpUpdateAdmin, Method: http.MethodPut, Path: adminPath(id), JSON: req})
}

// Delete removes an account.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, Call{Op: OpDeleteAdmin, Method: http.MethodDelete, Path: adminPath(id)}, nil)
	return err
}

// ChangeRole switches an account's role.
func (r *AdminRepository) ChangeRole(ctx context.Context, id string, role models.AdminRole) (*models.Admin, error) {
	return r.one(ctx, Call{Op: OpChangeRole, Method: http.MethodPut, Path: adminPath(id, "role"), JSON: map[string]models.AdminRole{"role": role}})
}

// UpdatePermissions replaces an account's permission set.
func (r *AdminRepository) UpdatePermissions(ctx context.Context, id string, perms models.Permissions) (*models.Admin, error) {
	return r.one(ctx, Call{Op: OpUpdatePermissions, Method: http.MethodPut, Path: adminPath(id, "permissions"), JSON: perms})
}

// SetActive activates or deactivates an account.
func (r *AdminRepository) SetActive(ctx context.Context, id string, active bool) (*models.Admin, error) {
	if active {
		return r.one(ctx, Call{Op: OpActivateAdmin, Method: http.MethodPut, Path: adminPath(id, "activate")})
	}
	return r.one(ctx, Call{Op: OpDeactivateAdmin, Method: http.MethodPut, Path: adminPath(id, "deactivate")})
}
