package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type stubAdminRepo struct {
	admins    []models.Admin
	listCalls int
	calls     []string
	mutateErr error
	active    *bool
}

func (s *stubAdminRepo) List(context.Context) ([]models.Admin, error) {
	s.listCalls++
	return s.admins, nil
}

func (s *stubAdminRepo) Get(_ context.Context, id string) (*models.Admin, error) {
	for _, admin := range s.admins {
		if admin.ID == id {
			a := admin
			return &a, nil
		}
	}
	return nil, &repository.UpstreamError{Op: repository.OpGetAdmin, Status: http.StatusNotFound}
}

func (s *stubAdminRepo) record(name string) error {
	s.calls = append(s.calls, name)
	return s.mutateErr
}

func (s *stubAdminRepo) Create(_ context.Context, req dto.CreateAdminRequest) (*models.Admin, error) {
	if err := s.record("create"); err != nil {
		return nil, err
	}
	return &models.Admin{ID: "adm-new", Name: req.Name, Email: req.Email, Role: req.Role, IsActive: true}, nil
}

func (s *stubAdminRepo) Update(_ context.Context, id string, req dto.UpdateAdminRequest) (*models.Admin, error) {
	if err := s.record("update"); err != nil {
		return nil, err
	}
	return &models.Admin{ID: id, Name: req.Name}, nil
}

func (s *stubAdminRepo) Delete(context.Context, string) error {
	return s.record("delete")
}

func (s *stubAdminRepo) ChangeRole(_ context.Context, id string, role models.AdminRole) (*models.Admin, error) {
	if err := s.record("role"); err != nil {
		return nil, err
	}
	return &models.Admin{ID: id, Role: role}, nil
}

func (s *stubAdminRepo) UpdatePermissions(_ context.Context, id string, perms models.Permissions) (*models.Admin, error) {
	if err := s.record("permissions"); err != nil {
		return nil, err
	}
	return &models.Admin{ID: id, Permissions: perms}, nil
}

func (s *stubAdminRepo) SetActive(_ context.Context, id string, active bool) (*models.Admin, error) {
	s.active = &active
	if err := s.record("active"); err != nil {
		return nil, err
	}
	return &models.Admin{ID: id, IsActive: active}, nil
}

func consoleAdmins() []models.Admin {
	return []models.Admin{
		{ID: superAdmin.ID, Name: "Root", Email: "root@example.edu", Role: models.RoleSuperAdmin, IsActive: true},
		{ID: regularAdmin.ID, Name: "Dana Lee", Email: "dana@example.edu", Role: models.RoleAdmin, IsActive: true},
		{ID: "adm-2", Name: "Sam", Email: "sam@example.edu", Role: models.RoleAdmin, IsActive: false},
	}
}

func TestParseAdminFilter(t *testing.T) {
	filter, err := ParseAdminFilter(dto.AdminQuery{Role: "Admin", Status: "inactive", Search: " sam "})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, filter.Role)
	require.NotNil(t, filter.Active)
	assert.False(t, *filter.Active)
	assert.Equal(t, "sam", filter.Search)

	filter, err = ParseAdminFilter(dto.AdminQuery{Role: "all", Status: "all"})
	require.NoError(t, err)
	assert.Empty(t, filter.Role)
	assert.Nil(t, filter.Active)

	_, err = ParseAdminFilter(dto.AdminQuery{Role: "owner"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = ParseAdminFilter(dto.AdminQuery{Status: "sleeping"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAdminListCountsAndFilters(t *testing.T) {
	svc := NewAdminService(&stubAdminRepo{admins: consoleAdmins()}, nil, nil, nil)

	resp, err := svc.List(context.Background(), sessionFor(superAdmin), models.AdminFilter{Search: "EXAMPLE.edu", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Active)
	assert.Equal(t, 1, resp.Inactive)
	assert.Len(t, resp.Admins, 2)

	_, err = svc.List(context.Background(), sessionFor(regularAdmin), models.AdminFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, "Access Denied: Super Admin only", appErrors.FromError(err).Message)
}

func TestAdminCreateValidatesAndRefetches(t *testing.T) {
	repo := &stubAdminRepo{admins: consoleAdmins()}
	svc := NewAdminService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), sessionFor(superAdmin), dto.CreateAdminRequest{Name: "New", Email: "new@example.edu", Password: "123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.calls)

	result, err := svc.Create(context.Background(), sessionFor(superAdmin), dto.CreateAdminRequest{Name: "New", Email: "new@example.edu", Password: "123456", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "adm-new", result.Result.ID)
	assert.Len(t, result.Admins, 3)
	assert.Equal(t, 1, repo.listCalls)
}

func TestAdminUpdateRejectsEmptyPayload(t *testing.T) {
	repo := &stubAdminRepo{}
	svc := NewAdminService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), sessionFor(superAdmin), "adm-2", dto.UpdateAdminRequest{Name: "  "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.calls)
}

func TestAdminSelfActionsDenied(t *testing.T) {
	repo := &stubAdminRepo{admins: consoleAdmins()}
	svc := NewAdminService(repo, nil, nil, nil)
	session := sessionFor(superAdmin)

	_, err := svc.ChangeRole(context.Background(), session, superAdmin.ID, dto.ChangeRoleRequest{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, "You cannot change your own role!", appErrors.FromError(err).Message)

	_, err = svc.SetActive(context.Background(), session, superAdmin.ID, false)
	require.Error(t, err)
	assert.Equal(t, "You cannot deactivate your own account!", appErrors.FromError(err).Message)

	_, err = svc.Delete(context.Background(), session, superAdmin.ID)
	require.Error(t, err)
	assert.Equal(t, "You cannot delete your own account!", appErrors.FromError(err).Message)

	assert.Empty(t, repo.calls)
}

func TestAdminSetActiveOnOtherAccount(t *testing.T) {
	repo := &stubAdminRepo{admins: consoleAdmins()}
	svc := NewAdminService(repo, nil, nil, nil)

	result, err := svc.SetActive(context.Background(), sessionFor(superAdmin), "adm-2", true)
	require.NoError(t, err)
	require.NotNil(t, repo.active)
	assert.True(t, *repo.active)
	assert.True(t, result.Result.IsActive)
}

func TestAdminUpstreamConflictKeepsGenericMessage(t *testing.T) {
	repo := &stubAdminRepo{mutateErr: &repository.UpstreamError{Op: repository.OpChangeRole, Status: http.StatusConflict, Message: "duplicate"}}
	svc := NewAdminService(repo, nil, nil, nil)

	_, err := svc.ChangeRole(context.Background(), sessionFor(superAdmin), "adm-2", dto.ChangeRoleRequest{Role: models.RoleSuperAdmin})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Failed to update role", appErr.Message)
	assert.Equal(t, 0, repo.listCalls)
}
