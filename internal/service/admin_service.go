package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type adminRepository interface {
	List(ctx context.Context) ([]models.Admin, error)
	Get(ctx context.Context, id string) (*models.Admin, error)
	Create(ctx context.Context, req dto.CreateAdminRequest) (*models.Admin, error)
	Update(ctx context.Context, id string, req dto.UpdateAdminRequest) (*models.Admin, error)
	Delete(ctx context.Context, id string) error
	ChangeRole(ctx context.Context, id string, role models.AdminRole) (*models.Admin, error)
	UpdatePermissions(ctx context.Context, id string, perms models.Permissions) (*models.Admin, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Admin, error)
}

// AdminService manages console accounts. Only super admins reach it.
type AdminService struct {
	repo      adminRepository
	policy    *AccessPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, policy *AccessPolicy, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if policy == nil {
		policy = NewAccessPolicy()
	}
	return &AdminService{repo: repo, policy: policy, validator: validate, logger: logger}
}

// ParseAdminFilter converts query parameters into a filter.
func ParseAdminFilter(q dto.AdminQuery) (models.AdminFilter, error) {
	filter := models.AdminFilter{Search: strings.TrimSpace(q.Search)}
	switch strings.ToLower(strings.TrimSpace(q.Role)) {
	case "", "all":
	case string(models.RoleAdmin):
		filter.Role = models.RoleAdmin
	case string(models.RoleSuperAdmin):
		filter.Role = models.RoleSuperAdmin
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}
	switch strings.ToLower(strings.TrimSpace(q.Status)) {
	case "", "all":
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		inactive := false
		filter.Active = &inactive
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	return filter, nil
}

// List returns the filtered account table with its counters.
func (s *AdminService) List(ctx context.Context, session *models.Session, filter models.AdminFilter) (*dto.AdminListResponse, error) {
	if err := s.policy.CanManageAdmins(actorOf(session)); err != nil {
		return nil, err
	}
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	resp := &dto.AdminListResponse{Admins: make([]models.Admin, 0, len(admins)), Total: len(admins)}
	for _, admin := range admins {
		if admin.IsActive {
			resp.Active++
		} else {
			resp.Inactive++
		}
		if matchesAdmin(admin, filter) {
			resp.Admins = append(resp.Admins, admin)
		}
	}
	return resp, nil
}

func matchesAdmin(admin models.Admin, filter models.AdminFilter) bool {
	if filter.Role != "" && admin.Role != filter.Role {
		return false
	}
	if filter.Active != nil && admin.IsActive != *filter.Active {
		return false
	}
	if filter.Search == "" {
		return true
	}
	term := strings.ToLower(filter.Search)
	return strings.Contains(strings.ToLower(admin.Name), term) || strings.Contains(strings.ToLower(admin.Email), term)
}

// Get returns one account.
func (s *AdminService) Get(ctx context.Context, session *models.Session, id string) (*models.Admin, error) {
	if err := s.policy.CanManageAdmins(actorOf(session)); err != nil {
		return nil, err
	}
	admin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return admin, nil
}

// Create provisions an account.
func (s *AdminService) Create(ctx context.Context, session *models.Session, req dto.CreateAdminRequest) (*dto.AdminMutationResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	actor := actorOf(session)
	if err := s.policy.CanManageAdmins(actor); err != nil {
		return nil, err
	}
	admin, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin created", zap.String("actor_id", actor.ID), zap.String("role", string(req.Role)))
	return s.afterMutation(ctx, admin), nil
}

// Update edits an account's name, email or password.
func (s *AdminService) Update(ctx context.Context, session *models.Session, id string, req dto.UpdateAdminRequest) (*dto.AdminMutationResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	actor := actorOf(session)
	if err := s.policy.CanManageAdmins(actor); err != nil {
		return nil, err
	}
	admin, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin updated", zap.String("actor_id", actor.ID), zap.String("admin_id", id))
	return s.afterMutation(ctx, admin), nil
}

// Delete removes an account other than the caller's.
func (s *AdminService) Delete(ctx context.Context, session *models.Session, id string) (*dto.AdminMutationResult, error) {
	actor := actorOf(session)
	if err := s.policy.CanDeleteAdmin(actor, id); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin deleted", zap.String("actor_id", actor.ID), zap.String("admin_id", id))
	return s.afterMutation(ctx, nil), nil
}

// ChangeRole switches the role of another account.
func (s *AdminService) ChangeRole(ctx context.Context, session *models.Session, id string, req dto.ChangeRoleRequest) (*dto.AdminMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role")
	}
	actor := actorOf(session)
	if err := s.policy.CanChangeRole(actor, id); err != nil {
		return nil, err
	}
	admin, err := s.repo.ChangeRole(ctx, id, req.Role)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin role changed", zap.String("actor_id", actor.ID), zap.String("admin_id", id), zap.String("role", string(req.Role)))
	return s.afterMutation(ctx, admin), nil
}

// UpdatePermissions replaces an account's permission set.
func (s *AdminService) UpdatePermissions(ctx context.Context, session *models.Session, id string, perms models.Permissions) (*dto.AdminMutationResult, error) {
	actor := actorOf(session)
	if err := s.policy.CanManageAdmins(actor); err != nil {
		return nil, err
	}
	admin, err := s.repo.UpdatePermissions(ctx, id, perms)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin permissions updated", zap.String("actor_id", actor.ID), zap.String("admin_id", id))
	return s.afterMutation(ctx, admin), nil
}

// SetActive activates or deactivates another account.
func (s *AdminService) SetActive(ctx context.Context, session *models.Session, id string, active bool) (*dto.AdminMutationResult, error) {
	actor := actorOf(session)
	if err := s.policy.CanSetActive(actor, id); err != nil {
		return nil, err
	}
	admin, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("admin status changed", zap.String("actor_id", actor.ID), zap.String("admin_id", id), zap.Bool("active", active))
	return s.afterMutation(ctx, admin), nil
}

func (s *AdminService) afterMutation(ctx context.Context, result *models.Admin) *dto.AdminMutationResult {
	out := &dto.AdminMutationResult{Result: result, Admins: []models.Admin{}}
	admins, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("admin refetch failed", zap.Error(err))
		out.Stale = true
		return out
	}
	out.Admins = admins
	return out
}
