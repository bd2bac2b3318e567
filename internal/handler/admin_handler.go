package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context, session *models.Session, filter models.AdminFilter) (*dto.AdminListResponse, error)
	Get(ctx context.Context, session *models.Session, id string) (*models.Admin, error)
	Create(ctx context.Context, session *models.Session, req dto.CreateAdminRequest) (*dto.AdminMutationResult, error)
	Update(ctx context.Context, session *models.Session, id string, req dto.UpdateAdminRequest) (*dto.AdminMutationResult, error)
	Delete(ctx context.Context, session *models.Session, id string) (*dto.AdminMutationResult, error)
	ChangeRole(ctx context.Context, session *models.Session, id string, req dto.ChangeRoleRequest) (*dto.AdminMutationResult, error)
	UpdatePermissions(ctx context.Context, session *models.Session, id string, perms models.Permissions) (*dto.AdminMutationResult, error)
	SetActive(ctx context.Context, session *models.Session, id string, active bool) (*dto.AdminMutationResult, error)
}

// AdminHandler serves account management for super admins.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// List godoc
// @Summary List console accounts
// @Tags Admin Accounts
// @Security BearerAuth
// @Produce json
// @Param role query string false "admin, superadmin or all"
// @Param status query string false "active, inactive or all"
// @Param q query string false "Name or email"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/accounts [get]
func (h *AdminHandler) List(c *gin.Context) {
	var q dto.AdminQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	filter, err := service.ParseAdminFilter(q)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp, err := h.service.List(c.Request.Context(), middleware.SessionFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Get godoc
// @Summary Get a console account
// @Tags Admin Accounts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/accounts/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	admin, err := h.service.Get(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Create godoc
// @Summary Provision a console account
// @Tags Admin Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateAdminRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/accounts [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid account payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), middleware.SessionFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Edit a console account
// @Tags Admin Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body dto.UpdateAdminRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	var req dto.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid account payload"))
		return
	}
	result, err := h.service.Update(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a console account
// @Tags Admin Accounts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	result, err := h.service.Delete(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ChangeRole godoc
// @Summary Change an account role
// @Tags Admin Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body dto.ChangeRoleRequest true "Role"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id}/role [put]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	result, err := h.service.ChangeRole(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdatePermissions godoc
// @Summary Replace an account permission set
// @Tags Admin Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body models.Permissions true "Permissions"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id}/permissions [put]
func (h *AdminHandler) UpdatePermissions(c *gin.Context) {
	var perms models.Permissions
	if err := c.ShouldBindJSON(&perms); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permissions payload"))
		return
	}
	result, err := h.service.UpdatePermissions(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"), perms)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Activate godoc
// @Summary Activate an account
// @Tags Admin Accounts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id}/activate [put]
func (h *AdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// @Summary Deactivate an account
// @Tags Admin Accounts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts/{id}/deactivate [put]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	result, err := h.service.SetActive(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"), active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
