package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const (
	maxUploadBytes = 5 << 20
	maxUploads     = 10
)

// uploadFields are the multipart file fields the backend accepts.
var uploadFields = []string{"image", "images", "speakerImage"}

type adminEventService interface {
	List(ctx context.Context, session *models.Session, q service.AdminEventListQuery) (*dto.AdminEventListResponse, *models.Pagination, error)
	Stats(ctx context.Context, session *models.Session) (dto.EventStats, error)
	Drafts(ctx context.Context, session *models.Session) ([]dto.AdminEventRow, error)
	Pending(ctx context.Context, session *models.Session) ([]dto.AdminEventRow, error)
	Get(ctx context.Context, session *models.Session, id string) (*dto.AdminEventRow, error)
	Create(ctx context.Context, session *models.Session, req dto.EventRequest) (*dto.EventMutationResult, error)
	Update(ctx context.Context, session *models.Session, id string, req dto.EventRequest) (*dto.EventMutationResult, error)
	Delete(ctx context.Context, session *models.Session, id string) (*dto.EventMutationResult, error)
	Approve(ctx context.Context, session *models.Session, id string) (*dto.EventMutationResult, error)
	Reject(ctx context.Context, session *models.Session, id string, req dto.RejectEventRequest) (*dto.EventMutationResult, error)
	Attendees(ctx context.Context, eventID string) ([]models.Attendee, error)
	UpdateAttendeeStatus(ctx context.Context, attendeeID string, req dto.AttendeeStatusRequest) (*dto.AttendeeMutationResult, error)
}

// AdminEventHandler serves the moderation console.
type AdminEventHandler struct {
	service adminEventService
}

// NewAdminEventHandler constructs the handler.
func NewAdminEventHandler(svc adminEventService) *AdminEventHandler {
	return &AdminEventHandler{service: svc}
}

// List godoc
// @Summary Moderation table
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Param status query string false "draft, pending, approved, published, rejected or all"
// @Param title query string false "Title search"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/events [get]
func (h *AdminEventHandler) List(c *gin.Context) {
	var q dto.AdminEventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	status := models.EventStatus(strings.ToLower(strings.TrimSpace(q.Status)))
	if status == "all" {
		status = ""
	}
	if status != "" && !status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
		return
	}
	sel, err := service.ParseFilterSelection(q.EventQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	resp, pagination, err := h.service.List(c.Request.Context(), middleware.SessionFromContext(c), service.AdminEventListQuery{
		Status:    status,
		Title:     q.Title,
		Selection: sel,
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, pagination)
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/events/stats [get]
func (h *AdminEventHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Drafts godoc
// @Summary Draft events
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/events/drafts [get]
func (h *AdminEventHandler) Drafts(c *gin.Context) {
	rows, err := h.service.Drafts(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Pending godoc
// @Summary Events awaiting approval
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/events/pending [get]
func (h *AdminEventHandler) Pending(c *gin.Context) {
	rows, err := h.service.Pending(c.Request.Context(), middleware.SessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Event with row actions
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [get]
func (h *AdminEventHandler) Get(c *gin.Context) {
	row, err := h.service.Get(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Submit an event
// @Description JSON, or multipart/form-data when images are attached
// @Tags Admin Events
// @Security BearerAuth
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body dto.EventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/events [post]
func (h *AdminEventHandler) Create(c *gin.Context) {
	req, err := bindEventRequest(c)
	if err != nil {
		response.Error(c, err)
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
// @Summary Edit an event
// @Tags Admin Events
// @Security BearerAuth
// @Accept json
// @Accept mpfd
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.EventRequest true "Event"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/events/{id} [put]
func (h *AdminEventHandler) Update(c *gin.Context) {
	req, err := bindEventRequest(c)
	if err != nil {
		response.Error(c, err)
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
// @Summary Delete an event
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/events/{id} [delete]
func (h *AdminEventHandler) Delete(c *gin.Context) {
	result, err := h.service.Delete(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Approve godoc
// @Summary Approve a pending event
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/events/{id}/approve [put]
func (h *AdminEventHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a pending event
// @Tags Admin Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.RejectEventRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/events/{id}/reject [put]
func (h *AdminEventHandler) Reject(c *gin.Context) {
	var req dto.RejectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason is required"))
		return
	}
	result, err := h.service.Reject(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Attendees godoc
// @Summary Registrations for an event
// @Tags Admin Events
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id}/attendees [get]
func (h *AdminEventHandler) Attendees(c *gin.Context) {
	attendees, err := h.service.Attendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attendees, nil)
}

// UpdateAttendeeStatus godoc
// @Summary Change a registration state
// @Tags Admin Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Attendee ID"
// @Param payload body dto.AttendeeStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /admin/attendees/{id}/status [put]
func (h *AdminEventHandler) UpdateAttendeeStatus(c *gin.Context) {
	var req dto.AttendeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendee status"))
		return
	}
	result, err := h.service.UpdateAttendeeStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// bindEventRequest reads an event payload from JSON or multipart form data.
func bindEventRequest(c *gin.Context) (dto.EventRequest, error) {
	var req dto.EventRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload")
		}
		return req, nil
	}

	if err := c.ShouldBind(&req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}
	for _, field := range uploadFields {
		for _, header := range form.File[field] {
			if len(req.Uploads) >= maxUploads {
				return req, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images per event", maxUploads))
			}
			upload, err := readUpload(field, header)
			if err != nil {
				return req, err
			}
			req.Uploads = append(req.Uploads, upload)
		}
	}
	return req, nil
}

func readUpload(field string, header *multipart.FileHeader) (dto.Upload, error) {
	if header.Size > maxUploadBytes {
		return dto.Upload{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds %d MB", header.Filename, maxUploadBytes>>20))
	}
	file, err := header.Open()
	if err != nil {
		return dto.Upload{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return dto.Upload{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	if len(data) > maxUploadBytes {
		return dto.Upload{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds %d MB", header.Filename, maxUploadBytes>>20))
	}
	return dto.Upload{
		Field:       field,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
