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

const maxPageSize = 100

type eventService interface {
	List(ctx context.Context, sel models.FilterSelection, page, pageSize int) (*service.EventView, error)
	Featured(ctx context.Context, sel models.FilterSelection) (dto.FeaturedResponse, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Search(ctx context.Context, q dto.EventSearchQuery) ([]models.Event, error)
	ByDateRange(ctx context.Context, q dto.DateRangeQuery) ([]models.Event, error)
	FilterOptions() models.FilterOptions
	Register(ctx context.Context, eventID string, req dto.RegisterAttendeeRequest) (*models.Attendee, error)
}

// EventHandler serves the public calendar.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List published events
// @Description Filter, sort and paginate the published calendar
// @Tags Events
// @Produce json
// @Param q query string false "Search term"
// @Param hideRecurring query bool false "Hide recurring events"
// @Param sortBy query string false "Date, Title, Popularity or RecentlyAdded"
// @Param dateRange query string false "all, today, tomorrow, thisWeek, thisMonth, nextMonth or custom"
// @Param startDate query string false "Custom range start (YYYY-MM-DD)"
// @Param endDate query string false "Custom range end (YYYY-MM-DD)"
// @Param experience query string false "Experience"
// @Param eventType query string false "Event type"
// @Param subject query string false "Subject"
// @Param audience query string false "Audience"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var q dto.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	sel, err := service.ParseFilterSelection(q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	view, err := h.service.List(c.Request.Context(), sel, q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view.Response(), view.Pagination(), middleware.ExtractMeta(c))
}

// Featured godoc
// @Summary Featured events
// @Description First matches of the current selection, or the first published events when nothing matches
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/featured [get]
func (h *EventHandler) Featured(c *gin.Context) {
	var q dto.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	sel, err := service.ParseFilterSelection(q)
	if err != nil {
		response.Error(c, err)
		return
	}
	featured, err := h.service.Featured(c.Request.Context(), sel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, featured, nil)
}

// FilterOptions godoc
// @Summary Filter panel options
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/filters/options [get]
func (h *EventHandler) FilterOptions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.FilterOptions(), nil)
}

// Search godoc
// @Summary Backend text search
// @Tags Events
// @Produce json
// @Param query query string false "Text"
// @Param category query string false "Category"
// @Param subject query string false "Subject"
// @Success 200 {object} response.Envelope
// @Router /events/search [get]
func (h *EventHandler) Search(c *gin.Context) {
	var q dto.EventSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search query"))
		return
	}
	events, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// DateRange godoc
// @Summary Events between two dates
// @Tags Events
// @Produce json
// @Param startDate query string true "Start (YYYY-MM-DD)"
// @Param endDate query string true "End (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/date-range [get]
func (h *EventHandler) DateRange(c *gin.Context) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date range"))
		return
	}
	events, err := h.service.ByDateRange(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Register godoc
// @Summary Register for an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.RegisterAttendeeRequest true "Attendee"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	var req dto.RegisterAttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	attendee, err := h.service.Register(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attendee)
}
