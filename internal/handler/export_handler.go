package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, sel models.FilterSelection, format service.ExportFormat) (*service.ExportFile, error)
	Subscribe(req dto.SubscriptionRequest) (*dto.SubscriptionResponse, error)
	Feed(ctx context.Context, token string) (*service.ExportFile, error)
}

// ExportHandler serves downloads and calendar subscriptions.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export the filtered listing
// @Description Accepts the same filter parameters as GET /events
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /events/export.csv [get]
// @Router /events/export.pdf [get]
// @Router /events/export.ics [get]
func (h *ExportHandler) Export(format service.ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
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
		file, err := h.service.Render(c.Request.Context(), sel, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, file.Filename, file.ContentType, file.Body)
	}
}

// Subscribe godoc
// @Summary Create a calendar subscription
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.SubscriptionRequest true "Filter selection"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/subscriptions [post]
func (h *ExportHandler) Subscribe(c *gin.Context) {
	var req dto.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}
	sub, err := h.service.Subscribe(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Feed godoc
// @Summary Calendar feed for a subscription
// @Tags Exports
// @Produce text/calendar
// @Param token path string true "Signed token, optionally suffixed with .ics"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feeds/{token} [get]
func (h *ExportHandler) Feed(c *gin.Context) {
	file, err := h.service.Feed(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
