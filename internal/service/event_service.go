package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/clock"
	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type eventReader interface {
	ListPublished(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Search(ctx context.Context, query, category, subject string) ([]models.Event, error)
	ByDateRange(ctx context.Context, start, end string) ([]models.Event, error)
	Register(ctx context.Context, eventID string, req dto.RegisterAttendeeRequest) (*models.Attendee, error)
}

// EventService serves the public listing. Published events are fetched once
// per cache window and filtered in process.
type EventService struct {
	repo      eventReader
	cache     *CacheService
	sorter    *EventSorter
	clock     clock.Clock
	view      ViewConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventReader, cache *CacheService, sorter *EventSorter, clk clock.Clock, view ViewConfig, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if sorter == nil {
		sorter = NewEventSorter("")
	}
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	return &EventService{
		repo:      repo,
		cache:     cache,
		sorter:    sorter,
		clock:     clk,
		view:      view.withDefaults(),
		validator: validate,
		logger:    logger,
	}
}

// Published returns the published events snapshot.
func (s *EventService) Published(ctx context.Context) ([]models.Event, error) {
	var cached []models.Event
	if s.cache.Get(ctx, cacheKeyPublished, &cached) {
		return cached, nil
	}
	events, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.cache.Set(ctx, cacheKeyPublished, events, 0)
	return events, nil
}

// List renders one page of the filtered published events.
func (s *EventService) List(ctx context.Context, sel models.FilterSelection, page, pageSize int) (*EventView, error) {
	events, err := s.Published(ctx)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = s.view.PageSize
	}
	if page <= 0 {
		page = 1
	}
	view := BuildEventView(events, sel, s.clock.Now(), s.sorter, page, pageSize)
	return &view, nil
}

// Matching returns every published event the selection keeps, sorted.
func (s *EventService) Matching(ctx context.Context, sel models.FilterSelection) ([]models.Event, models.DateSpan, error) {
	events, err := s.Published(ctx)
	if err != nil {
		return nil, models.DateSpan{}, err
	}
	out, span := FilterAndSort(events, sel, s.clock.Now(), s.sorter)
	return out, span, nil
}

// Featured returns the featured strip for the selection.
func (s *EventService) Featured(ctx context.Context, sel models.FilterSelection) (dto.FeaturedResponse, error) {
	events, err := s.Published(ctx)
	if err != nil {
		return dto.FeaturedResponse{}, err
	}
	featured, fallback := Featured(events, sel, s.clock.Now(), s.sorter, s.view.FeaturedCount)
	return dto.FeaturedResponse{Events: featured, Fallback: fallback}, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event id is required")
	}
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return event, nil
}

// Search runs the backend text search.
func (s *EventService) Search(ctx context.Context, q dto.EventSearchQuery) ([]models.Event, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search query")
	}
	events, err := s.repo.Search(ctx, strings.TrimSpace(q.Query), q.Category, q.Subject)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return events, nil
}

// ByDateRange proxies the backend date range lookup.
func (s *EventService) ByDateRange(ctx context.Context, q dto.DateRangeQuery) ([]models.Event, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	if q.StartDate > q.EndDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must not be after end date")
	}
	events, err := s.repo.ByDateRange(ctx, q.StartDate, q.EndDate)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return events, nil
}

// FilterOptions lists the filter panel choices.
func (s *EventService) FilterOptions() models.FilterOptions {
	return FilterOptionsCatalog()
}

// Register signs an attendee up for an event.
func (s *EventService) Register(ctx context.Context, eventID string, req dto.RegisterAttendeeRequest) (*models.Attendee, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	attendee, err := s.repo.Register(ctx, eventID, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.cache.InvalidateEvents(ctx)
	s.logger.Info("attendee registered", zap.String("event_id", eventID))
	return attendee, nil
}
