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

type adminEventRepository interface {
	ListAdmin(ctx context.Context) ([]models.Event, error)
	ListDrafts(ctx context.Context) ([]models.Event, error)
	ListPending(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, req dto.EventRequest) (*models.Event, error)
	Update(ctx context.Context, id string, req dto.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (*models.Event, error)
	Reject(ctx context.Context, id, reason string) (*models.Event, error)
	Attendees(ctx context.Context, eventID string) ([]models.Attendee, error)
	UpdateAttendeeStatus(ctx context.Context, attendeeID, status string) (*models.Attendee, error)
}

// AdminEventListQuery narrows the moderation table.
type AdminEventListQuery struct {
	Status    models.EventStatus
	Title     string
	Selection models.FilterSelection
	Page      int
	PageSize  int
}

// AdminEventService runs the moderation console. Every mutation is checked
// against the access policy, forwarded, and followed by a full refetch.
type AdminEventService struct {
	repo      adminEventRepository
	cache     *CacheService
	policy    *AccessPolicy
	sorter    *EventSorter
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminEventService constructs an AdminEventService.
func NewAdminEventService(repo adminEventRepository, cache *CacheService, policy *AccessPolicy, sorter *EventSorter, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *AdminEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if policy == nil {
		policy = NewAccessPolicy()
	}
	if sorter == nil {
		sorter = NewEventSorter("")
	}
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	return &AdminEventService{repo: repo, cache: cache, policy: policy, sorter: sorter, clock: clk, validator: validate, logger: logger}
}

// List returns the decorated moderation table.
func (s *AdminEventService) List(ctx context.Context, session *models.Session, q AdminEventListQuery) (*dto.AdminEventListResponse, *models.Pagination, error) {
	actor := actorOf(session)
	events, err := s.repo.ListAdmin(ctx)
	if err != nil {
		return nil, nil, classifyUpstream(err)
	}

	narrowed := make([]models.Event, 0, len(events))
	title := strings.ToLower(strings.TrimSpace(q.Title))
	for _, event := range events {
		if q.Status != "" && event.Status != q.Status {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(event.Title), title) {
			continue
		}
		narrowed = append(narrowed, event)
	}
	sorted, _ := FilterAndSort(narrowed, q.Selection, s.clock.Now(), s.sorter)

	resp := &dto.AdminEventListResponse{Total: len(events), Matched: len(sorted)}
	if q.Page <= 0 || q.PageSize <= 0 {
		resp.Events = s.policy.Decorate(actor, sorted)
		return resp, nil, nil
	}
	resp.Events = s.policy.Decorate(actor, Paginate(sorted, q.Page, q.PageSize))
	pagination := &models.Pagination{
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: len(sorted),
		TotalPages: TotalPages(len(sorted), q.PageSize),
	}
	return resp, pagination, nil
}

// Stats tallies the dashboard cards.
func (s *AdminEventService) Stats(ctx context.Context, session *models.Session) (dto.EventStats, error) {
	events, err := s.repo.ListAdmin(ctx)
	if err != nil {
		return dto.EventStats{}, classifyUpstream(err)
	}
	stats := dto.EventStats{Total: len(events)}
	for _, event := range events {
		switch event.Status {
		case models.EventStatusPending:
			stats.Pending++
		case models.EventStatusApproved, models.EventStatusPublished:
			stats.Approved++
		case models.EventStatusRejected:
			stats.Rejected++
		case models.EventStatusDraft:
			stats.Drafts++
		}
	}
	stats.AwaitingApproval = session.IsSuperAdmin() && stats.Pending > 0
	return stats, nil
}

// Drafts lists the caller's drafts.
func (s *AdminEventService) Drafts(ctx context.Context, session *models.Session) ([]dto.AdminEventRow, error) {
	events, err := s.repo.ListDrafts(ctx)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return s.policy.Decorate(actorOf(session), events), nil
}

// Pending lists events awaiting moderation.
func (s *AdminEventService) Pending(ctx context.Context, session *models.Session) ([]dto.AdminEventRow, error) {
	actor := actorOf(session)
	if err := s.policy.CanApproveEvent(actor, models.Event{}); err != nil {
		return nil, err
	}
	events, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return s.policy.Decorate(actor, events), nil
}

// Get returns one event with its row actions.
func (s *AdminEventService) Get(ctx context.Context, session *models.Session, id string) (*dto.AdminEventRow, error) {
	event, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	row := dto.AdminEventRow{Event: *event, Actions: s.policy.EventActions(actorOf(session), *event)}
	return &row, nil
}

// Create submits a new event.
func (s *AdminEventService) Create(ctx context.Context, session *models.Session, req dto.EventRequest) (*dto.EventMutationResult, error) {
	if err := s.validateEvent(req); err != nil {
		return nil, err
	}
	actor := actorOf(session)
	if err := s.policy.CanCreateEvent(actor); err != nil {
		return nil, err
	}
	event, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("event created", zap.String("admin_id", actor.ID), zap.Bool("draft", req.Draft))
	return s.afterMutation(ctx, actor, event), nil
}

// Update edits an existing event.
func (s *AdminEventService) Update(ctx context.Context, session *models.Session, id string, req dto.EventRequest) (*dto.EventMutationResult, error) {
	if err := s.validateEvent(req); err != nil {
		return nil, err
	}
	actor := actorOf(session)
	current, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanEditEvent(actor, *current); err != nil {
		return nil, err
	}
	event, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("event updated", zap.String("admin_id", actor.ID), zap.String("event_id", id))
	return s.afterMutation(ctx, actor, event), nil
}

// Delete removes an event.
func (s *AdminEventService) Delete(ctx context.Context, session *models.Session, id string) (*dto.EventMutationResult, error) {
	actor := actorOf(session)
	current, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanDeleteEvent(actor, *current); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("event deleted", zap.String("admin_id", actor.ID), zap.String("event_id", id))
	return s.afterMutation(ctx, actor, nil), nil
}

// Approve publishes a pending event.
func (s *AdminEventService) Approve(ctx context.Context, session *models.Session, id string) (*dto.EventMutationResult, error) {
	actor := actorOf(session)
	if err := s.policy.CanApproveEvent(actor, models.Event{ID: id}); err != nil {
		return nil, err
	}
	event, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("event approved", zap.String("admin_id", actor.ID), zap.String("event_id", id))
	return s.afterMutation(ctx, actor, event), nil
}

// Reject declines a pending event. A blank reason never reaches the backend.
func (s *AdminEventService) Reject(ctx context.Context, session *models.Session, id string, req dto.RejectEventRequest) (*dto.EventMutationResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	actor := actorOf(session)
	if err := s.policy.CanRejectEvent(actor, models.Event{ID: id}); err != nil {
		return nil, err
	}
	event, err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	s.logger.Info("event rejected", zap.String("admin_id", actor.ID), zap.String("event_id", id))
	return s.afterMutation(ctx, actor, event), nil
}

// Attendees lists registrations for an event.
func (s *AdminEventService) Attendees(ctx context.Context, eventID string) ([]models.Attendee, error) {
	attendees, err := s.repo.Attendees(ctx, eventID)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return attendees, nil
}

// UpdateAttendeeStatus changes a registration state and returns the
// refreshed roster when the backend says which event it belongs to.
func (s *AdminEventService) UpdateAttendeeStatus(ctx context.Context, attendeeID string, req dto.AttendeeStatusRequest) (*dto.AttendeeMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendee status")
	}
	attendee, err := s.repo.UpdateAttendeeStatus(ctx, attendeeID, req.Status)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	result := &dto.AttendeeMutationResult{Result: attendee, Attendees: []models.Attendee{}}
	if attendee == nil || attendee.EventID == "" {
		return result, nil
	}
	roster, err := s.repo.Attendees(ctx, attendee.EventID)
	if err != nil {
		s.logger.Warn("attendee refetch failed", zap.String("event_id", attendee.EventID), zap.Error(err))
		return result, nil
	}
	result.Attendees = roster
	return result, nil
}

func (s *AdminEventService) fetch(ctx context.Context, id string) (*models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event id is required")
	}
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, classifyUpstream(err)
	}
	return event, nil
}

func (s *AdminEventService) validateEvent(req dto.EventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	return nil
}

// afterMutation drops cached snapshots and refetches the admin list. A failed
// refetch does not undo the mutation; the result is marked stale instead.
func (s *AdminEventService) afterMutation(ctx context.Context, actor models.AdminInfo, result *models.Event) *dto.EventMutationResult {
	s.cache.InvalidateEvents(ctx)
	out := &dto.EventMutationResult{Result: result, Events: []dto.AdminEventRow{}}
	events, err := s.repo.ListAdmin(ctx)
	if err != nil {
		s.logger.Warn("admin event refetch failed", zap.Error(err))
		out.Stale = true
		return out
	}
	out.Events = s.policy.Decorate(actor, events)
	return out
}

func actorOf(session *models.Session) models.AdminInfo {
	if session == nil {
		return models.AdminInfo{}
	}
	return session.Admin
}
