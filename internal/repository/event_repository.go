package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
)

// Backend operation names, used for metrics labels and error messages.
const (
	OpListEvents          = "events.list"
	OpListPublished       = "events.published"
	OpListAdminEvents     = "events.admin_all"
	OpListDrafts          = "events.drafts"
	OpListPending         = "events.pending"
	OpGetEvent            = "events.get"
	OpCreateEvent         = "events.create"
	OpUpdateEvent         = "events.update"
	OpDeleteEvent         = "events.delete"
	OpApproveEvent        = "events.approve"
	OpRejectEvent         = "events.reject"
	OpSearchEvents        = "events.search"
	OpEventsByDateRange   = "events.date_range"
	OpRegisterAttendee    = "events.register"
	OpListAttendees       = "events.attendees"
	OpUpdateAttendeeState = "events.attendee_status"
)

// EventRepository reads and writes events through the backend.
type EventRepository struct {
	client *BackendClient
}

// NewEventRepository constructs the repository.
func NewEventRepository(client *BackendClient) *EventRepository {
	return &EventRepository{client: client}
}

func (r *EventRepository) list(ctx context.Context, op, path string, query url.Values) ([]models.Event, error) {
	var events []models.Event
	if _, err := r.client.Do(ctx, Call{Op: op, Method: http.MethodGet, Path: path, Query: query}, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (r *EventRepository) one(ctx context.Context, call Call) (*models.Event, error) {
	var event models.Event
	envelope, err := r.client.Do(ctx, call, &event)
	if err != nil {
		return nil, err
	}
	if !hasData(envelope.Data) {
		return nil, nil
	}
	return &event, nil
}

// ListAll returns every event visible to the caller.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, OpListEvents, "/events", nil)
}

// ListPublished returns the public catalogue.
func (r *EventRepository) ListPublished(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, OpListPublished, "/events/published", nil)
}

// ListAdmin returns every event for the dashboard.
func (r *EventRepository) ListAdmin(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, OpListAdminEvents, "/events/admin/all", nil)
}

// ListDrafts returns the caller's drafts.
func (r *EventRepository) ListDrafts(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, OpListDrafts, "/events/admin/drafts", nil)
}

// ListPending returns events awaiting approval.
func (r *EventRepository) ListPending(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, OpListPending, "/events/admin/pending", nil)
}

// Search runs the backend text search.
func (r *EventRepository) Search(ctx context.Context, query, category, subject string) ([]models.Event, error) {
	params := url.Values{}
	setIf(params, "query", query)
	setIf(params, "category", category)
	setIf(params, "subject", subject)
	return r.list(ctx, OpSearchEvents, "/events/search", params)
}

// ByDateRange lists events between two dates as filtered by the backend.
func (r *EventRepository) ByDateRange(ctx context.Context, start, end string) ([]models.Event, error) {
	params := url.Values{}
	setIf(params, "startDate", start)
	setIf(params, "endDate", end)
	return r.list(ctx, OpEventsByDateRange, "/events/date-range", params)
}

// Get loads a single event.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := r.one(ctx, Call{Op: OpGetEvent, Method: http.MethodGet, Path: "/events/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, &UpstreamError{Op: OpGetEvent, Status: http.StatusNotFound}
	}
	return event, nil
}

// Create submits a new event.
func (r *EventRepository) Create(ctx context.Context, req dto.EventRequest) (*models.Event, error) {
	return r.one(ctx, eventCall(OpCreateEvent, http.MethodPost, "/events/post", req))
}

// Update replaces an event.
func (r *EventRepository) Update(ctx context.Context, id string, req dto.EventRequest) (*models.Event, error) {
	return r.one(ctx, eventCall(OpUpdateEvent, http.MethodPut, "/events/"+url.PathEscape(id), req))
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, Call{Op: OpDeleteEvent, Method: http.MethodDelete, Path: "/events/" + url.PathEscape(id)}, nil)
	return err
}

// Approve publishes a pending event.
func (r *EventRepository) Approve(ctx context.Context, id string) (*models.Event, error) {
	return r.one(ctx, Call{Op: OpApproveEvent, Method: http.MethodPut, Path: "/events/" + url.PathEscape(id) + "/approve"})
}

// Reject declines a pending event with reason.
func (r *EventRepository) Reject(ctx context.Context, id, reason string) (*models.Event, error) {
	return r.one(ctx, Call{
		Op:     OpRejectEvent,
		Method: http.MethodPut,
		Path:   "/events/" + url.PathEscape(id) + "/reject",
		JSON:   map[string]string{"reason": reason},
	})
}

// Register signs a visitor up for an event.
func (r *EventRepository) Register(ctx context.Context, eventID string, req dto.RegisterAttendeeRequest) (*models.Attendee, error) {
	var attendee models.Attendee
	envelope, err := r.client.Do(ctx, Call{
		Op:     OpRegisterAttendee,
		Method: http.MethodPost,
		Path:   "/events/" + url.PathEscape(eventID) + "/register",
		JSON:   req,
	}, &attendee)
	if err != nil {
		return nil, err
	}
	if !hasData(envelope.Data) {
		return nil, nil
	}
	return &attendee, nil
}

// Attendees lists registrations for an event.
func (r *EventRepository) Attendees(ctx context.Context, eventID string) ([]models.Attendee, error) {
	var attendees []models.Attendee
	if _, err := r.client.Do(ctx, Call{
		Op:     OpListAttendees,
		Method: http.MethodGet,
		Path:   "/events/" + url.PathEscape(eventID) + "/attendees",
	}, &attendees); err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []models.Attendee{}
	}
	return attendees, nil
}

// UpdateAttendeeStatus changes a registration state.
func (r *EventRepository) UpdateAttendeeStatus(ctx context.Context, attendeeID, status string) (*models.Attendee, error) {
	var attendee models.Attendee
	envelope, err := r.client.Do(ctx, Call{
		Op:     OpUpdateAttendeeState,
		Method: http.MethodPut,
		Path:   "/events/attendee/" + url.PathEscape(attendeeID) + "/status",
		JSON:   map[string]string{"status": status},
	}, &attendee)
	if err != nil {
		return nil, err
	}
	if !hasData(envelope.Data) {
		return nil, nil
	}
	return &attendee, nil
}

// eventCall encodes req as JSON, or as multipart when images are attached.
func eventCall(op, method, path string, req dto.EventRequest) Call {
	call := Call{Op: op, Method: method, Path: path}
	if !req.HasUploads() {
		tags := req.Tags
		if tags == nil {
			tags = []string{}
		}
		req.Tags = cleanTags(tags)
		call.JSON = req
		return call
	}

	call.Form = [][2]string{
		{"title", req.Title},
		{"category", req.Category},
		{"date", req.Date},
		{"time", req.Time},
		{"endTime", req.EndTime},
		{"location", req.Location},
		{"address", req.Address},
		{"description", req.Description},
		{"details", req.Details},
		{"sponsor", req.Sponsor},
		{"audience", req.Audience},
		{"speaker", req.Speaker},
		{"subject", req.Subject},
		{"inPerson", strconv.FormatBool(req.InPerson)},
		{"draft", strconv.FormatBool(req.Draft)},
		{"recurring", strconv.FormatBool(req.Recurring)},
		{"tags", strings.Join(cleanTags(req.Tags), ",")},
	}
	for _, upload := range req.Uploads {
		call.Files = append(call.Files, FormFile{
			Field:       upload.Field,
			Filename:    upload.Filename,
			ContentType: upload.ContentType,
			Data:        upload.Data,
		})
	}
	return call
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func setIf(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}
