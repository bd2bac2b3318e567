package dto

import (
	"time"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// EventQuery captures the listing query string.
type EventQuery struct {
	Query         string `form:"q"`
	SearchTerm    string `form:"searchTerm"`
	HideRecurring bool   `form:"hideRecurring"`
	SortBy        string `form:"sortBy"`
	DateRange     string `form:"dateRange"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
	Experience    string `form:"experience"`
	EventType     string `form:"eventType"`
	Subject       string `form:"subject"`
	Audience      string `form:"audience"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// Term returns the free-text search, preferring the short form.
func (q EventQuery) Term() string {
	if q.Query != "" {
		return q.Query
	}
	return q.SearchTerm
}

// AdminEventQuery adds the dashboard status filter and title search.
type AdminEventQuery struct {
	EventQuery
	Status string `form:"status"`
	Title  string `form:"title"`
}

// EventSearchQuery proxies the backend search endpoint.
type EventSearchQuery struct {
	Query    string `form:"query" validate:"max=200"`
	Category string `form:"category"`
	Subject  string `form:"subject"`
}

// DateRangeQuery proxies the backend date-range endpoint.
type DateRangeQuery struct {
	StartDate string `form:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" validate:"required,datetime=2006-01-02"`
}

// Upload is an image attached to an event create or update.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// EventRequest is the create/update payload. The same field names are sent to
// the backend as JSON or as multipart form fields when images are attached.
type EventRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,max=200"`
	Category    string   `json:"category" form:"category" validate:"required"`
	Date        string   `json:"date" form:"date" validate:"required"`
	Time        string   `json:"time" form:"time"`
	EndTime     string   `json:"endTime" form:"endTime"`
	Location    string   `json:"location" form:"location"`
	Address     string   `json:"address" form:"address"`
	Description string   `json:"description" form:"description"`
	Details     string   `json:"details" form:"details"`
	Sponsor     string   `json:"sponsor" form:"sponsor"`
	Audience    string   `json:"audience" form:"audience"`
	Speaker     string   `json:"speaker" form:"speaker"`
	Subject     string   `json:"subject" form:"subject"`
	InPerson    bool     `json:"inPerson" form:"inPerson"`
	Draft       bool     `json:"draft" form:"draft"`
	Recurring   bool     `json:"recurring" form:"recurring"`
	Tags        []string `json:"tags" form:"tags"`
	Uploads     []Upload `json:"-" form:"-"`
}

// HasUploads reports whether the request must travel as multipart.
func (r EventRequest) HasUploads() bool {
	return len(r.Uploads) > 0
}

// RejectEventRequest carries the moderator's reason.
type RejectEventRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RegisterAttendeeRequest is the public registration form.
type RegisterAttendeeRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=6,max=32"`
}

// AttendeeStatusRequest changes a registration state.
type AttendeeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=registered confirmed cancelled attended"`
}

// ResolvedRange describes the calendar window applied to a listing.
type ResolvedRange struct {
	Range   models.DateRange `json:"range"`
	Start   string           `json:"start,omitempty"`
	End     string           `json:"end,omitempty"`
	Bounded bool             `json:"bounded"`
}

// EventListResponse is the public listing view.
type EventListResponse struct {
	Events        []models.Event         `json:"events"`
	Total         int                    `json:"total"`
	Matched       int                    `json:"matched"`
	ActiveFilters int                    `json:"active_filters"`
	Selection     models.FilterSelection `json:"selection"`
	Range         ResolvedRange          `json:"range"`
}

// FeaturedResponse is the home page strip.
type FeaturedResponse struct {
	Events   []models.Event `json:"events"`
	Fallback bool           `json:"fallback"`
}

// EventActions are the row affordances shown to the signed-in admin.
type EventActions struct {
	Edit    bool `json:"edit"`
	Delete  bool `json:"delete"`
	Approve bool `json:"approve"`
	Reject  bool `json:"reject"`
}

// AdminEventRow is an event decorated with what the caller may do with it.
type AdminEventRow struct {
	models.Event
	Actions EventActions `json:"actions"`
}

// AdminEventListResponse is the dashboard table.
type AdminEventListResponse struct {
	Events  []AdminEventRow `json:"events"`
	Total   int             `json:"total"`
	Matched int             `json:"matched"`
}

// EventStats are the dashboard counters.
type EventStats struct {
	Total            int  `json:"total"`
	Pending          int  `json:"pending"`
	Approved         int  `json:"approved"`
	Rejected         int  `json:"rejected"`
	Drafts           int  `json:"drafts"`
	AwaitingApproval bool `json:"awaiting_approval"`
}

// EventMutationResult pairs a mutation outcome with the refreshed list.
// Stale is set when the mutation succeeded but the refetch did not.
type EventMutationResult struct {
	Result *models.Event   `json:"result,omitempty"`
	Events []AdminEventRow `json:"events"`
	Stale  bool            `json:"stale,omitempty"`
}

// AttendeeMutationResult pairs an attendee update with the refreshed roster.
type AttendeeMutationResult struct {
	Result    *models.Attendee  `json:"result,omitempty"`
	Attendees []models.Attendee `json:"attendees,omitempty"`
}

// SubscriptionRequest asks for a calendar feed of a filter selection.
type SubscriptionRequest struct {
	HideRecurring bool   `json:"hideRecurring"`
	SortBy        string `json:"sortBy"`
	DateRange     string `json:"dateRange"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Experience    string `json:"experience"`
	EventType     string `json:"eventType"`
	Subject       string `json:"subject"`
	Audience      string `json:"audience"`
	SearchTerm    string `json:"searchTerm"`
}

// SubscriptionResponse returns the signed feed location.
type SubscriptionResponse struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
