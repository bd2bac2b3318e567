package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// EventStatus tracks the moderation lifecycle of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusPublished EventStatus = "published"
	EventStatusRejected  EventStatus = "rejected"
)

// Valid reports whether the status is one the backend emits.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPending, EventStatusApproved, EventStatusPublished, EventStatusRejected:
		return true
	}
	return false
}

// dateLayouts are tried in order when decoding timezone-naive backend dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EventDate is a lenient calendar timestamp. Values the backend sends in an
// unknown format decode to an invalid date instead of failing the whole list.
type EventDate struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// NewEventDate wraps a concrete time.
func NewEventDate(t time.Time) EventDate {
	return EventDate{Time: t, Valid: true}
}

// ParseEventDate parses raw using the accepted layouts.
func ParseEventDate(raw string) EventDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EventDate{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return EventDate{Time: t, Valid: true, Raw: raw}
		}
	}
	return EventDate{Raw: raw}
}

// CalendarDay returns the date at midnight with the clock reading preserved,
// i.e. the zone offset the backend supplied is not applied.
func (d EventDate) CalendarDay() time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// UnmarshalJSON accepts strings, numbers (unix millis) and null.
func (d *EventDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = EventDate{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var millis int64
		if numErr := json.Unmarshal(data, &millis); numErr == nil {
			*d = NewEventDate(time.UnixMilli(millis).UTC())
			return nil
		}
		*d = EventDate{Raw: string(data)}
		return nil
	}
	*d = ParseEventDate(raw)
	return nil
}

// MarshalJSON echoes the supplied representation when there is one.
func (d EventDate) MarshalJSON() ([]byte, error) {
	if d.Raw != "" {
		return json.Marshal(d.Raw)
	}
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// Event is the read-only copy of a calendar entry owned by the backend.
type Event struct {
	ID              string      `json:"_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Details         string      `json:"details,omitempty"`
	Category        string      `json:"category,omitempty"`
	Subject         string      `json:"subject,omitempty"`
	Audience        string      `json:"audience,omitempty"`
	Date            EventDate   `json:"date"`
	Time            string      `json:"time,omitempty"`
	EndTime         string      `json:"endTime,omitempty"`
	EndDate         EventDate   `json:"endDate"`
	Location        string      `json:"location,omitempty"`
	Venue           string      `json:"venue,omitempty"`
	Address         string      `json:"address,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	Recurring       bool        `json:"recurring"`
	InPerson        bool        `json:"inPerson"`
	Status          EventStatus `json:"status,omitempty"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
	Image           string      `json:"image,omitempty"`
	SpeakerImage    string      `json:"speakerImage,omitempty"`
	Images          []string    `json:"images,omitempty"`
	Speaker         string      `json:"speaker,omitempty"`
	Sponsor         string      `json:"sponsor,omitempty"`
	Interested      int         `json:"interested"`
	Attendees       int         `json:"numberOfAttendees"`
	Featured        bool        `json:"featured,omitempty"`
	CreatedBy       string      `json:"createdBy,omitempty"`
	CreatedAt       EventDate   `json:"createdAt"`
	UpdatedAt       EventDate   `json:"updatedAt"`
}

// UnmarshalJSON accepts both `_id` and `id`, and a populated `createdBy`
// object as well as a bare id.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		AltID     string          `json:"id"`
		CreatedBy json.RawMessage `json:"createdBy"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.AltID
	}
	e.CreatedBy = decodeOwner(aux.CreatedBy)
	return nil
}

func decodeOwner(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var populated struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &populated); err == nil {
		if populated.ID != "" {
			return populated.ID
		}
		return populated.AltID
	}
	return ""
}

// Place returns the venue text shown on cards.
func (e Event) Place() string {
	if e.Venue != "" {
		return e.Venue
	}
	return e.Location
}

// Attendee is a registration for an event.
type Attendee struct {
	ID        string    `json:"_id"`
	EventID   string    `json:"event,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status,omitempty"`
	CreatedAt EventDate `json:"createdAt"`
}

// UnmarshalJSON tolerates a populated `event` reference.
func (a *Attendee) UnmarshalJSON(data []byte) error {
	type plain Attendee
	aux := struct {
		*plain
		AltID   string          `json:"id"`
		EventID json.RawMessage `json:"event"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = aux.AltID
	}
	a.EventID = decodeOwner(aux.EventID)
	return nil
}

// Attendee registration states accepted by the backend.
const (
	AttendeeRegistered = "registered"
	AttendeeConfirmed  = "confirmed"
	AttendeeCancelled  = "cancelled"
	AttendeeAttended   = "attended"
)
