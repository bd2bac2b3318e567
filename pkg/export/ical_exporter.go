package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEntry is one VEVENT to render.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Categories  []string
	URL         string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Created     time.Time
	Modified    time.Time
}

// ICalExporter renders entries into an iCalendar document.
type ICalExporter struct {
	productID string
	now       func() time.Time
}

// NewICalExporter builds an exporter emitting the given PRODID.
func NewICalExporter(productID string) *ICalExporter {
	if productID == "" {
		productID = "-//campus-events-api//EN"
	}
	return &ICalExporter{productID: productID, now: time.Now}
}

// Render returns the serialized calendar named name.
func (e *ICalExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for i, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry %d has no uid", i)
		}
		if entry.Start.IsZero() {
			return nil, fmt.Errorf("calendar entry %s has no start", entry.UID)
		}
		ev := cal.AddEvent(entry.UID)
		ev.SetDtStampTime(stamp)
		ev.SetSummary(entry.Summary)
		if entry.Description != "" {
			ev.SetDescription(entry.Description)
		}
		if entry.Location != "" {
			ev.SetLocation(entry.Location)
		}
		if entry.URL != "" {
			ev.SetURL(entry.URL)
		}
		if len(entry.Categories) > 0 {
			ev.SetProperty(ics.ComponentPropertyCategories, strings.Join(entry.Categories, ","))
		}
		if !entry.Created.IsZero() {
			ev.SetCreatedTime(entry.Created)
		}
		if !entry.Modified.IsZero() {
			ev.SetModifiedAt(entry.Modified)
		}

		end := entry.End
		if entry.AllDay {
			if end.IsZero() || !end.After(entry.Start) {
				end = entry.Start.AddDate(0, 0, 1)
			}
			ev.SetAllDayStartAt(entry.Start)
			ev.SetAllDayEndAt(end)
			continue
		}
		if end.IsZero() || !end.After(entry.Start) {
			end = entry.Start.Add(time.Hour)
		}
		ev.SetStartAt(entry.Start)
		ev.SetEndAt(end)
	}

	return []byte(cal.Serialize()), nil
}
