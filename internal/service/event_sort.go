package service

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// EventSorter orders event lists. Title ordering uses locale collation.
type EventSorter struct {
	tag language.Tag
}

// NewEventSorter builds a sorter collating titles for lang (BCP 47). Unknown
// languages fall back to English.
func NewEventSorter(lang string) *EventSorter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &EventSorter{tag: tag}
}

// Sort returns a stably sorted copy of events. The input is never reordered.
// Unknown keys sort by date.
func (s *EventSorter) Sort(events []models.Event, key models.SortKey) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)

	switch key {
	case models.SortByTitle:
		// Collator keeps scratch buffers, one per sort call.
		c := collate.New(s.tag)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	case models.SortByPopularity:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Interested > out[j].Interested
		})
	case models.SortByRecentlyAdded:
		sort.SliceStable(out, func(i, j int) bool {
			return dateAfter(out[i].CreatedAt, out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return dateBefore(out[i].Date, out[j].Date)
		})
	}
	return out
}

// dateBefore orders ascending with undated entries last.
func dateBefore(a, b models.EventDate) bool {
	switch {
	case a.Valid && b.Valid:
		return a.Time.Before(b.Time)
	case a.Valid:
		return true
	default:
		return false
	}
}

// dateAfter orders descending with undated entries last.
func dateAfter(a, b models.EventDate) bool {
	switch {
	case a.Valid && b.Valid:
		return a.Time.After(b.Time)
	case a.Valid:
		return true
	default:
		return false
	}
}
