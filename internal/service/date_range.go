package service

import (
	"time"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// calendarLayout is the format of custom range bounds.
const calendarLayout = "2006-01-02"

// ResolveDateRange maps a symbolic range onto an inclusive calendar window.
// now is read once by the caller and only its calendar date in its own
// location is used. Custom bounds are taken as given; a custom range missing
// either bound is unbounded.
func ResolveDateRange(r models.DateRange, now time.Time, start, end string) models.DateSpan {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch r {
	case models.DateRangeToday:
		return models.DateSpan{Start: today, End: today, Bounded: true}
	case models.DateRangeTomorrow:
		tomorrow := today.AddDate(0, 0, 1)
		return models.DateSpan{Start: tomorrow, End: tomorrow, Bounded: true}
	case models.DateRangeThisWeek:
		first := today.AddDate(0, 0, -int(today.Weekday()))
		return models.DateSpan{Start: first, End: first.AddDate(0, 0, 6), Bounded: true}
	case models.DateRangeThisMonth:
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return models.DateSpan{Start: first, End: first.AddDate(0, 1, -1), Bounded: true}
	case models.DateRangeNextMonth:
		first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
		return models.DateSpan{Start: first, End: first.AddDate(0, 1, -1), Bounded: true}
	case models.DateRangeCustom:
		from, errFrom := time.Parse(calendarLayout, start)
		to, errTo := time.Parse(calendarLayout, end)
		if errFrom != nil || errTo != nil {
			return models.DateSpan{}
		}
		return models.DateSpan{Start: from, End: to, Bounded: true}
	default:
		return models.DateSpan{}
	}
}

// spanContains reports whether the event's calendar date falls inside span.
// Events without a usable date never match a bounded span.
func spanContains(span models.DateSpan, date models.EventDate) bool {
	if !span.Bounded {
		return true
	}
	if !date.Valid {
		return false
	}
	day := date.CalendarDay()
	return !day.Before(span.Start) && !day.After(span.End)
}

func formatSpanDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(calendarLayout)
}
