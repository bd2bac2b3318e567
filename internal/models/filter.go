package models

import "time"

// SortKey selects the comparator applied to a filtered list.
type SortKey string

const (
	SortByDate          SortKey = "Date"
	SortByTitle         SortKey = "Title"
	SortByPopularity    SortKey = "Popularity"
	SortByRecentlyAdded SortKey = "RecentlyAdded"
)

// DateRange is a symbolic date-range selector.
type DateRange string

const (
	DateRangeAll       DateRange = "all"
	DateRangeToday     DateRange = "today"
	DateRangeTomorrow  DateRange = "tomorrow"
	DateRangeThisWeek  DateRange = "thisWeek"
	DateRangeThisMonth DateRange = "thisMonth"
	DateRangeNextMonth DateRange = "nextMonth"
	DateRangeCustom    DateRange = "custom"
)

// Wildcard sentinels meaning "no restriction" for the enumerated selectors.
const (
	AllExperiences = "All Experiences"
	AllEventTypes  = "All Event Types"
	AllSubjects    = "All Subjects"
	AllAudiences   = "All Audiences"
)

// Experience values.
const (
	ExperienceInPerson = "In-Person"
	ExperienceVirtual  = "Virtual"
	ExperienceHybrid   = "Hybrid"
)

// FilterSelection is the fixed set of listing options. Build one with
// service.NewFilterSelection so enum fields are validated.
type FilterSelection struct {
	HideRecurring bool      `json:"hideRecurring"`
	SortBy        SortKey   `json:"sortBy" validate:"omitempty,sortkey"`
	DateRange     DateRange `json:"dateRange" validate:"omitempty,daterange"`
	StartDate     string    `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string    `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Experience    string    `json:"experience" validate:"omitempty,experience"`
	EventType     string    `json:"eventType" validate:"omitempty,eventtype"`
	Subject       string    `json:"subject" validate:"omitempty,subject"`
	Audience      string    `json:"audience" validate:"omitempty,audience"`
	SearchTerm    string    `json:"searchTerm,omitempty" validate:"max=200"`
}

// DefaultFilterSelection is the no-op selection: applying it returns the
// source list unchanged (before sorting by date).
func DefaultFilterSelection() FilterSelection {
	return FilterSelection{
		SortBy:     SortByDate,
		DateRange:  DateRangeAll,
		Experience: AllExperiences,
		EventType:  AllEventTypes,
		Subject:    AllSubjects,
		Audience:   AllAudiences,
	}
}

// ActiveCount is the number shown on the filter badge. The search term is not
// part of the panel and is not counted.
func (f FilterSelection) ActiveCount() int {
	count := 0
	if f.HideRecurring {
		count++
	}
	if f.SortBy != "" && f.SortBy != SortByDate {
		count++
	}
	if f.DateRange != "" && f.DateRange != DateRangeAll {
		count++
	}
	for _, pair := range [][2]string{
		{f.Experience, AllExperiences},
		{f.EventType, AllEventTypes},
		{f.Subject, AllSubjects},
		{f.Audience, AllAudiences},
	} {
		if pair[0] != "" && pair[0] != pair[1] {
			count++
		}
	}
	return count
}

// DateSpan is an inclusive calendar-date window. An unbounded span matches
// every event.
type DateSpan struct {
	Start   time.Time
	End     time.Time
	Bounded bool
}

// FilterOptions lists the choices offered by the filter panel.
type FilterOptions struct {
	SortBy      []SortKey   `json:"sortBy"`
	DateRanges  []DateRange `json:"dateRanges"`
	Experiences []string    `json:"experiences"`
	EventTypes  []string    `json:"eventTypes"`
	Subjects    []string    `json:"subjects"`
	Audiences   []string    `json:"audiences"`
}

var (
	SortKeys   = []SortKey{SortByDate, SortByTitle, SortByPopularity, SortByRecentlyAdded}
	DateRanges = []DateRange{DateRangeAll, DateRangeToday, DateRangeTomorrow, DateRangeThisWeek, DateRangeThisMonth, DateRangeNextMonth, DateRangeCustom}

	Experiences = []string{AllExperiences, ExperienceInPerson, ExperienceVirtual, ExperienceHybrid}

	EventTypes = []string{
		AllEventTypes,
		"Lecture/Presentation/Talk",
		"Workshop",
		"Conference",
		"Seminar",
		"Performance",
		"Exhibition",
		"Social Event",
		"Social/Exhibition",
		"Career Fair",
		"Networking",
		"Sports",
		"Cultural Event",
	}

	Subjects = []string{
		AllSubjects,
		"Technology",
		"Wellness",
		"Innovation",
		"Business",
		"Arts",
		"Arts & Humanities",
		"Business & Economics",
		"Engineering",
		"Health & Medicine",
		"Law & Government",
		"Natural Sciences",
		"Social Sciences",
		"Technology & Innovation",
		"Education",
		"Environment & Sustainability",
	}

	Audiences = []string{
		AllAudiences,
		"EVERYONE",
		"Students Only",
		"Faculty Only",
		"Students",
		"Faculty & Staff",
		"Alumni",
		"Public",
		"Prospective Students",
		"Graduate Students",
		"Undergraduate Students",
	}
)
