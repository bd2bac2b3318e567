package service

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

var (
	filterValidatorOnce sync.Once
	filterValidator     *validator.Validate
)

// RegisterFilterValidations installs the enum checks used by FilterSelection
// tags on v.
func RegisterFilterValidations(v *validator.Validate) error {
	lists := map[string][]string{
		"sortkey":    sortKeyStrings(),
		"daterange":  dateRangeStrings(),
		"experience": models.Experiences,
		"eventtype":  models.EventTypes,
		"subject":    models.Subjects,
		"audience":   models.Audiences,
	}
	for tag, values := range lists {
		allowed := make(map[string]struct{}, len(values))
		for _, value := range values {
			allowed[value] = struct{}{}
		}
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			_, ok := allowed[fl.Field().String()]
			return ok
		}); err != nil {
			return err
		}
	}
	return nil
}

func selectionValidator() *validator.Validate {
	filterValidatorOnce.Do(func() {
		v := validator.New()
		if err := RegisterFilterValidations(v); err != nil {
			panic(err)
		}
		filterValidator = v
	})
	return filterValidator
}

func sortKeyStrings() []string {
	out := make([]string, 0, len(models.SortKeys))
	for _, key := range models.SortKeys {
		out = append(out, string(key))
	}
	return out
}

func dateRangeStrings() []string {
	out := make([]string, 0, len(models.DateRanges))
	for _, r := range models.DateRanges {
		out = append(out, string(r))
	}
	return out
}

// FilterOption mutates a selection under construction.
type FilterOption func(*models.FilterSelection)

// WithSearch sets the free-text term.
func WithSearch(term string) FilterOption {
	return func(f *models.FilterSelection) { f.SearchTerm = term }
}

// WithHideRecurring toggles removal of recurring events.
func WithHideRecurring(hide bool) FilterOption {
	return func(f *models.FilterSelection) { f.HideRecurring = hide }
}

// WithSort selects the comparator.
func WithSort(key models.SortKey) FilterOption {
	return func(f *models.FilterSelection) { f.SortBy = key }
}

// WithDateRange selects a symbolic range. start and end only matter for custom.
func WithDateRange(r models.DateRange, start, end string) FilterOption {
	return func(f *models.FilterSelection) {
		f.DateRange = r
		f.StartDate = start
		f.EndDate = end
	}
}

// WithExperience restricts by attendance mode.
func WithExperience(value string) FilterOption {
	return func(f *models.FilterSelection) { f.Experience = value }
}

// WithEventType restricts by category.
func WithEventType(value string) FilterOption {
	return func(f *models.FilterSelection) { f.EventType = value }
}

// WithSubject restricts by subject.
func WithSubject(value string) FilterOption {
	return func(f *models.FilterSelection) { f.Subject = value }
}

// WithAudience restricts by audience.
func WithAudience(value string) FilterOption {
	return func(f *models.FilterSelection) { f.Audience = value }
}

// NewFilterSelection builds a validated selection starting from the defaults.
// Empty values fall back to their defaults.
func NewFilterSelection(opts ...FilterOption) (models.FilterSelection, error) {
	sel := models.DefaultFilterSelection()
	for _, opt := range opts {
		opt(&sel)
	}
	return normalizeSelection(sel)
}

// ParseFilterSelection builds a selection from listing query parameters.
func ParseFilterSelection(q dto.EventQuery) (models.FilterSelection, error) {
	return NewFilterSelection(
		WithSearch(q.Term()),
		WithHideRecurring(q.HideRecurring),
		WithSort(models.SortKey(q.SortBy)),
		WithDateRange(models.DateRange(q.DateRange), q.StartDate, q.EndDate),
		WithExperience(q.Experience),
		WithEventType(q.EventType),
		WithSubject(q.Subject),
		WithAudience(q.Audience),
	)
}

// SelectionFromSubscription converts a subscription payload.
func SelectionFromSubscription(req dto.SubscriptionRequest) (models.FilterSelection, error) {
	return NewFilterSelection(
		WithSearch(req.SearchTerm),
		WithHideRecurring(req.HideRecurring),
		WithSort(models.SortKey(req.SortBy)),
		WithDateRange(models.DateRange(req.DateRange), req.StartDate, req.EndDate),
		WithExperience(req.Experience),
		WithEventType(req.EventType),
		WithSubject(req.Subject),
		WithAudience(req.Audience),
	)
}

func normalizeSelection(sel models.FilterSelection) (models.FilterSelection, error) {
	defaults := models.DefaultFilterSelection()
	sel.SearchTerm = strings.TrimSpace(sel.SearchTerm)
	sel.StartDate = strings.TrimSpace(sel.StartDate)
	sel.EndDate = strings.TrimSpace(sel.EndDate)
	if sel.SortBy == "" {
		sel.SortBy = defaults.SortBy
	}
	if sel.DateRange == "" {
		sel.DateRange = defaults.DateRange
	}
	if sel.Experience == "" {
		sel.Experience = defaults.Experience
	}
	if sel.EventType == "" {
		sel.EventType = defaults.EventType
	}
	if sel.Subject == "" {
		sel.Subject = defaults.Subject
	}
	if sel.Audience == "" {
		sel.Audience = defaults.Audience
	}
	if sel.DateRange != models.DateRangeCustom {
		sel.StartDate, sel.EndDate = "", ""
	}
	if err := selectionValidator().Struct(sel); err != nil {
		return models.FilterSelection{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter selection")
	}
	return sel, nil
}

// FilterEvents keeps the events satisfying every active predicate, in their
// original order. The result never shares a backing array with events.
func FilterEvents(events []models.Event, sel models.FilterSelection, span models.DateSpan) []models.Event {
	term := strings.ToLower(strings.TrimSpace(sel.SearchTerm))
	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		if term != "" && !matchesSearch(event, term) {
			continue
		}
		if sel.HideRecurring && event.Recurring {
			continue
		}
		if !spanContains(span, event.Date) {
			continue
		}
		if active(sel.EventType, models.AllEventTypes) && event.Category != sel.EventType {
			continue
		}
		if active(sel.Subject, models.AllSubjects) && event.Subject != sel.Subject {
			continue
		}
		if active(sel.Audience, models.AllAudiences) && event.Audience != sel.Audience {
			continue
		}
		if active(sel.Experience, models.AllExperiences) && !matchesExperience(event, sel.Experience) {
			continue
		}
		out = append(out, event)
	}
	return out
}

func active(value, wildcard string) bool {
	return value != "" && value != wildcard
}

func matchesSearch(event models.Event, term string) bool {
	for _, field := range []string{event.Title, event.Venue, event.Category, event.Description} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func matchesExperience(event models.Event, experience string) bool {
	switch experience {
	case models.ExperienceInPerson:
		return event.InPerson
	case models.ExperienceVirtual:
		return !event.InPerson
	case models.ExperienceHybrid:
		for _, tag := range event.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), "hybrid") {
				return true
			}
		}
		return false
	}
	return true
}

// FilterOptionsCatalog returns the choices offered by the filter panel.
func FilterOptionsCatalog() models.FilterOptions {
	return models.FilterOptions{
		SortBy:      append([]models.SortKey(nil), models.SortKeys...),
		DateRanges:  append([]models.DateRange(nil), models.DateRanges...),
		Experiences: append([]string(nil), models.Experiences...),
		EventTypes:  append([]string(nil), models.EventTypes...),
		Subjects:    append([]string(nil), models.Subjects...),
		Audiences:   append([]string(nil), models.Audiences...),
	}
}
