package service

import (
	"time"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
)

const (
	defaultPageSize      = 8
	defaultFeaturedCount = 3
)

// ViewConfig sizes the listing pages and the featured strip.
type ViewConfig struct {
	PageSize      int
	FeaturedCount int
}

func (c ViewConfig) withDefaults() ViewConfig {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.FeaturedCount <= 0 {
		c.FeaturedCount = defaultFeaturedCount
	}
	return c
}

// EventView is one rendered page of a filtered, sorted listing.
type EventView struct {
	Items         []models.Event
	Total         int
	Matched       int
	Page          int
	PageSize      int
	TotalPages    int
	ActiveFilters int
	Selection     models.FilterSelection
	Span          models.DateSpan
}

// Pagination returns the envelope metadata for the view.
func (v EventView) Pagination() *models.Pagination {
	return &models.Pagination{Page: v.Page, PageSize: v.PageSize, TotalCount: v.Matched, TotalPages: v.TotalPages}
}

// Response converts the view into its wire shape.
func (v EventView) Response() dto.EventListResponse {
	return dto.EventListResponse{
		Events:        v.Items,
		Total:         v.Total,
		Matched:       v.Matched,
		ActiveFilters: v.ActiveFilters,
		Selection:     v.Selection,
		Range: dto.ResolvedRange{
			Range:   v.Selection.DateRange,
			Start:   formatSpanDate(v.Span.Start),
			End:     formatSpanDate(v.Span.End),
			Bounded: v.Span.Bounded,
		},
	}
}

// Paginate returns items[(page-1)*size : page*size] clipped to the slice.
// Pages outside the list yield an empty, non-nil slice.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 || page-1 >= TotalPages(len(items), size) {
		return []T{}
	}
	start := (page - 1) * size
	end := len(items)
	if end-start > size {
		end = start + size
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// TotalPages is the number of pages needed for n items.
func TotalPages(n, size int) int {
	if size < 1 || n <= 0 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// FilterAndSort runs the full pipeline up to, but excluding, pagination.
func FilterAndSort(events []models.Event, sel models.FilterSelection, now time.Time, sorter *EventSorter) ([]models.Event, models.DateSpan) {
	span := ResolveDateRange(sel.DateRange, now, sel.StartDate, sel.EndDate)
	return sorter.Sort(FilterEvents(events, sel, span), sel.SortBy), span
}

// BuildEventView filters, sorts and slices events for page.
func BuildEventView(events []models.Event, sel models.FilterSelection, now time.Time, sorter *EventSorter, page, pageSize int) EventView {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	sorted, span := FilterAndSort(events, sel, now, sorter)
	return EventView{
		Items:         Paginate(sorted, page, pageSize),
		Total:         len(events),
		Matched:       len(sorted),
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    TotalPages(len(sorted), pageSize),
		ActiveFilters: sel.ActiveCount(),
		Selection:     sel,
		Span:          span,
	}
}

// Featured returns the first count events of the filtered view, or of the
// unfiltered source when nothing matches. fallback reports the latter.
func Featured(events []models.Event, sel models.FilterSelection, now time.Time, sorter *EventSorter, count int) (featured []models.Event, fallback bool) {
	if count <= 0 {
		count = defaultFeaturedCount
	}
	sorted, _ := FilterAndSort(events, sel, now, sorter)
	if len(sorted) == 0 {
		return Paginate(events, 1, count), len(events) > 0
	}
	return Paginate(sorted, 1, count), false
}
