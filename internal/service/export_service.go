package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/signing"
)

// ExportFormat names a rendered export.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportICal ExportFormat = "ics"
)

// ParseExportFormat validates a format suffix.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimPrefix(raw, "."))); f {
	case ExportCSV, ExportPDF, ExportICal:
		return f, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportCSV:
		return "text/csv; charset=utf-8"
	case ExportPDF:
		return "application/pdf"
	case ExportICal:
		return "text/calendar; charset=utf-8"
	}
	return "application/octet-stream"
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type eventSource interface {
	Matching(ctx context.Context, sel models.FilterSelection) ([]models.Event, models.DateSpan, error)
}

type feedSigner interface {
	Issue(payload []byte) (string, time.Time, error)
	Verify(token string) ([]byte, time.Time, error)
}

type exportMetrics interface {
	RecordExport(format string)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table, title string) ([]byte, error)
}

type icalRenderer interface {
	Render(name string, entries []export.CalendarEntry) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix    string
	PublicURL    string
	CalendarName string
	Location     *time.Location
}

// ExportService renders the filtered listing as files and calendar feeds.
type ExportService struct {
	events  eventSource
	signer  feedSigner
	metrics exportMetrics
	csv     csvRenderer
	pdf     pdfRenderer
	ical    icalRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers get the
// package defaults.
func NewExportService(events eventSource, signer feedSigner, metrics exportMetrics, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ical icalRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CalendarName == "" {
		cfg.CalendarName = "Campus Events"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ical == nil {
		ical = export.NewICalExporter("")
	}
	return &ExportService{
		events:  events,
		signer:  signer,
		metrics: metrics,
		csv:     csv,
		pdf:     pdf,
		ical:    ical,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Render exports every event the selection keeps, in display order.
func (s *ExportService) Render(ctx context.Context, sel models.FilterSelection, format ExportFormat) (*ExportFile, error) {
	events, _, err := s.events.Matching(ctx, sel)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch format {
	case ExportCSV:
		body, err = s.csv.Render(eventTable(events))
	case ExportPDF:
		body, err = s.pdf.Render(eventTable(events), s.cfg.CalendarName)
	case ExportICal:
		body, err = s.ical.Render(s.cfg.CalendarName, s.calendarEntries(events))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(string(format))
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("events_%s.%s", s.now().In(s.cfg.Location).Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// Subscribe signs the selection into a calendar feed link.
func (s *ExportService) Subscribe(req dto.SubscriptionRequest) (*dto.SubscriptionResponse, error) {
	sel, err := SelectionFromSubscription(req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(sel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode selection")
	}
	token, expiresAt, err := s.signer.Issue(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign feed")
	}
	url := fmt.Sprintf("%s%s/feeds/%s.ics", s.cfg.PublicURL, strings.TrimRight(s.cfg.APIPrefix, "/"), token)
	return &dto.SubscriptionResponse{URL: url, Token: token, ExpiresAt: expiresAt}, nil
}

// Feed renders the calendar behind a subscription token. Relative ranges are
// resolved when the feed is read.
func (s *ExportService) Feed(ctx context.Context, token string) (*ExportFile, error) {
	payload, _, err := s.signer.Verify(strings.TrimSuffix(token, ".ics"))
	if err != nil {
		if errors.Is(err, signing.ErrExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "feed link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "feed not found")
	}
	var sel models.FilterSelection
	if err := json.Unmarshal(payload, &sel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "feed not found")
	}
	sel, err = normalizeSelection(sel)
	if err != nil {
		return nil, err
	}
	file, err := s.Render(ctx, sel, ExportICal)
	if err != nil {
		return nil, err
	}
	file.Filename = "events.ics"
	return file, nil
}

var eventColumns = []string{"Title", "Date", "Time", "Venue", "Category", "Subject", "Audience", "Interested"}

func eventTable(events []models.Event) export.Table {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		date := ""
		if event.Date.Valid {
			date = event.Date.CalendarDay().Format(calendarLayout)
		}
		hours := event.Time
		if event.EndTime != "" {
			hours = strings.TrimSpace(hours + " - " + event.EndTime)
		}
		rows = append(rows, []string{
			event.Title,
			date,
			hours,
			event.Place(),
			event.Category,
			event.Subject,
			event.Audience,
			strconv.Itoa(event.Interested),
		})
	}
	return export.Table{Columns: eventColumns, Rows: rows}
}

// clockLayouts are the time-of-day spellings the console stores.
var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3 PM", "3PM"}

func parseClock(raw string) (hour, minute int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

func (s *ExportService) calendarEntries(events []models.Event) []export.CalendarEntry {
	entries := make([]export.CalendarEntry, 0, len(events))
	for _, event := range events {
		if !event.Date.Valid {
			continue
		}
		entries = append(entries, s.calendarEntry(event))
	}
	return entries
}

func (s *ExportService) calendarEntry(event models.Event) export.CalendarEntry {
	loc := s.cfg.Location
	day := inLocation(event.Date.CalendarDay(), loc)
	lastDay := day
	if event.EndDate.Valid {
		if end := inLocation(event.EndDate.CalendarDay(), loc); end.After(day) {
			lastDay = end
		}
	}

	entry := export.CalendarEntry{
		UID:         event.ID,
		Summary:     event.Title,
		Description: strings.TrimSpace(event.Description),
		Location:    strings.TrimSpace(strings.Join(nonEmpty(event.Place(), event.Address), ", ")),
		Categories:  nonEmpty(event.Category, event.Subject),
	}
	if entry.UID == "" {
		entry.UID = uuid.NewString()
	}
	if s.cfg.PublicURL != "" && event.ID != "" {
		entry.URL = fmt.Sprintf("%s/events/%s", s.cfg.PublicURL, event.ID)
	}
	if event.CreatedAt.Valid {
		entry.Created = event.CreatedAt.Time
	}
	if event.UpdatedAt.Valid {
		entry.Modified = event.UpdatedAt.Time
	}

	hour, minute, timed := parseClock(event.Time)
	if !timed && (event.Date.Time.Hour() != 0 || event.Date.Time.Minute() != 0) {
		hour, minute, timed = event.Date.Time.Hour(), event.Date.Time.Minute(), true
	}
	if !timed {
		entry.AllDay = true
		entry.Start = day
		entry.End = lastDay.AddDate(0, 0, 1)
		return entry
	}

	entry.Start = day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	entry.End = entry.Start.Add(time.Hour)
	if endHour, endMinute, ok := parseClock(event.EndTime); ok {
		end := lastDay.Add(time.Duration(endHour)*time.Hour + time.Duration(endMinute)*time.Minute)
		if end.After(entry.Start) {
			entry.End = end
		}
	}
	return entry
}

func inLocation(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
