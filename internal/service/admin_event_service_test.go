package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/clock"
	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type stubAdminEventRepo struct {
	events     []models.Event
	listErr    error
	listCalls  int
	current    *models.Event
	mutateErr  error
	calls      []string
	reason     string
	attendees  []models.Attendee
	attendee   *models.Attendee
	rosterFor  string
	failListOn int
}

func (s *stubAdminEventRepo) ListAdmin(context.Context) ([]models.Event, error) {
	s.listCalls++
	if s.listErr != nil || (s.failListOn > 0 && s.listCalls >= s.failListOn) {
		if s.listErr != nil {
			return nil, s.listErr
		}
		return nil, &repository.TransportError{Op: repository.OpListAdminEvents, Err: errors.New("timeout")}
	}
	return s.events, nil
}

func (s *stubAdminEventRepo) ListDrafts(context.Context) ([]models.Event, error) {
	return s.events, nil
}

func (s *stubAdminEventRepo) ListPending(context.Context) ([]models.Event, error) {
	return s.events, nil
}

func (s *stubAdminEventRepo) Get(_ context.Context, id string) (*models.Event, error) {
	if s.current == nil {
		return nil, &repository.UpstreamError{Op: repository.OpGetEvent, Status: http.StatusNotFound}
	}
	return s.current, nil
}

func (s *stubAdminEventRepo) record(name string) error {
	s.calls = append(s.calls, name)
	return s.mutateErr
}

func (s *stubAdminEventRepo) Create(_ context.Context, req dto.EventRequest) (*models.Event, error) {
	if err := s.record("create"); err != nil {
		return nil, err
	}
	return &models.Event{ID: "new", Title: req.Title, Status: models.EventStatusPending}, nil
}

func (s *stubAdminEventRepo) Update(_ context.Context, id string, req dto.EventRequest) (*models.Event, error) {
	if err := s.record("update"); err != nil {
		return nil, err
	}
	return &models.Event{ID: id, Title: req.Title}, nil
}

func (s *stubAdminEventRepo) Delete(context.Context, string) error {
	return s.record("delete")
}

func (s *stubAdminEventRepo) Approve(_ context.Context, id string) (*models.Event, error) {
	if err := s.record("approve"); err != nil {
		return nil, err
	}
	return &models.Event{ID: id, Status: models.EventStatusApproved}, nil
}

func (s *stubAdminEventRepo) Reject(_ context.Context, id, reason string) (*models.Event, error) {
	s.reason = reason
	if err := s.record("reject"); err != nil {
		return nil, err
	}
	return &models.Event{ID: id, Status: models.EventStatusRejected, RejectionReason: reason}, nil
}

func (s *stubAdminEventRepo) Attendees(_ context.Context, eventID string) ([]models.Attendee, error) {
	s.rosterFor = eventID
	return s.attendees, nil
}

func (s *stubAdminEventRepo) UpdateAttendeeStatus(_ context.Context, attendeeID, status string) (*models.Attendee, error) {
	if err := s.record("attendee:" + status); err != nil {
		return nil, err
	}
	return s.attendee, nil
}

func adminEvents() []models.Event {
	return []models.Event{
		{ID: "e1", Title: "Robotics Workshop", Status: models.EventStatusPending, CreatedBy: regularAdmin.ID, Date: models.ParseEventDate("2025-06-20")},
		{ID: "e2", Title: "Art Walk", Status: models.EventStatusApproved, CreatedBy: regularAdmin.ID, Date: models.ParseEventDate("2025-06-18")},
		{ID: "e3", Title: "Career Night", Status: models.EventStatusPublished, CreatedBy: "adm-2", Date: models.ParseEventDate("2025-06-10")},
		{ID: "e4", Title: "Robot Draft", Status: models.EventStatusDraft, CreatedBy: regularAdmin.ID},
		{ID: "e5", Title: "Old Talk", Status: models.EventStatusRejected, CreatedBy: "adm-2", Date: models.ParseEventDate("2025-01-02")},
	}
}

func newTestAdminEventService(repo *stubAdminEventRepo, cache *memoryCache) *AdminEventService {
	var cacheSvc *CacheService
	if cache != nil {
		cacheSvc = NewCacheService(cache, nil, time.Minute, nil, true)
	}
	return NewAdminEventService(repo, cacheSvc, NewAccessPolicy(), NewEventSorter("en"), clock.NewFixed(testNow), nil, nil)
}

func sessionFor(admin models.AdminInfo) *models.Session {
	return &models.Session{Key: "session:test", Admin: admin, ExpiresAt: testNow.Add(time.Hour)}
}

func validEventRequest() dto.EventRequest {
	return dto.EventRequest{Title: "Robotics", Category: "Workshop", Date: "2025-06-20"}
}

func TestAdminEventListFiltersByStatusAndTitle(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents()}
	svc := newTestAdminEventService(repo, nil)

	resp, pagination, err := svc.List(context.Background(), sessionFor(regularAdmin), AdminEventListQuery{
		Title:     "robot",
		Selection: models.DefaultFilterSelection(),
	})
	require.NoError(t, err)
	assert.Nil(t, pagination)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.Matched)

	resp, _, err = svc.List(context.Background(), sessionFor(regularAdmin), AdminEventListQuery{
		Status:    models.EventStatusPending,
		Selection: models.DefaultFilterSelection(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "e1", resp.Events[0].ID)
	assert.True(t, resp.Events[0].Actions.Edit)
	assert.False(t, resp.Events[0].Actions.Approve)
}

func TestAdminEventListPaginates(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents()}
	svc := newTestAdminEventService(repo, nil)

	resp, pagination, err := svc.List(context.Background(), sessionFor(superAdmin), AdminEventListQuery{
		Selection: models.DefaultFilterSelection(),
		Page:      2,
		PageSize:  2,
	})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Len(t, resp.Events, 2)
}

func TestAdminEventStats(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents()}
	svc := newTestAdminEventService(repo, nil)

	stats, err := svc.Stats(context.Background(), sessionFor(superAdmin))
	require.NoError(t, err)
	assert.Equal(t, dto.EventStats{Total: 5, Pending: 1, Approved: 2, Rejected: 1, Drafts: 1, AwaitingApproval: true}, stats)

	stats, err = svc.Stats(context.Background(), sessionFor(regularAdmin))
	require.NoError(t, err)
	assert.False(t, stats.AwaitingApproval)
}

func TestAdminEventPendingIsSuperAdminOnly(t *testing.T) {
	svc := newTestAdminEventService(&stubAdminEventRepo{events: adminEvents()}, nil)

	_, err := svc.Pending(context.Background(), sessionFor(regularAdmin))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	rows, err := svc.Pending(context.Background(), sessionFor(superAdmin))
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestAdminEventCreateRefetchesAndInvalidates(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents()}
	cache := newMemoryCache()
	require.NoError(t, cache.Set(context.Background(), cacheKeyPublished, []models.Event{}, time.Minute))
	svc := newTestAdminEventService(repo, cache)

	result, err := svc.Create(context.Background(), sessionFor(regularAdmin), validEventRequest())
	require.NoError(t, err)
	assert.Equal(t, "new", result.Result.ID)
	assert.Len(t, result.Events, 5)
	assert.False(t, result.Stale)
	assert.Equal(t, 1, repo.listCalls)
	assert.Empty(t, cache.entries)
}

func TestAdminEventCreateValidatesBeforeCalling(t *testing.T) {
	repo := &stubAdminEventRepo{}
	svc := newTestAdminEventService(repo, nil)

	_, err := svc.Create(context.Background(), sessionFor(regularAdmin), dto.EventRequest{Title: "No category"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.calls)
}

func TestRegularAdminCannotUpdateApprovedEvent(t *testing.T) {
	current := adminEvents()[1]
	repo := &stubAdminEventRepo{current: &current}
	svc := newTestAdminEventService(repo, nil)

	_, err := svc.Update(context.Background(), sessionFor(regularAdmin), current.ID, validEventRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Contains(t, err.Error(), "only edit pending events")
	assert.Empty(t, repo.calls)
}

func TestAdminEventDeleteOwnPending(t *testing.T) {
	current := adminEvents()[0]
	repo := &stubAdminEventRepo{current: &current, events: adminEvents()}
	svc := newTestAdminEventService(repo, nil)

	result, err := svc.Delete(context.Background(), sessionFor(regularAdmin), current.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Result)
	assert.Equal(t, []string{"delete"}, repo.calls)
}

func TestAdminEventRejectRequiresReason(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents()}
	svc := newTestAdminEventService(repo, nil)

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := svc.Reject(context.Background(), sessionFor(superAdmin), "e1", dto.RejectEventRequest{Reason: reason})
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
	assert.Empty(t, repo.calls)

	result, err := svc.Reject(context.Background(), sessionFor(superAdmin), "e1", dto.RejectEventRequest{Reason: "  Missing venue  "})
	require.NoError(t, err)
	assert.Equal(t, "Missing venue", repo.reason)
	assert.Equal(t, models.EventStatusRejected, result.Result.Status)
}

func TestAdminEventApproveDeniedForRegularAdmin(t *testing.T) {
	repo := &stubAdminEventRepo{}
	svc := newTestAdminEventService(repo, nil)

	_, err := svc.Approve(context.Background(), sessionFor(regularAdmin), "e1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.calls)
}

func TestAdminEventMutationUpstreamUnauthorized(t *testing.T) {
	repo := &stubAdminEventRepo{mutateErr: &repository.UpstreamError{Op: repository.OpApproveEvent, Status: http.StatusUnauthorized}}
	svc := newTestAdminEventService(repo, nil)

	_, err := svc.Approve(context.Background(), sessionFor(superAdmin), "e1")
	require.Error(t, err)
	assert.True(t, IsSessionExpired(err))
	assert.Equal(t, 0, repo.listCalls)
}

func TestAdminEventRefetchFailureMarksStale(t *testing.T) {
	repo := &stubAdminEventRepo{events: adminEvents(), failListOn: 1}
	svc := newTestAdminEventService(repo, nil)

	result, err := svc.Approve(context.Background(), sessionFor(superAdmin), "e1")
	require.NoError(t, err)
	assert.True(t, result.Stale)
	assert.NotNil(t, result.Events)
	assert.Empty(t, result.Events)
}

func TestAdminEventUpdateAttendeeStatusRefreshesRoster(t *testing.T) {
	repo := &stubAdminEventRepo{
		attendee:  &models.Attendee{ID: "att-1", EventID: "e1", Status: models.AttendeeConfirmed},
		attendees: []models.Attendee{{ID: "att-1"}, {ID: "att-2"}},
	}
	svc := newTestAdminEventService(repo, nil)

	_, err := svc.UpdateAttendeeStatus(context.Background(), "att-1", dto.AttendeeStatusRequest{Status: "maybe"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	result, err := svc.UpdateAttendeeStatus(context.Background(), "att-1", dto.AttendeeStatusRequest{Status: models.AttendeeConfirmed})
	require.NoError(t, err)
	assert.Equal(t, "e1", repo.rosterFor)
	assert.Len(t, result.Attendees, 2)
}
