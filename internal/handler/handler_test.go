package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/service"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func testContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func withSession(c *gin.Context, role models.AdminRole) *models.Session {
	session := &models.Session{Key: "k", Admin: models.AdminInfo{ID: "adm-1", Role: role}}
	c.Set(middleware.ContextSessionKey, session)
	return session
}

type fakeEventSrv struct {
	lastSel      models.FilterSelection
	lastPage     int
	lastPageSize int
	view         *service.EventView
	err          error
	registered   dto.RegisterAttendeeRequest
}

func (f *fakeEventSrv) List(_ context.Context, sel models.FilterSelection, page, pageSize int) (*service.EventView, error) {
	f.lastSel, f.lastPage, f.lastPageSize = sel, page, pageSize
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeEventSrv) Featured(_ context.Context, sel models.FilterSelection) (dto.FeaturedResponse, error) {
	f.lastSel = sel
	return dto.FeaturedResponse{Fallback: true}, f.err
}

func (f *fakeEventSrv) Get(_ context.Context, id string) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{ID: id, Title: "Talk"}, nil
}

func (f *fakeEventSrv) Search(context.Context, dto.EventSearchQuery) ([]models.Event, error) {
	return nil, f.err
}

func (f *fakeEventSrv) ByDateRange(context.Context, dto.DateRangeQuery) ([]models.Event, error) {
	return nil, f.err
}

func (f *fakeEventSrv) FilterOptions() models.FilterOptions {
	return models.FilterOptions{}
}

func (f *fakeEventSrv) Register(_ context.Context, eventID string, req dto.RegisterAttendeeRequest) (*models.Attendee, error) {
	f.registered = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Attendee{ID: "att-1", EventID: eventID, Name: req.Name}, nil
}

func TestEventHandlerListParsesSelection(t *testing.T) {
	srv := &fakeEventSrv{view: &service.EventView{Page: 2, PageSize: 100, Matched: 150, TotalPages: 2}}
	handler := NewEventHandler(srv)
	c, rec := testContext(http.MethodGet, "/events?eventType=Seminar&sortBy=Title&page=2&page_size=500", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Seminar", srv.lastSel.EventType)
	assert.Equal(t, models.SortByTitle, srv.lastSel.SortBy)
	assert.Equal(t, 2, srv.lastPage)
	assert.Equal(t, maxPageSize, srv.lastPageSize)
	envelope := decode(t, rec)
	assert.EqualValues(t, 150, envelope.Pagination["total_count"])
}

func TestEventHandlerListRejectsUnknownSort(t *testing.T) {
	handler := NewEventHandler(&fakeEventSrv{})
	c, rec := testContext(http.MethodGet, "/events?sortBy=Loudness", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error["code"])
}

func TestEventHandlerListMapsUpstreamFailure(t *testing.T) {
	handler := NewEventHandler(&fakeEventSrv{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "Failed to fetch events")})
	c, rec := testContext(http.MethodGet, "/events", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch events", decode(t, rec).Error["message"])
}

func TestEventHandlerRegister(t *testing.T) {
	srv := &fakeEventSrv{}
	handler := NewEventHandler(srv)
	body, _ := json.Marshal(dto.RegisterAttendeeRequest{Name: "Ana", Email: "ana@example.edu", Phone: "5551234"})
	c, rec := testContext(http.MethodPost, "/events/e1/register", body)
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ana", srv.registered.Name)
	assert.Equal(t, "e1", decode(t, rec).Data["event"])
}

func TestEventHandlerRegisterRejectsMalformedBody(t *testing.T) {
	handler := NewEventHandler(&fakeEventSrv{})
	c, rec := testContext(http.MethodPost, "/events/e1/register", []byte("{"))

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeAdminEventSrv struct {
	lastQuery  service.AdminEventListQuery
	lastReq    dto.EventRequest
	lastReject dto.RejectEventRequest
	session    *models.Session
	err        error
}

func (f *fakeAdminEventSrv) List(_ context.Context, session *models.Session, q service.AdminEventListQuery) (*dto.AdminEventListResponse, *models.Pagination, error) {
	f.session, f.lastQuery = session, q
	return &dto.AdminEventListResponse{}, nil, f.err
}

func (f *fakeAdminEventSrv) Stats(context.Context, *models.Session) (dto.EventStats, error) {
	return dto.EventStats{Total: 3, Pending: 1, AwaitingApproval: true}, f.err
}

func (f *fakeAdminEventSrv) Drafts(context.Context, *models.Session) ([]dto.AdminEventRow, error) {
	return nil, f.err
}

func (f *fakeAdminEventSrv) Pending(context.Context, *models.Session) ([]dto.AdminEventRow, error) {
	return nil, f.err
}

func (f *fakeAdminEventSrv) Get(_ context.Context, _ *models.Session, id string) (*dto.AdminEventRow, error) {
	return &dto.AdminEventRow{Event: models.Event{ID: id}}, f.err
}

func (f *fakeAdminEventSrv) Create(_ context.Context, _ *models.Session, req dto.EventRequest) (*dto.EventMutationResult, error) {
	f.lastReq = req
	return &dto.EventMutationResult{Result: &models.Event{ID: "new"}}, f.err
}

func (f *fakeAdminEventSrv) Update(_ context.Context, _ *models.Session, _ string, req dto.EventRequest) (*dto.EventMutationResult, error) {
	f.lastReq = req
	return &dto.EventMutationResult{}, f.err
}

func (f *fakeAdminEventSrv) Delete(context.Context, *models.Session, string) (*dto.EventMutationResult, error) {
	return &dto.EventMutationResult{}, f.err
}

func (f *fakeAdminEventSrv) Approve(context.Context, *models.Session, string) (*dto.EventMutationResult, error) {
	return &dto.EventMutationResult{}, f.err
}

func (f *fakeAdminEventSrv) Reject(_ context.Context, _ *models.Session, _ string, req dto.RejectEventRequest) (*dto.EventMutationResult, error) {
	f.lastReject = req
	return &dto.EventMutationResult{}, f.err
}

func (f *fakeAdminEventSrv) Attendees(context.Context, string) ([]models.Attendee, error) {
	return []models.Attendee{}, f.err
}

func (f *fakeAdminEventSrv) UpdateAttendeeStatus(context.Context, string, dto.AttendeeStatusRequest) (*dto.AttendeeMutationResult, error) {
	return &dto.AttendeeMutationResult{}, f.err
}

func TestAdminEventHandlerListNormalisesStatus(t *testing.T) {
	srv := &fakeAdminEventSrv{}
	handler := NewAdminEventHandler(srv)
	c, rec := testContext(http.MethodGet, "/admin/events?status=Pending&title=robot", nil)
	session := withSession(c, models.RoleSuperAdmin)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EventStatusPending, srv.lastQuery.Status)
	assert.Equal(t, "robot", srv.lastQuery.Title)
	assert.Same(t, session, srv.session)
}

func TestAdminEventHandlerListStatusAll(t *testing.T) {
	srv := &fakeAdminEventSrv{}
	handler := NewAdminEventHandler(srv)
	c, rec := testContext(http.MethodGet, "/admin/events?status=all", nil)
	withSession(c, models.RoleAdmin)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.lastQuery.Status)
}

func TestAdminEventHandlerListRejectsUnknownStatus(t *testing.T) {
	handler := NewAdminEventHandler(&fakeAdminEventSrv{})
	c, rec := testContext(http.MethodGet, "/admin/events?status=archived", nil)
	withSession(c, models.RoleAdmin)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEventHandlerCreateMultipart(t *testing.T) {
	srv := &fakeAdminEventSrv{}
	handler := NewAdminEventHandler(srv)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", "Robotics"))
	require.NoError(t, writer.WriteField("category", "Workshop"))
	require.NoError(t, writer.WriteField("date", "2025-07-01"))
	part, err := writer.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/events", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	withSession(c, models.RoleAdmin)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Robotics", srv.lastReq.Title)
	require.Len(t, srv.lastReq.Uploads, 1)
	assert.Equal(t, "image", srv.lastReq.Uploads[0].Field)
	assert.Equal(t, "poster.png", srv.lastReq.Uploads[0].Filename)
	assert.Equal(t, []byte("png-bytes"), srv.lastReq.Uploads[0].Data)
}

func TestAdminEventHandlerCreateJSON(t *testing.T) {
	srv := &fakeAdminEventSrv{}
	handler := NewAdminEventHandler(srv)
	body, _ := json.Marshal(dto.EventRequest{Title: "Talk", Category: "Seminar", Date: "2025-07-01"})
	c, rec := testContext(http.MethodPost, "/admin/events", body)
	withSession(c, models.RoleAdmin)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Talk", srv.lastReq.Title)
	assert.False(t, srv.lastReq.HasUploads())
}

func TestAdminEventHandlerForbiddenPassesMessage(t *testing.T) {
	handler := NewAdminEventHandler(&fakeAdminEventSrv{err: appErrors.Clone(appErrors.ErrForbidden, "Access Denied: You can only delete your own events")})
	c, rec := testContext(http.MethodDelete, "/admin/events/e1", nil)
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	withSession(c, models.RoleAdmin)

	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied: You can only delete your own events", decode(t, rec).Error["message"])
}

func TestAdminEventHandlerRejectForwardsReason(t *testing.T) {
	srv := &fakeAdminEventSrv{}
	handler := NewAdminEventHandler(srv)
	c, rec := testContext(http.MethodPut, "/admin/events/e1/reject", []byte(`{"reason":"duplicate"}`))
	withSession(c, models.RoleSuperAdmin)

	handler.Reject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", srv.lastReject.Reason)
}

type fakeAdminSrv struct {
	lastFilter models.AdminFilter
	active     *bool
}

func (f *fakeAdminSrv) List(_ context.Context, _ *models.Session, filter models.AdminFilter) (*dto.AdminListResponse, error) {
	f.lastFilter = filter
	return &dto.AdminListResponse{Total: 2, Active: 1, Inactive: 1}, nil
}

func (f *fakeAdminSrv) Get(_ context.Context, _ *models.Session, id string) (*models.Admin, error) {
	return &models.Admin{ID: id}, nil
}

func (f *fakeAdminSrv) Create(context.Context, *models.Session, dto.CreateAdminRequest) (*dto.AdminMutationResult, error) {
	return &dto.AdminMutationResult{}, nil
}

func (f *fakeAdminSrv) Update(context.Context, *models.Session, string, dto.UpdateAdminRequest) (*dto.AdminMutationResult, error) {
	return &dto.AdminMutationResult{}, nil
}

func (f *fakeAdminSrv) Delete(context.Context, *models.Session, string) (*dto.AdminMutationResult, error) {
	return &dto.AdminMutationResult{}, nil
}

func (f *fakeAdminSrv) ChangeRole(context.Context, *models.Session, string, dto.ChangeRoleRequest) (*dto.AdminMutationResult, error) {
	return &dto.AdminMutationResult{}, nil
}

func (f *fakeAdminSrv) UpdatePermissions(context.Context, *models.Session, string, models.Permissions) (*dto.AdminMutationResult, error) {
	return &dto.AdminMutationResult{}, nil
}

func (f *fakeAdminSrv) SetActive(_ context.Context, _ *models.Session, _ string, active bool) (*dto.AdminMutationResult, error) {
	f.active = &active
	return &dto.AdminMutationResult{}, nil
}

func TestAdminHandlerListFilters(t *testing.T) {
	srv := &fakeAdminSrv{}
	handler := NewAdminHandler(srv)
	c, rec := testContext(http.MethodGet, "/admin/accounts?role=SuperAdmin&status=inactive&q=ana", nil)
	withSession(c, models.RoleSuperAdmin)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleSuperAdmin, srv.lastFilter.Role)
	require.NotNil(t, srv.lastFilter.Active)
	assert.False(t, *srv.lastFilter.Active)
	assert.Equal(t, "ana", srv.lastFilter.Search)
	assert.EqualValues(t, 2, decode(t, rec).Data["total"])
}

func TestAdminHandlerListRejectsUnknownRole(t *testing.T) {
	handler := NewAdminHandler(&fakeAdminSrv{})
	c, rec := testContext(http.MethodGet, "/admin/accounts?role=owner", nil)
	withSession(c, models.RoleSuperAdmin)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerDeactivate(t *testing.T) {
	srv := &fakeAdminSrv{}
	handler := NewAdminHandler(srv)
	c, rec := testContext(http.MethodPut, "/admin/accounts/a1/deactivate", nil)
	withSession(c, models.RoleSuperAdmin)

	handler.Deactivate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.active)
	assert.False(t, *srv.active)
}

type fakeAuthSrv struct {
	loggedOut *models.Session
	loginErr  error
}

func (f *fakeAuthSrv) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResponse{Token: "tok", Admin: models.AdminInfo{Email: req.Email}}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, session *models.Session) error {
	f.loggedOut = session
	return nil
}

func (f *fakeAuthSrv) Profile(context.Context) (*models.Admin, error) {
	return &models.Admin{ID: "adm-1"}, nil
}

func (f *fakeAuthSrv) UpdateProfile(_ context.Context, _ *models.Session, req dto.UpdateProfileRequest) (*models.Admin, error) {
	return &models.Admin{ID: "adm-1", Name: req.Name}, nil
}

func (f *fakeAuthSrv) ChangePassword(context.Context, dto.ChangePasswordRequest) error {
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := testContext(http.MethodPost, "/auth/login", []byte(`{"email":"root@example.edu","password":"secret"}`))

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", decode(t, rec).Data["token"])
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})
	c, rec := testContext(http.MethodPost, "/auth/login", []byte(`{"email":"root@example.edu","password":"wrong"}`))

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, rec).Error["code"])
}

func TestAuthHandlerLogoutRequiresSession(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)

	c, rec := testContext(http.MethodPost, "/auth/logout", nil)
	handler.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = testContext(http.MethodPost, "/auth/logout", nil)
	session := withSession(c, models.RoleAdmin)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Same(t, session, srv.loggedOut)
}

type fakeExportSrv struct {
	lastFormat service.ExportFormat
	feedErr    error
}

func (f *fakeExportSrv) Render(_ context.Context, _ models.FilterSelection, format service.ExportFormat) (*service.ExportFile, error) {
	f.lastFormat = format
	return &service.ExportFile{Filename: "events_20250615_100000." + string(format), ContentType: format.ContentType(), Body: []byte("body")}, nil
}

func (f *fakeExportSrv) Subscribe(dto.SubscriptionRequest) (*dto.SubscriptionResponse, error) {
	return &dto.SubscriptionResponse{URL: "https://events.example.edu/api/v1/feeds/t.ics", Token: "t"}, nil
}

func (f *fakeExportSrv) Feed(context.Context, string) (*service.ExportFile, error) {
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return &service.ExportFile{Filename: "events.ics", ContentType: service.ExportICal.ContentType(), Body: []byte("BEGIN:VCALENDAR")}, nil
}

func TestExportHandlerAttachment(t *testing.T) {
	srv := &fakeExportSrv{}
	handler := NewExportHandler(srv)
	c, rec := testContext(http.MethodGet, "/events/export.csv?subject=Technology", nil)

	handler.Export(service.ExportCSV)(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportCSV, srv.lastFormat)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "events_20250615_100000.csv")
	assert.Equal(t, "body", rec.Body.String())
}

func TestExportHandlerFeedExpired(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{feedErr: appErrors.Clone(appErrors.ErrForbidden, "feed link expired")})
	c, rec := testContext(http.MethodGet, "/feeds/t.ics", nil)
	c.Params = gin.Params{{Key: "token", Value: "t.ics"}}

	handler.Feed(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]Pinger{"backend": stubPinger{}, "redis": stubPinger{err: errors.New("refused")}})
	c, rec := testContext(http.MethodGet, "/ready", nil)

	handler.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["backend"])
	assert.Equal(t, "refused", body.Checks["redis"])
}

func TestMetricsHandlerHealth(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), nil)
	c, rec := testContext(http.MethodGet, "/health", nil)

	handler.Health(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cache_hit_ratio")
}
