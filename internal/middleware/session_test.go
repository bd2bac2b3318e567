package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type stubResolver struct {
	sessions    map[string]*models.Session
	err         error
	invalidated []string
}

func (s *stubResolver) ResolveSession(_ context.Context, token string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	session, ok := s.sessions[token]
	if !ok {
		return nil, appErrors.ErrSessionExpired
	}
	return session, nil
}

func (s *stubResolver) Invalidate(_ context.Context, token string) {
	s.invalidated = append(s.invalidated, token)
}

func newResolver() *stubResolver {
	return &stubResolver{sessions: map[string]*models.Session{
		"root-token":  {Key: "k1", Admin: models.AdminInfo{ID: "root", Role: models.RoleSuperAdmin}},
		"admin-token": {Key: "k2", Admin: models.AdminInfo{ID: "adm-1", Role: models.RoleAdmin}},
	}}
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequireSessionForwardsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := newResolver()
	router := gin.New()
	var forwarded string
	var adminID string
	router.GET("/admin", RequireSession(resolver), func(c *gin.Context) {
		forwarded = repository.TokenFromContext(c.Request.Context())
		adminID = SessionFromContext(c).Admin.ID
		c.Status(http.StatusNoContent)
	})

	recorder := serve(router, "admin-token")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "admin-token", forwarded)
	assert.Equal(t, "adm-1", adminID)
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireSession(newResolver()), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestRequireSessionExpiredTokenIsDropped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := newResolver()
	router := gin.New()
	router.GET("/admin", RequireSession(resolver), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	recorder := serve(router, "unknown")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"clear_token":true`)
	assert.Equal(t, []string{"unknown"}, resolver.invalidated)
}

func TestRequireSessionDropsSessionOnUpstream401(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := newResolver()
	router := gin.New()
	router.GET("/admin", RequireSession(resolver), func(c *gin.Context) {
		response.Error(c, appErrors.ErrSessionExpired)
	})

	recorder := serve(router, "admin-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, []string{"admin-token"}, resolver.invalidated)
}

func TestRequireSuperAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireSession(newResolver()), RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(router, "root-token").Code)
	denied := serve(router, "admin-token")
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Contains(t, denied.Body.String(), "Super Admin only")
}

type requestRecorder struct {
	paths    []string
	statuses []int
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.paths = append(r.paths, method+" "+path)
	r.statuses = append(r.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observed := &requestRecorder{}
	router := gin.New()
	router.Use(Metrics(observed))
	router.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/evt-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, []string{"GET /events/:id", "GET unmatched"}, observed.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observed.statuses)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestAuditLogsAdminAndFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.DELETE("/admin/events/:id", RequireSession(newResolver()), Audit(zap.New(core), "delete", "event"), func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "You can only delete pending events"))
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/events/evt-9", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	router.ServeHTTP(recorder, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "evt-9", fields["resource_id"])
	assert.Equal(t, "adm-1", fields["admin_id"])
	assert.Equal(t, "You can only delete pending events", fields["error"])
}

func TestOptionalSessionAttachesWhenValid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var adminID, forwarded string
	router.GET("/admin", OptionalSession(newResolver()), func(c *gin.Context) {
		adminID = ""
		if session := SessionFromContext(c); session != nil {
			adminID = session.Admin.ID
		}
		forwarded = repository.TokenFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(router, "admin-token").Code)
	assert.Equal(t, "adm-1", adminID)
	assert.Equal(t, "admin-token", forwarded)

	assert.Equal(t, http.StatusNoContent, serve(router, "").Code)
	assert.Empty(t, adminID)
	assert.Empty(t, forwarded)

	assert.Equal(t, http.StatusNoContent, serve(router, "unknown").Code)
	assert.Empty(t, adminID)
	assert.Empty(t, forwarded)
}
