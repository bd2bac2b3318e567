package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func TestClassifyUpstream(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{"transport", &repository.TransportError{Op: repository.OpDeleteEvent, Err: errors.New("reset")}, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "Failed to delete event"},
		{"expired", &repository.UpstreamError{Op: repository.OpListAdminEvents, Status: http.StatusUnauthorized}, "SESSION_EXPIRED", http.StatusUnauthorized, appErrors.ErrSessionExpired.Message},
		{"login", &repository.UpstreamError{Op: repository.OpLogin, Status: http.StatusUnauthorized}, "INVALID_CREDENTIALS", http.StatusUnauthorized, appErrors.ErrInvalidCredentials.Message},
		{"validation", &repository.UpstreamError{Op: repository.OpCreateEvent, Status: http.StatusUnprocessableEntity, Message: "Title is required"}, "VALIDATION_ERROR", http.StatusBadRequest, "Title is required"},
		{"bad request without message", &repository.UpstreamError{Op: repository.OpCreateEvent, Status: http.StatusBadRequest}, "VALIDATION_ERROR", http.StatusBadRequest, "Failed to create event"},
		{"forbidden", &repository.UpstreamError{Op: repository.OpApproveEvent, Status: http.StatusForbidden, Message: "nope"}, "FORBIDDEN", http.StatusForbidden, "Failed to approve event"},
		{"not found", &repository.UpstreamError{Op: repository.OpGetEvent, Status: http.StatusNotFound}, "NOT_FOUND", http.StatusNotFound, "Failed to fetch event"},
		{"server", &repository.UpstreamError{Op: repository.OpListPublished, Status: http.StatusServiceUnavailable}, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway, "Failed to fetch events"},
		{"teapot", &repository.UpstreamError{Op: "custom.op", Status: http.StatusTeapot}, "INTERNAL_ERROR", http.StatusInternalServerError, "Request failed"},
		{"cancelled", fmt.Errorf("wrapped: %w", context.Canceled), "INTERNAL_ERROR", http.StatusInternalServerError, appErrors.ErrInternal.Message},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := appErrors.FromError(classifyUpstream(tc.err))
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.message, got.Message)
		})
	}
}

func TestClassifyUpstreamPassesDomainErrors(t *testing.T) {
	denied := appErrors.Clone(appErrors.ErrForbidden, "Access Denied: Super Admin only")
	assert.Same(t, denied, classifyUpstream(denied))
	assert.NoError(t, classifyUpstream(nil))
}
