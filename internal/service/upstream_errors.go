package service

import (
	"errors"
	"net/http"

	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

// Generic failure messages per console action.
var actionMessages = map[string]string{
	repository.OpListEvents:          "Failed to fetch events",
	repository.OpListPublished:       "Failed to fetch events",
	repository.OpListAdminEvents:     "Failed to fetch events",
	repository.OpListDrafts:          "Failed to fetch draft events",
	repository.OpListPending:         "Failed to fetch pending events",
	repository.OpGetEvent:            "Failed to fetch event",
	repository.OpCreateEvent:         "Failed to create event",
	repository.OpUpdateEvent:         "Failed to update event",
	repository.OpDeleteEvent:         "Failed to delete event",
	repository.OpApproveEvent:        "Failed to approve event",
	repository.OpRejectEvent:         "Failed to reject event",
	repository.OpSearchEvents:        "Search failed",
	repository.OpEventsByDateRange:   "Failed to fetch events",
	repository.OpRegisterAttendee:    "Registration failed",
	repository.OpListAttendees:       "Failed to fetch attendees",
	repository.OpUpdateAttendeeState: "Failed to update attendee status",
	repository.OpLogin:               "Login failed",
	repository.OpGetProfile:          "Failed to fetch profile",
	repository.OpUpdateProfile:       "Failed to update profile",
	repository.OpChangePassword:      "Failed to change password",
	repository.OpListAdmins:          "Failed to fetch admins",
	repository.OpGetAdmin:            "Failed to fetch admin",
	repository.OpCreateAdmin:         "Failed to create admin",
	repository.OpUpdateAdmin:         "Failed to update admin",
	repository.OpDeleteAdmin:         "Failed to delete admin",
	repository.OpChangeRole:          "Failed to update role",
	repository.OpUpdatePermissions:   "Failed to update permissions",
	repository.OpActivateAdmin:       "Failed to update admin status",
	repository.OpDeactivateAdmin:     "Failed to update admin status",
}

func actionMessage(op string) string {
	if msg, ok := actionMessages[op]; ok {
		return msg
	}
	return "Request failed"
}

// classifyUpstream maps backend failures onto the API error taxonomy:
// transport failures become 502, 401 becomes SESSION_EXPIRED, 400/422 carry
// the backend message, anything else keeps its status family with the
// generic action message.
func classifyUpstream(err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var transport *repository.TransportError
	if errors.As(err, &transport) {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, actionMessage(transport.Op))
	}

	var upstream *repository.UpstreamError
	if !errors.As(err, &upstream) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	message := actionMessage(upstream.Op)
	switch upstream.Status {
	case http.StatusUnauthorized:
		if upstream.Op == repository.OpLogin {
			return appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrSessionExpired.Code, appErrors.ErrSessionExpired.Status, appErrors.ErrSessionExpired.Message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if upstream.Message != "" {
			message = upstream.Message
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	case http.StatusForbidden:
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, message)
	case http.StatusNotFound:
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, message)
	case http.StatusConflict:
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	}
	if upstream.Status >= http.StatusInternalServerError {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// IsSessionExpired reports whether err means the backend refused the token.
func IsSessionExpired(err error) bool {
	return errors.Is(err, appErrors.ErrSessionExpired)
}
