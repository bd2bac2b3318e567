package models

import "time"

// Session binds a backend bearer token to the admin it was issued for.
type Session struct {
	Token     string    `json:"-"`
	Key       string    `json:"key"`
	Admin     AdminInfo `json:"admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsSuperAdmin reports whether the session holder has unrestricted access.
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Admin.Role == RoleSuperAdmin
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
