package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.EventTTL)
	assert.Equal(t, 8, cfg.Events.PageSize)
	assert.Equal(t, 3, cfg.Events.FeaturedCount)
	assert.Equal(t, 720*time.Hour, cfg.Feeds.TTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BACKEND_BASE_URL", "https://events.example.edu/api/")
	v.Set("BACKEND_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example.edu , ,https://b.example.edu")
	v.Set("EVENTS_PAGE_SIZE", 0)
	v.Set("SESSION_TTL", "2h")

	cfg := fromViper(v)

	assert.Equal(t, "https://events.example.edu/api", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 8, cfg.Events.PageSize)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}
