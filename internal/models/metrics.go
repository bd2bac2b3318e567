package models

import "time"

// SystemMetrics is the instrumentation summary served by the health endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	BackendCalls             uint64    `json:"backend_calls"`
	BackendCallErrors        uint64    `json:"backend_call_errors"`
	AverageBackendCallMs     float64   `json:"average_backend_call_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
