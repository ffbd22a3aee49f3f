package models

import "time"

// Pagination carries list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// DateLayout is the wire format for calendar dates throughout the API.
const DateLayout = "2006-01-02"

// SystemMetrics is a lightweight aggregate snapshot for health endpoints.
type SystemMetrics struct {
	CacheHitRatio              float64   `json:"cache_hit_ratio"`
	CacheHits                  uint64    `json:"cache_hits"`
	CacheMisses                uint64    `json:"cache_misses"`
	RequestsTotal              uint64    `json:"requests_total"`
	AverageRequestDurationMs   float64   `json:"average_request_duration_ms"`
	ExpansionsTotal            uint64    `json:"expansions_total"`
	AverageExpansionDurationMs float64   `json:"average_expansion_duration_ms"`
	Goroutines                 int       `json:"goroutines"`
	GeneratedAt                time.Time `json:"generated_at"`
}

// ClockLayout is the wire format for times of day (canonical UTC storage).
const ClockLayout = "15:04"
