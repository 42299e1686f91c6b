package models

import (
	"sync"
	"time"
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required.
	URL string `json:"url" binding:"required,url"`
}

// BatchRequest is the payload for POST /api/v1/batch.
type BatchRequest struct {
	// URLs is the ordered list of product pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,url"`

	// WebhookURL, when set, receives a signed "batch.completed" event once
	// every URL has a result.
	WebhookURL string `json:"webhookUrl,omitempty" binding:"omitempty,url"`

	// WebhookSecret is the HMAC-SHA256 signing key for webhook deliveries.
	WebhookSecret string `json:"webhookSecret,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Total   int             `json:"total"`
	Results []*ScrapeResult `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch scrape operation. The runner writes
// Status and Results while pollers read them, so access goes through the
// mutex methods.
type BatchJob struct {
	ID        string
	Total     int
	CreatedAt int64 // unix timestamp

	mu      sync.Mutex
	status  string // "processing", "completed", "failed", "partial"
	results []*ScrapeResult
}

// NewBatchJob creates a job in the "processing" state.
func NewBatchJob(id string, total int) *BatchJob {
	return &BatchJob{
		ID:        id,
		Total:     total,
		CreatedAt: time.Now().Unix(),
		status:    "processing",
	}
}

// Finish records the final status and results.
func (j *BatchJob) Finish(status string, results []*ScrapeResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.results = results
}

// Snapshot returns the current status and results for polling.
func (j *BatchJob) Snapshot() (string, []*ScrapeResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, j.results
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Browser string `json:"browser"` // session manager state
	Version string `json:"version"`
}
