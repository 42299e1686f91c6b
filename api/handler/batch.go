package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pricescout/models"
	"pricescout/scraper"
	"pricescout/webhook"
)

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*models.BatchJob)
				if job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns a handler for POST /api/v1/batch.
// It validates the request, registers a batch job, and runs the windowed
// scrape in the background. The immediate response carries the job ID for
// polling via GET /api/v1/batch/:id.
func PostBatch(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		job := models.NewBatchJob(jobID, len(req.URLs))
		batchStore.Store(jobID, job)

		// Detached from the request context: the batch outlives the
		// submitting request.
		go runBatch(sc, job, req)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		job := val.(*models.BatchJob)
		status, results := job.Snapshot()
		c.JSON(http.StatusOK, models.BatchStatusResponse{
			ID:      job.ID,
			Status:  status,
			Total:   job.Total,
			Results: results,
		})
	}
}

// runBatch executes the windowed batch scrape, records the aggregate status
// once every URL has a result, and notifies the webhook when one was given.
func runBatch(sc *scraper.Scraper, job *models.BatchJob, req models.BatchRequest) {
	results := sc.ScrapeAll(context.Background(), req.URLs)

	succeeded := 0
	for _, r := range results {
		if r != nil && r.Success {
			succeeded++
		}
	}

	var status string
	switch {
	case succeeded == 0:
		status = "failed"
	case succeeded < len(req.URLs):
		status = "partial"
	default:
		status = "completed"
	}
	job.Finish(status, results)

	slog.Info("batch job finished",
		"id", job.ID,
		"status", status,
		"succeeded", succeeded,
		"total", job.Total,
	)

	if req.WebhookURL != "" {
		eventType := "batch.completed"
		if status == "failed" {
			eventType = "batch.failed"
		}
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      eventType,
			JobID:     job.ID,
			Timestamp: time.Now().Unix(),
			Data: models.BatchStatusResponse{
				ID:      job.ID,
				Status:  status,
				Total:   job.Total,
				Results: results,
			},
		})
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
