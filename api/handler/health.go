package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pricescout/models"
	"pricescout/scraper"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports the browser session state; "ready" and "absent" are both healthy
// because the session starts lazily on first use.
func Health(mgr *scraper.SessionManager, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		browser := mgr.State()

		status := "healthy"
		if browser == "disconnected" || browser == "closing" {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Browser: browser,
			Version: "0.1.0",
		})
	}
}
