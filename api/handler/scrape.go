package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pricescout/models"
	"pricescout/scraper"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// A scrape that ran but found no price is still HTTP 200: the result record
// itself carries success=false plus the failure description. Only a request
// the server could not act on (bad payload) is a non-200.
func Scrape(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result := sc.ScrapeProduct(c.Request.Context(), req.URL)
		c.JSON(http.StatusOK, result)
	}
}
