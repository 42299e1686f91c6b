package models

// Currency is the only currency this deployment extracts.
const Currency = "TL"

// Fetch methods recorded on a ScrapeResult.
const (
	MethodHTTP    = "HTTP"
	MethodBrowser = "Browser"
	MethodBatch   = "Batch"
)

// ScrapeResult is the single record produced for every scraped URL.
// It is immutable after creation; exactly one is emitted per input URL.
type ScrapeResult struct {
	// URL is the requested product page.
	URL string `json:"url"`

	// Title is the page or product title, best effort.
	Title string `json:"title"`

	// Price is the extracted price in TL, nil when no price was found.
	Price *float64 `json:"price"`

	// Currency is always "TL" for this deployment.
	Currency string `json:"currency"`

	// Success is true iff a price was obtained and the page was not
	// classified as "not found".
	Success bool `json:"success"`

	// Method records which strategy produced this result:
	// "HTTP", "Browser" or "Batch" (batch-level failure).
	Method string `json:"method"`

	// Error is a human-readable failure description, empty on success.
	Error string `json:"error,omitempty"`

	// NotFound is true when the page content indicates a missing product,
	// regardless of transport status. Implies Success=false and Price=nil.
	NotFound bool `json:"notFound,omitempty"`

	// DurationMs is the elapsed time of the producing strategy.
	DurationMs int64 `json:"durationMs,omitempty"`
}

// PriceOf is a convenience for building the Price pointer field.
func PriceOf(v float64) *float64 { return &v }
