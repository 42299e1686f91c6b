package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pricescout/config"
	"pricescout/models"
	"pricescout/scraper"
)

type fixedStrategy struct {
	result *models.ScrapeResult
}

func (s *fixedStrategy) Name() string { return "fixed" }

func (s *fixedStrategy) Scrape(_ context.Context, targetURL string) *models.ScrapeResult {
	r := *s.result
	r.URL = targetURL
	return &r
}

func testRouter(t *testing.T, apiKeys []string) http.Handler {
	t.Helper()

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = len(apiKeys) > 0
	cfg.Auth.APIKeys = apiKeys

	httpTier := &fixedStrategy{result: &models.ScrapeResult{
		Title:    "Ürün",
		Price:    models.PriceOf(483.12),
		Currency: models.Currency,
		Success:  true,
		Method:   models.MethodHTTP,
	}}
	sc := scraper.New(httpTier, &fixedStrategy{result: &models.ScrapeResult{}}, cfg.Batch)
	mgr := scraper.NewSessionManager(cfg.Browser)

	return NewRouter(sc, mgr, cfg, time.Now())
}

func TestScrapeEndpoint(t *testing.T) {
	router := testRouter(t, nil)

	body := `{"url": "https://www.robotistan.com/urun"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var res models.ScrapeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || res.Price == nil || *res.Price != 483.12 {
		t.Errorf("result = %+v, want success with price 483.12", res)
	}
}

func TestScrapeEndpoint_InvalidPayload(t *testing.T) {
	router := testRouter(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"not a url", `{"url": "not-a-url"}`},
		{"malformed json", `{"url":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	router := testRouter(t, []string{"secret-key"})

	body := `{"url": "https://example.com/p"}`

	// No key.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}

	// X-API-Key header.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "secret-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("X-API-Key: status = %d, want 200", w.Code)
	}

	// Bearer token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Bearer: status = %d, want 200", w.Code)
	}
}

func TestHealthEndpoint_NoAuth(t *testing.T) {
	router := testRouter(t, []string{"secret-key"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Status != "healthy" {
		t.Errorf("status = %q, want healthy", res.Status)
	}
	if res.Browser != "absent" {
		t.Errorf("browser = %q, want absent (lazy session)", res.Browser)
	}
}

func TestBatchEndpoints(t *testing.T) {
	router := testRouter(t, nil)

	body := `{"urls": ["https://example.com/a", "https://example.com/b"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var submitted models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if submitted.ID == "" || submitted.Total != 2 {
		t.Fatalf("response = %+v, want id and total=2", submitted)
	}

	// Poll until the background job finishes.
	deadline := time.Now().Add(5 * time.Second)
	for {
		req = httptest.NewRequest(http.MethodGet, "/api/v1/batch/"+submitted.ID, nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("poll: status = %d, want 200", w.Code)
		}

		var status models.BatchStatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if status.Status != "processing" {
			if status.Status != "completed" {
				t.Errorf("status = %q, want completed", status.Status)
			}
			if len(status.Results) != 2 {
				t.Errorf("got %d results, want 2", len(status.Results))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("batch job did not finish in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestBatchEndpoint_UnknownJob(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch/batch-deadbeef", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
