package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pricescout/config"
	"pricescout/models"
)

func testHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{
		RequestTimeout:   5 * time.Second,
		WallClockTimeout: 10 * time.Second,
		MaxRedirects:     3,
	}
}

const productPage = `<html>
<head><title>PLA Filament 1kg - Mağaza</title></head>
<body>
	<h1>PLA Filament 1kg</h1>
	<p>Yüksek kaliteli PLA filament, 1.75mm çap, 1kg makara. Stoktan hızlı
	gönderim. Tüm renk seçenekleri mevcuttur ve kargo seçenekleri ödeme
	adımında listelenir. Ürün detayları aşağıdadır.</p>
	<div class="price">1.234,56 TL</div>
</body>
</html>`

func TestHTTPStrategy_ExtractsPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer srv.Close()

	s := NewHTTPStrategy(testHTTPConfig())
	res := s.Scrape(context.Background(), srv.URL)

	if !res.Success {
		t.Fatalf("expected success, got error: %q", res.Error)
	}
	if res.Method != models.MethodHTTP {
		t.Errorf("method = %q, want %q", res.Method, models.MethodHTTP)
	}
	if res.Price == nil || *res.Price != 1234.56 {
		t.Errorf("price = %v, want 1234.56", res.Price)
	}
	if res.Title != "PLA Filament 1kg - Mağaza" {
		t.Errorf("title = %q", res.Title)
	}
	if res.Currency != "TL" {
		t.Errorf("currency = %q, want TL", res.Currency)
	}
}

func TestHTTPStrategy_ContentNotFound(t *testing.T) {
	// The transport says 200 but the page says the product is gone.
	page := `<html><head><title>Mağaza</title></head>
	<body><p>Aradığınız içeriğe şu an ulaşılamıyor.</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewHTTPStrategy(testHTTPConfig())
	res := s.Scrape(context.Background(), srv.URL)

	if !res.NotFound {
		t.Fatal("expected notFound classification")
	}
	if res.Success {
		t.Error("notFound result must not be successful")
	}
	if res.Price != nil {
		t.Errorf("price = %v, want nil", *res.Price)
	}
	if res.Title != "Ürün Bulunamadı" {
		t.Errorf("title = %q", res.Title)
	}
}

func TestHTTPStrategy_Status404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewHTTPStrategy(testHTTPConfig())
	res := s.Scrape(context.Background(), srv.URL)

	if !res.NotFound {
		t.Fatal("expected notFound for HTTP 404")
	}
	if res.Title != "Ürün Bulunamadı" {
		t.Errorf("title = %q", res.Title)
	}
}

func TestHTTPStrategy_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	s := NewHTTPStrategy(testHTTPConfig())
	res := s.Scrape(context.Background(), srv.URL)

	if res.Success {
		t.Fatal("expected failure against a closed server")
	}
	if res.Error == "" {
		t.Error("failure must carry an error description")
	}
	if res.Title != "HTTP Hatası" {
		t.Errorf("title = %q", res.Title)
	}
}

func TestHTTPStrategy_SPAShellFails(t *testing.T) {
	// A JS shell with no extractable price must fail (so the orchestrator
	// escalates) rather than report "no price" as a final answer.
	page := `<html><head><title>Mağaza</title></head>
	<body><div id="root"></div><script src="/app.js"></script></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	s := NewHTTPStrategy(testHTTPConfig())
	res := s.Scrape(context.Background(), srv.URL)

	if res.Success {
		t.Fatal("expected failure for an SPA shell")
	}
	if !strings.Contains(res.Error, "javascript") {
		t.Errorf("error = %q, want javascript-rendering hint", res.Error)
	}
}

func TestNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"empty shell", `<html><body><div id="app"></div></body></html>`, true},
		{"noscript warning", `<html><body>` + strings.Repeat("içerik metni ", 30) +
			`<noscript>Please enable JavaScript to continue</noscript></body></html>`, true},
		{"static content", `<html><body><p>` + strings.Repeat("ürün açıklaması ", 40) + `</p></body></html>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsBrowser([]byte(tt.body)); got != tt.want {
				t.Errorf("needsBrowser = %v, want %v", got, tt.want)
			}
		})
	}
}
