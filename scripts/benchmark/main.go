// Benchmark tool: exercises a running pricescout instance against a list of
// product URLs and reports per-URL timing and extraction outcomes.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL  = flag.String("api-url", "http://localhost:8080", "pricescout API base URL")
	apiKey  = flag.String("api-key", "", "API key for authenticated requests")
	runs    = flag.Int("runs", 3, "Number of runs per URL for averaging")
	urlFile = flag.String("urls", "", "File with one product URL per line (required)")
	output  = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResult struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Price      *float64 `json:"price"`
	Currency   string   `json:"currency"`
	Success    bool     `json:"success"`
	Method     string   `json:"method"`
	Error      string   `json:"error,omitempty"`
	NotFound   bool     `json:"notFound,omitempty"`
	DurationMs int64    `json:"durationMs,omitempty"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int     `json:"run"`
	DurationMs int64   `json:"duration_ms"`
	Method     string  `json:"method"`
	Price      float64 `json:"price,omitempty"`
	HasTitle   bool    `json:"has_title"`
	Success    bool    `json:"success"`
	NotFound   bool    `json:"not_found,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type urlAverages struct {
	DurationMs  float64 `json:"duration_ms"`
	SuccessRate float64 `json:"success_rate"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	if *urlFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -urls <file> is required")
		os.Exit(1)
	}
	urls, err := readURLs(*urlFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *urlFile, err)
		os.Exit(1)
	}

	fmt.Println("=== Pricescout Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("URLs:      %d\n", len(urls))
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure pricescout is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, u := range urls {
		fmt.Printf("Benchmarking %s ...\n", u)
		ur := urlResult{URL: u}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(u, i)
			switch {
			case rr.Success:
				fmt.Printf("OK  %dms  %.2f TL  (%s)\n", rr.DurationMs, rr.Price, rr.Method)
			case rr.NotFound:
				fmt.Printf("NOT FOUND  %dms\n", rr.DurationMs)
			default:
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line != "" && line[0] != '#' {
			urls = append(urls, line)
		}
	}
	return urls, sc.Err()
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(scrapeRequest{URL: url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr scrapeResult
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.NotFound = sr.NotFound
	rr.Method = sr.Method
	rr.DurationMs = sr.DurationMs
	rr.HasTitle = sr.Title != ""
	rr.Error = sr.Error
	if sr.Price != nil {
		rr.Price = *sr.Price
	}

	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.DurationMs += float64(r.DurationMs)
	}

	if successCount == 0 {
		return &urlAverages{}
	}
	avg.DurationMs /= float64(successCount)
	avg.SuccessRate = float64(successCount) / float64(len(runs)) * 100
	return &avg
}

func printTable(results []urlResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tAVG MS\tSUCCESS")
	for _, ur := range results {
		if ur.Averages == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%.0f\t%.0f%%\n", ur.URL, ur.Averages.DurationMs, ur.Averages.SuccessRate)
	}
	w.Flush()
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
