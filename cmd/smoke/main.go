package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"autograder/internal/schemas"
)

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8000")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8000)")
	tokenFlag := flag.String("token", token, "API token")
	rubricFlag := flag.String("rubric", "", "rubric reference to grade (default: the server's)")
	async := flag.Bool("async", false, "also enqueue an asynchronous grading")
	flag.Parse()

	httpc := &http.Client{Timeout: 10 * time.Minute}

	// 1) Health
	var health map[string]string
	if err := getJSON(httpc, *baseFlag+"/healthz", &health); err != nil {
		fatalf("healthz: %v", err)
	}
	fmt.Printf("✅ Healthy: %v\n", health["status"])

	// 2) Synchronous grading
	req := schemas.GradeRequest{Rubric: *rubricFlag}
	var graded schemas.GradeResponse
	if err := postJSON(httpc, *baseFlag+"/gradings", *tokenFlag, req, &graded); err != nil {
		fatalf("grade: %v", err)
	}
	fmt.Printf("✅ Graded: %s\n", compactJSON(graded))

	// 3) Asynchronous grading
	if *async {
		var enq schemas.EnqueuedResponse
		if err := postJSON(httpc, *baseFlag+"/gradings/async", *tokenFlag, req, &enq); err != nil {
			fatalf("enqueue: %v", err)
		}
		fmt.Printf("✅ Enqueued grading %s; the worker prints its report\n", enq.TaskID)
	}

	fmt.Printf("🎉 Smoke run OK. %g/%g points\n", graded.Summary.Earned, graded.Summary.Possible)
}

// --- helpers ---

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func postJSON(c *http.Client, url, bearer string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("POST %s -> %d: %s", url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func getJSON(c *http.Client, url string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("GET %s -> %d: %s", url, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func compactJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
