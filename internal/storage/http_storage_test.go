package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func encodePanel(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test panel: %v", err)
	}
	return buf.Bytes()
}

func fastFetcher() ImageFetcher {
	return NewHTTPImageFetcherWithOptions(HTTPOptions{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		Backoff:     10 * time.Millisecond,
	})
}

func TestHTTPImageFetcher_RetryLogic(t *testing.T) {
	pngData := encodePanel(t, 4, 4, color.RGBA{200, 10, 10, 255})

	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		expectRetries int   // Expected number of requests
		expectError   bool
		errorContains string
		notFound      bool
	}{
		{
			name:          "Success on first attempt",
			responses:     []int{200},
			expectRetries: 1,
		},
		{
			name:          "Success on second attempt after 5xx",
			responses:     []int{500, 200},
			expectRetries: 2,
		},
		{
			name:          "4xx client error - no retry",
			responses:     []int{404},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 404",
			notFound:      true,
		},
		{
			name:          "4xx after 5xx - should retry until 4xx then stop",
			responses:     []int{500, 404},
			expectRetries: 2,
			expectError:   true,
			errorContains: "client error: status code 404",
			notFound:      true,
		},
		{
			name:          "All 5xx errors - retry all attempts",
			responses:     []int{500, 502, 503},
			expectRetries: 3,
			expectError:   true,
			errorContains: "server error: status code 503",
		},
		{
			name:          "Bad request - stop on first 4xx",
			responses:     []int{400},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&requestCount, 1)) - 1
				if n >= len(tt.responses) {
					w.WriteHeader(500)
					return
				}
				if status := tt.responses[n]; status != 200 {
					w.WriteHeader(status)
					fmt.Fprintf(w, "Error %d", status)
					return
				}
				w.Header().Set("Content-Type", "image/png")
				w.Write(pngData)
			}))
			defer server.Close()

			img, err := fastFetcher().FetchImage(context.Background(), server.URL+"/panel.png")

			if got := int(atomic.LoadInt32(&requestCount)); got != tt.expectRetries {
				t.Errorf("Expected %d requests, got %d", tt.expectRetries, got)
			}

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				if IsNotFound(err) != tt.notFound {
					t.Errorf("Expected IsNotFound=%v for %v", tt.notFound, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			if img.Bounds().Dx() != 4 {
				t.Errorf("Expected 4px wide panel, got %d", img.Bounds().Dx())
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError_Retry(t *testing.T) {
	pngData := encodePanel(t, 2, 2, color.White)
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) < 3 {
			// Simulate network error by closing connection
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngData)
	}))
	defer server.Close()

	backoff := 50 * time.Millisecond
	fetcher := NewHTTPImageFetcherWithOptions(HTTPOptions{MaxAttempts: 3, Backoff: backoff})

	start := time.Now()
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	duration := time.Since(start)

	if err != nil {
		t.Errorf("Expected success after retries, got error: %s", err.Error())
	}
	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
	// 1x then 2x backoff between the three attempts
	if duration < 3*backoff {
		t.Errorf("Expected at least %v due to backoff, took %v", 3*backoff, duration)
	}
}

func TestHTTPImageFetcher_DecodeError(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.Write([]byte("not an image"))
	}))
	defer server.Close()

	_, err := fastFetcher().FetchImage(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "failed to decode image") {
		t.Errorf("Expected decode error, got %v", err)
	}
	if got := atomic.LoadInt32(&requestCount); got != 1 {
		t.Errorf("Expected decode errors not to be retried, got %d requests", got)
	}
}

func TestHTTPImageFetcher_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := NewHTTPImageFetcherWithOptions(HTTPOptions{MaxAttempts: 3, Backoff: time.Hour})
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := fetcher.FetchImage(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected error after cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Expected cancellation to interrupt the backoff")
	}
}

func TestLocalImageFetcher(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "shots"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "shots", "p1.png"), encodePanel(t, 3, 2, color.Black), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher, err := NewLocalImageFetcher(root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, source := range []string{"file:///shots/p1.png", "shots/p1.png"} {
		img, err := fetcher.FetchImage(context.Background(), source)
		if err != nil {
			t.Errorf("%s: expected no error, got %v", source, err)
			continue
		}
		if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
			t.Errorf("%s: expected 3x2 panel, got %v", source, img.Bounds())
		}
	}

	if _, err := fetcher.FetchImage(context.Background(), "file:///shots/missing.png"); err == nil {
		t.Error("Expected error for missing panel")
	}
	if _, err := fetcher.FetchImage(context.Background(), "../outside.png"); err != ErrOutsideRoot {
		t.Errorf("Expected ErrOutsideRoot, got %v", err)
	}
}

func TestLocalImageFetcher_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.png"), encodePanel(t, 2, 2, color.White), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "p1.png"), encodePanel(t, 4, 4, color.Black), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.png"), filepath.Join(root, "escape.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "elsewhere")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "p1.png"), filepath.Join(root, "alias.png")); err != nil {
		t.Fatal(err)
	}

	fetcher, err := NewLocalImageFetcher(root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, source := range []string{"file:///escape.png", "file:///elsewhere/secret.png"} {
		if _, err := fetcher.FetchImage(context.Background(), source); err != ErrOutsideRoot {
			t.Errorf("%s: expected ErrOutsideRoot, got %v", source, err)
		}
	}

	img, err := fetcher.FetchImage(context.Background(), "file:///alias.png")
	if err != nil {
		t.Fatalf("Expected link inside the root to resolve, got %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("Expected 4x4 panel, got %v", img.Bounds())
	}
}

func TestNewLocalImageFetcher_InvalidRoot(t *testing.T) {
	if _, err := NewLocalImageFetcher(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestParseBlobSource(t *testing.T) {
	tests := []struct {
		source    string
		container string
		blob      string
		wantErr   bool
	}{
		{"azblob://panels/project/shot1.png", "panels", "project/shot1.png", false},
		{"azblob://panels/", "", "", true},
		{"https://panels/shot1.png", "", "", true},
		{"azblob:///shot1.png", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			container, blob, err := ParseBlobSource(tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if container != tt.container || blob != tt.blob {
				t.Errorf("Expected %s/%s, got %s/%s", tt.container, tt.blob, container, blob)
			}
		})
	}
}
