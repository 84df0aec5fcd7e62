package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"
)

// ImageFetcher loads one rendered panel image from a source location
type ImageFetcher interface {
	FetchImage(ctx context.Context, source string) (image.Image, error)
}

// StatusError is returned when a panel server answers with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("server error: status code %d", e.StatusCode)
	}
	return fmt.Sprintf("client error: status code %d", e.StatusCode)
}

// IsNotFound reports whether err carries a 404 from a panel server
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// HTTPOptions tunes the HTTP panel fetcher
type HTTPOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries
	Backoff time.Duration
}

// DefaultHTTPOptions returns three attempts with 1s and 2s pauses
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// HTTPImageFetcher fetches panels over HTTP(S), retrying transient failures
type HTTPImageFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPImageFetcher creates an HTTP panel fetcher with default options
func NewHTTPImageFetcher() ImageFetcher {
	return NewHTTPImageFetcherWithOptions(DefaultHTTPOptions())
}

// NewHTTPImageFetcherWithOptions creates an HTTP panel fetcher
func NewHTTPImageFetcherWithOptions(opts HTTPOptions) ImageFetcher {
	d := DefaultHTTPOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = d.MaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = d.Backoff
	}

	transport := &http.Transport{
		// a grid is at most nine panels, usually from one host
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 9,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	return &HTTPImageFetcher{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchImage downloads and decodes one panel. Network errors and 5xx answers
// are retried; 4xx answers are not.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, */*")
	req.Header.Set("User-Agent", "gridopt-panel-fetcher/1.0")

	var lastErr error
	for attempt := 1; attempt <= h.opts.MaxAttempts; attempt++ {
		img, retry, err := h.try(req)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry || attempt == h.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("panel fetch cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * h.opts.Backoff):
		}
	}
	return nil, fmt.Errorf("failed to fetch panel %s: %w", source, lastErr)
}

// try performs a single request and reports whether a failure is retryable
func (h *HTTPImageFetcher) try(req *http.Request) (image.Image, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, req.Context().Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, &StatusError{StatusCode: resp.StatusCode}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, false, nil
}
