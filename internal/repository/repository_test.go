package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/zedarvates/storycore-grid/internal/storage"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

type stubFetcher struct {
	img   image.Image
	err   error
	calls []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, source string) (image.Image, error) {
	s.calls = append(s.calls, source)
	return s.img, s.err
}

func TestPanelRepository_Dispatch(t *testing.T) {
	httpFetcher := &stubFetcher{img: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	fileFetcher := &stubFetcher{err: fmt.Errorf("failed to open panel: %w", fs.ErrNotExist)}
	repo := NewPanelRepository(map[string]storage.ImageFetcher{
		"http":   httpFetcher,
		"https":  httpFetcher,
		"file":   fileFetcher,
		"azblob": nil,
	})

	if got := repo.Schemes(); len(got) != 3 || got[0] != "file" {
		t.Errorf("Expected [file http https], got %v", got)
	}

	if _, err := repo.FetchPanel(context.Background(), "https://cdn.example.com/p1.png"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(httpFetcher.calls) != 1 {
		t.Errorf("Expected http fetcher to be called once, got %d", len(httpFetcher.calls))
	}

	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"missing file", "file:///shots/missing.png", ErrPanelNotFound},
		{"unconfigured scheme", "azblob://panels/p1.png", ErrSourceUnavailable},
		{"invalid source", "ftp://example.com/p1.png", ErrInvalidPanelSource},
		{"empty source", "", ErrInvalidPanelSource},
		{"escaping root", "file:///../etc/passwd", ErrInvalidPanelSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.FetchPanel(context.Background(), tt.source)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPanelRepository_HTTPNotFound(t *testing.T) {
	repo := NewPanelRepository(map[string]storage.ImageFetcher{
		"http": &stubFetcher{err: fmt.Errorf("failed to fetch panel: %w", &storage.StatusError{StatusCode: 404})},
	})
	_, err := repo.FetchPanel(context.Background(), "http://example.com/p.png")
	if !errors.Is(err, ErrPanelNotFound) {
		t.Errorf("Expected ErrPanelNotFound, got %v", err)
	}
}

func tempDB(t *testing.T) *SQLiteHistoryStore {
	t.Helper()
	s, err := NewSQLiteHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteHistoryStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteHistoryStore_Performance(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	report := models.PerformanceReport{
		models.Linear1x3: {
			{Timestamp: t0, Quality: 91.5, Improvement: 22, EstimatedTime: 150},
			{Timestamp: t0.Add(time.Minute), Quality: 88, Improvement: 17.3, EstimatedTime: 140},
		},
		models.Square3x3: {
			{Timestamp: t0, Quality: 75, Improvement: 0, EstimatedTime: 120},
		},
	}
	if err := s.SavePerformance(ctx, report); err != nil {
		t.Fatalf("SavePerformance: %v", err)
	}

	got, err := s.LoadPerformance(ctx)
	if err != nil {
		t.Fatalf("LoadPerformance: %v", err)
	}
	if len(got[models.Linear1x3]) != 2 || len(got[models.Square3x3]) != 1 {
		t.Fatalf("Expected 2+1 entries, got %v", got)
	}
	first := got[models.Linear1x3][0]
	if !first.Timestamp.Equal(t0) || first.Quality != 91.5 || first.EstimatedTime != 150 {
		t.Errorf("Unexpected first entry: %+v", first)
	}

	// saving again replaces the snapshot
	if err := s.SavePerformance(ctx, models.PerformanceReport{models.Linear1x2: {{Timestamp: t0, Quality: 70}}}); err != nil {
		t.Fatalf("SavePerformance: %v", err)
	}
	got, err = s.LoadPerformance(ctx)
	if err != nil {
		t.Fatalf("LoadPerformance: %v", err)
	}
	if len(got) != 1 || len(got[models.Linear1x2]) != 1 {
		t.Errorf("Expected only the 1x2 snapshot, got %v", got)
	}
}

func TestSQLiteHistoryStore_Quality(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	report := models.QualityHistoryReport{
		models.Linear1x4: {
			Entries: []models.QualityHistoryEntry{
				{Timestamp: t0, Score: 80, Classification: models.QualityGood},
				{Timestamp: t0.Add(time.Hour), Score: 92, Classification: models.QualityExcellent},
			},
		},
	}
	if err := s.SaveQualityHistory(ctx, report); err != nil {
		t.Fatalf("SaveQualityHistory: %v", err)
	}

	got, err := s.LoadQualityHistory(ctx)
	if err != nil {
		t.Fatalf("LoadQualityHistory: %v", err)
	}
	summary := got[models.Linear1x4]
	if len(summary.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(summary.Entries))
	}
	if summary.Average != 86 {
		t.Errorf("Expected average 86, got %v", summary.Average)
	}
	if summary.Entries[1].Classification != models.QualityExcellent {
		t.Errorf("Expected excellent, got %s", summary.Entries[1].Classification)
	}
}

func TestSQLiteHistoryStore_Empty(t *testing.T) {
	s := tempDB(t)
	perf, err := s.LoadPerformance(context.Background())
	if err != nil || len(perf) != 0 {
		t.Errorf("Expected empty report, got %v (%v)", perf, err)
	}
	q, err := s.LoadQualityHistory(context.Background())
	if err != nil || len(q) != 0 {
		t.Errorf("Expected empty history, got %v (%v)", q, err)
	}
}
