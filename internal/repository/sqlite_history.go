package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS performance_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	format         TEXT NOT NULL,
	recorded_at    TEXT NOT NULL,
	quality        REAL NOT NULL,
	improvement    REAL NOT NULL,
	estimated_time REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_performance_format ON performance_history(format, recorded_at);

CREATE TABLE IF NOT EXISTS quality_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	format         TEXT NOT NULL,
	recorded_at    TEXT NOT NULL,
	score          REAL NOT NULL,
	classification TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quality_format ON quality_history(format, recorded_at);
`

// SQLiteHistoryStore keeps the latest exported reports in SQLite. Every save
// replaces the stored snapshot of that report.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore opens (or creates) the database at dbPath
func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteHistoryStore{db: db}, nil
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteHistoryStore) SavePerformance(ctx context.Context, report models.PerformanceReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM performance_history`); err != nil {
		return fmt.Errorf("clear performance: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO performance_history (format, recorded_at, quality, improvement, estimated_time)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare performance insert: %w", err)
	}
	defer stmt.Close()

	for _, format := range models.AllFormats() {
		for _, e := range report[format] {
			if _, err := stmt.ExecContext(ctx, string(format), e.Timestamp.UTC().Format(time.RFC3339Nano),
				e.Quality, e.Improvement, e.EstimatedTime); err != nil {
				return fmt.Errorf("insert performance: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) LoadPerformance(ctx context.Context) (models.PerformanceReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT format, recorded_at, quality, improvement, estimated_time
		 FROM performance_history ORDER BY format, recorded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	report := make(models.PerformanceReport)
	for rows.Next() {
		var (
			format, recordedAt string
			e                  models.PerformanceEntry
		)
		if err := rows.Scan(&format, &recordedAt, &e.Quality, &e.Improvement, &e.EstimatedTime); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", recordedAt, err)
		}
		f := models.GridFormat(format)
		report[f] = append(report[f], e)
	}
	return report, rows.Err()
}

func (s *SQLiteHistoryStore) SaveQualityHistory(ctx context.Context, report models.QualityHistoryReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quality_history`); err != nil {
		return fmt.Errorf("clear quality history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quality_history (format, recorded_at, score, classification) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare quality insert: %w", err)
	}
	defer stmt.Close()

	for _, format := range models.AllFormats() {
		for _, e := range report[format].Entries {
			if _, err := stmt.ExecContext(ctx, string(format), e.Timestamp.UTC().Format(time.RFC3339Nano),
				e.Score, string(e.Classification)); err != nil {
				return fmt.Errorf("insert quality: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadQualityHistory returns stored entries per format with their average.
// Trend is left for the quality analyzer to recompute on restore.
func (s *SQLiteHistoryStore) LoadQualityHistory(ctx context.Context) (models.QualityHistoryReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT format, recorded_at, score, classification
		 FROM quality_history ORDER BY format, recorded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query quality history: %w", err)
	}
	defer rows.Close()

	entries := make(map[models.GridFormat][]models.QualityHistoryEntry)
	for rows.Next() {
		var (
			format, recordedAt, class string
			e                         models.QualityHistoryEntry
		)
		if err := rows.Scan(&format, &recordedAt, &e.Score, &class); err != nil {
			return nil, fmt.Errorf("scan quality history: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", recordedAt, err)
		}
		e.Classification = models.QualityClass(class)
		f := models.GridFormat(format)
		entries[f] = append(entries[f], e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := make(models.QualityHistoryReport, len(entries))
	for f, list := range entries {
		scores := make([]float64, len(list))
		for i, e := range list {
			scores[i] = e.Score
		}
		report[f] = models.QualitySummary{Entries: list, Average: stat.Mean(scores, nil)}
	}
	return report, nil
}
