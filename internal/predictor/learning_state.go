package predictor

import (
	"math"
	"sort"
	"sync"

	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// DefaultHistoryCap bounds prediction error and performance history per format
const DefaultHistoryCap = 100

// LearningState is the mutable calibration table owned by one optimizer.
// Reads are safe concurrently; writers must be serialised by the caller.
type LearningState struct {
	mu              sync.RWMutex
	historyCap      int
	baselineQuality map[models.GridFormat]float64
	baselineTime    map[models.GridFormat]float64
	errors          map[models.GridFormat][]float64
	performance     map[models.GridFormat][]models.PerformanceEntry
}

// NewLearningState seeds baselines from the format strategy table
func NewLearningState(historyCap int) *LearningState {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	ls := &LearningState{
		historyCap:      historyCap,
		baselineQuality: make(map[models.GridFormat]float64),
		baselineTime:    make(map[models.GridFormat]float64),
		errors:          make(map[models.GridFormat][]float64),
		performance:     make(map[models.GridFormat][]models.PerformanceEntry),
	}
	for _, s := range strategy.All() {
		ls.baselineQuality[s.Format()] = s.BaselineQuality()
		ls.baselineTime[s.Format()] = s.BaselineTime()
	}
	return ls
}

// BaselineQuality returns the current quality baseline of a format
func (ls *LearningState) BaselineQuality(f models.GridFormat) float64 {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.baselineQuality[f]
}

// BaselineTime returns the processing time baseline of a format in seconds
func (ls *LearningState) BaselineTime(f models.GridFormat) float64 {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.baselineTime[f]
}

// AdjustBaseline shifts the quality baseline by delta, clamped to [0,100],
// and returns the values before and after.
func (ls *LearningState) AdjustBaseline(f models.GridFormat, delta float64) (before, after float64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	before = ls.baselineQuality[f]
	after = math.Max(0, math.Min(100, before+delta))
	ls.baselineQuality[f] = after
	return before, after
}

// RecordError appends an absolute prediction error, keeping the most recent entries
func (ls *LearningState) RecordError(f models.GridFormat, absErr float64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := append(ls.errors[f], absErr)
	if len(h) > ls.historyCap {
		h = h[len(h)-ls.historyCap:]
	}
	ls.errors[f] = h
}

// AverageError returns the mean recorded error and whether any history exists
func (ls *LearningState) AverageError(f models.GridFormat) (float64, bool) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	h := ls.errors[f]
	if len(h) == 0 {
		return 0, false
	}
	var sum float64
	for _, e := range h {
		sum += e
	}
	return sum / float64(len(h)), true
}

// ErrorCount returns how many prediction errors are retained for a format
func (ls *LearningState) ErrorCount(f models.GridFormat) int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.errors[f])
}

// AppendPerformance records one performance entry, keeping the most recent entries
func (ls *LearningState) AppendPerformance(f models.GridFormat, entry models.PerformanceEntry) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := append(ls.performance[f], entry)
	if len(h) > ls.historyCap {
		h = h[len(h)-ls.historyCap:]
	}
	ls.performance[f] = h
}

// Performance returns a copy of the performance history
func (ls *LearningState) Performance() models.PerformanceReport {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make(models.PerformanceReport, len(ls.performance))
	for f, h := range ls.performance {
		cp := make([]models.PerformanceEntry, len(h))
		copy(cp, h)
		out[f] = cp
	}
	return out
}

// RestorePerformance replaces the performance history. Unknown formats are
// skipped, entries are ordered by timestamp and trimmed to the cap.
func (ls *LearningState) RestorePerformance(report models.PerformanceReport) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	restored := 0
	ls.performance = make(map[models.GridFormat][]models.PerformanceEntry)
	for f, entries := range report {
		if !f.IsValid() {
			continue
		}
		h := make([]models.PerformanceEntry, len(entries))
		copy(h, entries)
		sort.SliceStable(h, func(i, j int) bool { return h[i].Timestamp.Before(h[j].Timestamp) })
		if len(h) > ls.historyCap {
			h = h[len(h)-ls.historyCap:]
		}
		ls.performance[f] = h
		restored += len(h)
	}
	return restored
}
