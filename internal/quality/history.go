package quality

import (
	"sort"
	"sync"

	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// history is a bounded per-format log of quality outcomes
type history struct {
	mu       sync.RWMutex
	cap      int
	window   int
	deadband float64
	entries  map[models.GridFormat][]models.QualityHistoryEntry
}

func newHistory(capacity, window int, deadband float64) *history {
	return &history{
		cap:      capacity,
		window:   window,
		deadband: deadband,
		entries:  make(map[models.GridFormat][]models.QualityHistoryEntry),
	}
}

func (h *history) append(format models.GridFormat, e models.QualityHistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append(h.entries[format], e)
	if len(list) > h.cap {
		list = list[len(list)-h.cap:]
	}
	h.entries[format] = list
}

func (h *history) get(format models.GridFormat) []models.QualityHistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.QualityHistoryEntry, len(h.entries[format]))
	copy(out, h.entries[format])
	return out
}

func (h *history) trend(format models.GridFormat) models.Trend {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return trendOf(h.entries[format], h.window, h.deadband)
}

// trendOf compares the mean of the most recent window against the earliest.
// The two windows never overlap.
func trendOf(entries []models.QualityHistoryEntry, window int, deadband float64) models.Trend {
	if len(entries) < 2 {
		return models.TrendStable
	}
	// short histories compare disjoint halves
	if half := len(entries) / 2; window > half {
		window = half
	}
	early := make([]float64, window)
	recent := make([]float64, window)
	for i := 0; i < window; i++ {
		early[i] = entries[i].Score
		recent[i] = entries[len(entries)-window+i].Score
	}
	diff := stat.Mean(recent, nil) - stat.Mean(early, nil)
	switch {
	case diff > deadband:
		return models.TrendImproving
	case diff < -deadband:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func (h *history) export() models.QualityHistoryReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	report := make(models.QualityHistoryReport, len(h.entries))
	for f, list := range h.entries {
		if len(list) == 0 {
			continue
		}
		entries := make([]models.QualityHistoryEntry, len(list))
		copy(entries, list)
		scores := make([]float64, len(list))
		for i, e := range list {
			scores[i] = e.Score
		}
		report[f] = models.QualitySummary{
			Entries: entries,
			Average: stat.Mean(scores, nil),
			Trend:   trendOf(list, h.window, h.deadband),
		}
	}
	return report
}

// restore replaces the history of every valid format present in report and
// returns the number of entries kept
func (h *history) restore(report models.QualityHistoryReport) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := 0
	for f, summary := range report {
		if !f.IsValid() {
			continue
		}
		list := make([]models.QualityHistoryEntry, len(summary.Entries))
		copy(list, summary.Entries)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Timestamp.Before(list[j].Timestamp)
		})
		if len(list) > h.cap {
			list = list[len(list)-h.cap:]
		}
		h.entries[f] = list
		kept += len(list)
	}
	return kept
}
