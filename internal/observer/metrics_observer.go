package observer

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gridopt"
	metricsSubsystem = "optimizer"
)

var (
	// eventsTotal counts optimization events by type, format and outcome
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "events_total",
		Help:      "Optimization events by type, format and outcome",
	}, []string{"event_type", "format", "success"})

	// eventScore tracks the score attached to each event
	eventScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "event_score",
		Help:      "Score carried by optimization events (confidence, coherence or quality)",
		Buckets:   []float64{0.1, 0.25, 0.5, 0.6, 0.75, 0.85, 0.9, 1, 25, 50, 60, 75, 90, 100},
	}, []string{"event_type", "format"})

	// eventDuration tracks how long each decision took
	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "event_duration_seconds",
		Help:      "Duration of optimization decisions in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"event_type"})
)

// MetricsObserver exports events to Prometheus and keeps in-process counters
type MetricsObserver struct {
	mu            sync.RWMutex
	counts        map[EventType]int64
	failures      int64
	totalDuration time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]int64)}
}

// OnEvent handles optimization events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event OptimizationEvent) {
	success := "true"
	if !event.Success {
		success = "false"
	}
	format := string(event.Format)
	eventsTotal.WithLabelValues(string(event.EventType), format, success).Inc()
	eventScore.WithLabelValues(string(event.EventType), format).Observe(event.Score)
	if event.Duration > 0 {
		eventDuration.WithLabelValues(string(event.EventType)).Observe(event.Duration.Seconds())
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[event.EventType]++
	o.totalDuration += event.Duration
	if !event.Success {
		o.failures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current in-process counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var total int64
	byType := make(map[string]int64, len(o.counts))
	for t, n := range o.counts {
		byType[string(t)] = n
		total += n
	}
	avg := time.Duration(0)
	if total > 0 {
		avg = o.totalDuration / time.Duration(total)
	}

	return map[string]interface{}{
		"total_events":   total,
		"failed_events":  o.failures,
		"events_by_type": byType,
		"avg_duration":   avg,
		"total_duration": o.totalDuration,
	}
}
