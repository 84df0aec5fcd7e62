package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// OptimizationEvent describes one decision taken by the optimizer
type OptimizationEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	Format       models.GridFormat      `json:"format,omitempty"`
	Score        float64                `json:"score,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of optimization event
type EventType string

const (
	// FormatRecommended when a grid format has been chosen
	FormatRecommended EventType = "format_recommended"
	// CoherenceAnalyzed when a sequence has been measured
	CoherenceAnalyzed EventType = "coherence_analyzed"
	// AutofixTriggered when a weak sequence produced an autofix action
	AutofixTriggered EventType = "autofix_triggered"
	// CoherenceFailed when a sequence fell below the fatal floor
	CoherenceFailed EventType = "coherence_failed"
	// QualityAnalyzed when a panel bundle has been scored
	QualityAnalyzed EventType = "quality_analyzed"
	// PanelMetricFailed when one panel was replaced by neutral metrics
	PanelMetricFailed EventType = "panel_metric_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event OptimizationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event OptimizationEvent)
}

// LoggingObserver logs optimization events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles optimization events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event OptimizationEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"format":     event.Format,
		"score":      event.Score,
		"duration":   event.Duration,
		"success":    event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case FormatRecommended:
		entry.Info("Grid format recommended")
	case CoherenceAnalyzed:
		entry.Info("Temporal coherence analyzed")
	case AutofixTriggered:
		entry.Warn("Autofix triggered")
	case CoherenceFailed:
		entry.Error("Temporal coherence below minimum")
	case QualityAnalyzed:
		entry.Info("Panel quality analyzed")
	case PanelMetricFailed:
		entry.Warn("Panel metric failed")
	default:
		entry.Info("Optimization event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event OptimizationEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
