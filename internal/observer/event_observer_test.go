package observer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []OptimizationEvent
	done   chan struct{}
}

func newRecordingObserver(name string, expected int) *recordingObserver {
	return &recordingObserver{name: name, done: make(chan struct{}, expected)}
}

func (r *recordingObserver) OnEvent(ctx context.Context, event OptimizationEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingObserver) GetObserverName() string { return r.name }

func (r *recordingObserver) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for event %d of %d", i+1, n)
		}
	}
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event OptimizationEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                             { return "panicking" }

func TestEventPublisher_NotifiesAllObservers(t *testing.T) {
	pub := NewEventPublisher()
	a := newRecordingObserver("a", 1)
	b := newRecordingObserver("b", 1)
	pub.Subscribe(a)
	pub.Subscribe(b)
	pub.Subscribe(panickingObserver{})

	pub.NotifyObservers(context.Background(), OptimizationEvent{
		EventType: FormatRecommended,
		Format:    models.Linear1x3,
		Score:     0.8,
		Success:   true,
	})

	a.wait(t, 1)
	b.wait(t, 1)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.events[0].Format != models.Linear1x3 {
		t.Errorf("Expected format 1x3, got %s", a.events[0].Format)
	}
	if a.events[0].Timestamp.IsZero() {
		t.Error("Expected publisher to stamp the event")
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	pub := NewEventPublisher()
	a := newRecordingObserver("a", 1)
	b := newRecordingObserver("b", 1)
	pub.Subscribe(a)
	pub.Subscribe(b)
	pub.Unsubscribe(a)

	pub.NotifyObservers(context.Background(), OptimizationEvent{EventType: QualityAnalyzed, Success: true})
	b.wait(t, 1)

	select {
	case <-a.done:
		t.Error("Expected unsubscribed observer to receive nothing")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMetricsObserver_GetMetrics(t *testing.T) {
	obs := NewMetricsObserver()
	ctx := context.Background()

	obs.OnEvent(ctx, OptimizationEvent{EventType: FormatRecommended, Format: models.Square3x3, Score: 0.7, Duration: 10 * time.Millisecond, Success: true})
	obs.OnEvent(ctx, OptimizationEvent{EventType: FormatRecommended, Format: models.Linear1x2, Score: 0.6, Duration: 30 * time.Millisecond, Success: true})
	obs.OnEvent(ctx, OptimizationEvent{EventType: CoherenceFailed, Format: models.Linear1x4, Score: 0.3, Success: false, ErrorMessage: "too low"})

	metrics := obs.GetMetrics()
	if metrics["total_events"].(int64) != 3 {
		t.Errorf("Expected 3 events, got %v", metrics["total_events"])
	}
	if metrics["failed_events"].(int64) != 1 {
		t.Errorf("Expected 1 failed event, got %v", metrics["failed_events"])
	}
	byType := metrics["events_by_type"].(map[string]int64)
	if byType[string(FormatRecommended)] != 2 {
		t.Errorf("Expected 2 recommendations, got %d", byType[string(FormatRecommended)])
	}
	if avg := metrics["avg_duration"].(time.Duration); avg != 40*time.Millisecond/3 {
		t.Errorf("Expected average duration %v, got %v", 40*time.Millisecond/3, avg)
	}
}

func TestLoggingObserver_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), OptimizationEvent{
		EventType: AutofixTriggered,
		Format:    models.Linear1x4,
		Score:     0.7,
		Metadata:  map[string]interface{}{"parameter": "denoising_strength"},
	})

	out := buf.String()
	for _, want := range []string{`"event_type":"autofix_triggered"`, `"parameter":"denoising_strength"`, `"level":"warning"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}
