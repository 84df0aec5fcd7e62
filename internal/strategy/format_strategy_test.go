package strategy

import (
	"math"
	"testing"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

func TestAll_CoversEveryFormat(t *testing.T) {
	strategies := All()
	if len(strategies) != 4 {
		t.Fatalf("Expected 4 strategies, got %d", len(strategies))
	}
	for i, f := range models.AllFormats() {
		if strategies[i].Format() != f {
			t.Errorf("Expected strategy %d to be %s, got %s", i, f, strategies[i].Format())
		}
		spec := strategies[i].Spec()
		if spec.PanelCount != spec.Rows*spec.Cols {
			t.Errorf("%s: panel count %d != %dx%d", f, spec.PanelCount, spec.Rows, spec.Cols)
		}
		if spec.ProcessingComplexity < 0 || spec.ProcessingComplexity > 1 {
			t.Errorf("%s: processing complexity out of range: %f", f, spec.ProcessingComplexity)
		}
		if spec.TemporalCoherenceWeight < 0 || spec.TemporalCoherenceWeight > 1 {
			t.Errorf("%s: temporal weight out of range: %f", f, spec.TemporalCoherenceWeight)
		}
	}
}

func TestFor_Unknown(t *testing.T) {
	if _, ok := For(models.GridFormat("5x5")); ok {
		t.Error("Expected no strategy for 5x5")
	}
}

func TestSpec_IsCopy(t *testing.T) {
	s := MustFor(models.Square3x3)
	spec := s.Spec()
	spec.OptimalFor[0] = models.ContentAction

	if s.Spec().OptimalFor[0] == models.ContentAction {
		t.Error("Expected spec mutation not to leak into the strategy table")
	}
}

func TestFits(t *testing.T) {
	square := MustFor(models.Square3x3)
	linear := MustFor(models.Linear1x3)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"square complexity", square.ComplexityFit(0.8), 0.8},
		{"linear complexity", linear.ComplexityFit(0.8), 0.2},
		{"square motion", square.MotionFit(0.8), 0.6},
		{"linear motion", linear.MotionFit(0.8), 0.8},
		{"temporal required", linear.TemporalFit(true), 0.9},
		{"temporal neutral", square.TemporalFit(false), 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tt.want, tt.got)
			}
		})
	}
}

func TestComposeQuality(t *testing.T) {
	in := QualityInputs{
		BaseQuality:        80,
		TemporalCoherence:  0.9,
		TransitionQuality:  70,
		SpatialCoherence:   90,
		ComplexityHandling: 60,
	}

	linear := MustFor(models.Linear1x3)
	in.PanelCount = 3
	want := 0.5*80 + 0.3*90 + 0.2*70
	if got := linear.ComposeQuality(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected linear score %f, got %f", want, got)
	}

	square := MustFor(models.Square3x3)
	in.PanelCount = 9
	want = 0.6*80 + 0.25*90 + 0.15*60
	if got := square.ComposeQuality(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected square score %f, got %f", want, got)
	}

	in.PanelCount = 4
	want = 0.6*80 + 0.25*50 + 0.15*60
	if got := square.ComposeQuality(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected neutral spatial score %f, got %f", want, got)
	}
}
