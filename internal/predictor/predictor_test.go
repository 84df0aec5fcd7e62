package predictor

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

const tolerance = 1e-6

func actionAnalysis() models.ContentAnalysis {
	return models.ContentAnalysis{
		ContentType:          models.ContentAction,
		SceneComplexity:      0.3,
		MotionIntensity:      0.8,
		CharacterCount:       2,
		TemporalRequirements: true,
	}
}

func dialogueAnalysis() models.ContentAnalysis {
	return models.ContentAnalysis{
		ContentType:     models.ContentDialogue,
		SceneComplexity: 0.2,
		MotionIntensity: 0.2,
		CharacterCount:  2,
	}
}

func hasRisk(risks []string, risk string) bool {
	for _, r := range risks {
		if r == risk {
			return true
		}
	}
	return false
}

func TestPredict_ActionInLinear(t *testing.T) {
	p := NewPredictor(nil)
	pred := p.Predict(models.Linear1x4, actionAnalysis())

	if pred.PredictedQuality != 100 {
		t.Errorf("Expected quality clamped to 100, got %f", pred.PredictedQuality)
	}
	wantImprovement := (100.0 - 75.0) / 75.0 * 100
	if math.Abs(pred.ImprovementPercentage-wantImprovement) > tolerance {
		t.Errorf("Expected improvement %f, got %f", wantImprovement, pred.ImprovementPercentage)
	}
	wantTime := 110 * 1.12 * 1.24 * 1.2 * 1.2
	if math.Abs(pred.EstimatedTime-wantTime) > tolerance {
		t.Errorf("Expected time %f, got %f", wantTime, pred.EstimatedTime)
	}
	if math.Abs(pred.ConfidenceLevel-0.64) > tolerance {
		t.Errorf("Expected confidence 0.64, got %f", pred.ConfidenceLevel)
	}
	if len(pred.RiskFactors) != 0 {
		t.Errorf("Expected no risks, got %v", pred.RiskFactors)
	}
}

func TestPredict_DialogueInSquare(t *testing.T) {
	p := NewPredictor(nil)
	pred := p.Predict(models.Square3x3, dialogueAnalysis())

	if math.Abs(pred.PredictedQuality-75) > tolerance {
		t.Errorf("Expected baseline quality 75, got %f", pred.PredictedQuality)
	}
	if math.Abs(pred.ImprovementPercentage) > tolerance {
		t.Errorf("Expected zero improvement, got %f", pred.ImprovementPercentage)
	}
	if math.Abs(pred.ConfidenceLevel-0.48) > tolerance {
		t.Errorf("Expected confidence 0.48, got %f", pred.ConfidenceLevel)
	}
}

func TestPredict_TimeCapAndRisks(t *testing.T) {
	p := NewPredictor(nil)
	a := models.ContentAnalysis{
		ContentType:          models.ContentAction,
		SceneComplexity:      1,
		MotionIntensity:      1,
		CharacterCount:       10,
		TemporalRequirements: true,
	}
	pred := p.Predict(models.Square3x3, a)

	if pred.EstimatedTime != maxEstimatedTime {
		t.Errorf("Expected time capped at %f, got %f", maxEstimatedTime, pred.EstimatedTime)
	}
	for _, risk := range []string{RiskHighComplexity, RiskMotionInSquareGrid, RiskManyCharacters, RiskTemporalInSquareGrid, RiskLongProcessingTime} {
		if !hasRisk(pred.RiskFactors, risk) {
			t.Errorf("Expected risk %s in %v", risk, pred.RiskFactors)
		}
	}

	linear := p.Predict(models.Linear1x4, a)
	if hasRisk(linear.RiskFactors, RiskMotionInSquareGrid) || hasRisk(linear.RiskFactors, RiskTemporalInSquareGrid) {
		t.Errorf("Expected no square grid risks for linear format, got %v", linear.RiskFactors)
	}
}

func TestPredict_AllFormatsBounded(t *testing.T) {
	p := NewPredictor(nil)
	for _, f := range models.AllFormats() {
		for _, a := range []models.ContentAnalysis{actionAnalysis(), dialogueAnalysis(), {}} {
			pred := p.Predict(f, a)
			if pred.PredictedQuality < 0 || pred.PredictedQuality > 100 {
				t.Errorf("%s: quality out of range %f", f, pred.PredictedQuality)
			}
			if pred.EstimatedTime > maxEstimatedTime {
				t.Errorf("%s: time above cap %f", f, pred.EstimatedTime)
			}
			if pred.ConfidenceLevel < 0 || pred.ConfidenceLevel > 1 {
				t.Errorf("%s: confidence out of range %f", f, pred.ConfidenceLevel)
			}
		}
	}
}

func TestUpdatePredictionModels(t *testing.T) {
	p := NewPredictor(nil)
	a := dialogueAnalysis()

	t.Run("large error adjusts baseline", func(t *testing.T) {
		u := p.UpdatePredictionModels(70, models.Linear1x2, a)
		if !u.Adjusted {
			t.Fatal("Expected baseline adjustment")
		}
		if math.Abs(u.Predicted-97.5) > tolerance {
			t.Errorf("Expected predicted 97.5, got %f", u.Predicted)
		}
		if math.Abs(u.BaselineAfter-75.25) > tolerance {
			t.Errorf("Expected baseline 75.25, got %f", u.BaselineAfter)
		}
		if got := p.State().BaselineQuality(models.Linear1x2); math.Abs(got-75.25) > tolerance {
			t.Errorf("Expected stored baseline 75.25, got %f", got)
		}
	})

	t.Run("history lowers confidence", func(t *testing.T) {
		pred := NewPredictor(nil)
		pred.UpdatePredictionModels(70, models.Linear1x2, a)
		// avg error 27.5 => accuracy factor 0.725
		got := pred.Predict(models.Linear1x2, a).ConfidenceLevel
		if math.Abs(got-0.8*0.725) > tolerance {
			t.Errorf("Expected confidence %f, got %f", 0.8*0.725, got)
		}
	})

	t.Run("small error leaves baseline", func(t *testing.T) {
		fresh := NewPredictor(nil)
		u := fresh.UpdatePredictionModels(92, models.Linear1x2, a)
		if u.Adjusted {
			t.Error("Expected no adjustment for error within tolerance")
		}
		if fresh.State().BaselineQuality(models.Linear1x2) != 78 {
			t.Errorf("Expected baseline 78, got %f", fresh.State().BaselineQuality(models.Linear1x2))
		}
		if fresh.State().ErrorCount(models.Linear1x2) != 1 {
			t.Error("Expected the error to be recorded anyway")
		}
	})
}

func TestLearningState_HistoryCapped(t *testing.T) {
	ls := NewLearningState(5)
	for i := 0; i < 12; i++ {
		ls.RecordError(models.Linear1x3, float64(i))
		ls.AppendPerformance(models.Linear1x3, models.PerformanceEntry{Quality: float64(i)})
	}
	if ls.ErrorCount(models.Linear1x3) != 5 {
		t.Errorf("Expected 5 errors retained, got %d", ls.ErrorCount(models.Linear1x3))
	}
	avg, _ := ls.AverageError(models.Linear1x3)
	if avg != 9 {
		t.Errorf("Expected average of most recent entries 9, got %f", avg)
	}
	perf := ls.Performance()[models.Linear1x3]
	if len(perf) != 5 || perf[0].Quality != 7 {
		t.Errorf("Expected most recent 5 entries starting at 7, got %+v", perf)
	}
}

func TestPerformanceHistory_ExportRestore(t *testing.T) {
	p := NewPredictor(nil)
	p.RecordPerformance(p.Predict(models.Linear1x3, actionAnalysis()))
	p.RecordPerformance(p.Predict(models.Square3x3, dialogueAnalysis()))

	report := p.ExportPerformanceHistory()
	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Expected JSON serialisable report: %v", err)
	}
	var decoded map[string][]map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unexpected decode error: %v", err)
	}
	entry := decoded["1x3"][0]
	for _, key := range []string{"timestamp", "quality", "improvement", "estimated_time"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("Expected key %q in exported entry", key)
		}
	}

	restored := NewPredictor(nil)
	report["9x9"] = []models.PerformanceEntry{{Timestamp: time.Now()}}
	if n := restored.RestorePerformanceHistory(report); n != 2 {
		t.Errorf("Expected 2 restored entries, got %d", n)
	}
	if len(restored.ExportPerformanceHistory()) != 2 {
		t.Error("Expected unknown formats to be skipped")
	}
}

func TestRecordPerformance_IgnoresUnknownFormat(t *testing.T) {
	p := NewPredictor(nil)
	p.RecordPerformance(models.QualityPrediction{Format: "5x5"})
	if len(p.ExportPerformanceHistory()) != 0 {
		t.Error("Expected nothing recorded for an unknown format")
	}
}
