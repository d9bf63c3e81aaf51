package specsheet

import "testing"

func TestEvaluateEqualSheets(t *testing.T) {
	truth := Default("Aurora 5")
	truth.Features.Jets = "42 jets"
	truth.PremiumFeatures = []string{"LED lighting"}

	eval := Evaluate(truth, truth)
	if !eval.IsCorrect {
		t.Fatalf("identical sheets should be correct: %+v", eval)
	}
	if eval.Score != 1 {
		t.Fatalf("score = %f", eval.Score)
	}
	if len(eval.Details) != 0 {
		t.Fatalf("details = %v", eval.Details)
	}
}

func TestEvaluateNormalizesBeforeComparing(t *testing.T) {
	truth := Default("Aurora 5")
	pred := Default("Aurora 5")
	// Aliases of the placeholder must not count as mismatches.
	pred.Measurements = "Unknown"
	pred.Features.Capacity = "未知"

	eval := Evaluate(pred, truth)
	if !eval.IsCorrect {
		t.Fatalf("placeholder aliases should match after normalization: %v", eval.Details)
	}
}

func TestEvaluatePartialScore(t *testing.T) {
	truth := Default("Aurora 5")
	pred := Default("Aurora 5")
	pred.Features.Jets = "40 jets"

	eval := Evaluate(pred, truth)
	if eval.IsCorrect {
		t.Fatal("mismatch should not be correct")
	}
	if eval.Score <= 0 || eval.Score >= 1 {
		t.Fatalf("partial score out of range: %f", eval.Score)
	}
	if len(eval.Details) != 1 {
		t.Fatalf("expected one detail, got %v", eval.Details)
	}
}

func TestEvaluateListMismatch(t *testing.T) {
	truth := Default("Aurora 5")
	truth.SmartWater = []string{"ozone", "uv"}
	pred := Default("Aurora 5")
	pred.SmartWater = []string{"ozone"}

	eval := Evaluate(pred, truth)
	if eval.IsCorrect {
		t.Fatal("list mismatch should not be correct")
	}
}

func TestEvaluateSpecRowOrderIrrelevant(t *testing.T) {
	truth := Default("Aurora 5")
	truth.Specifications[0].CabinetColor = "Walnut"

	pred := Default("Aurora 5")
	// Same value, wrong row position: normalization re-slots it.
	pred.Specifications = []Specification{
		{ShellColor: Placeholder},
		{CabinetColor: "Walnut"},
	}

	eval := Evaluate(pred, truth)
	if !eval.IsCorrect {
		t.Fatalf("re-slotted rows should match: %v", eval.Details)
	}
}
