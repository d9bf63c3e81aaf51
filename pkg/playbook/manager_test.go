package playbook

import (
	"context"
	"testing"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/ai/aitest"
)

func newTestManager(t *testing.T, client ai.Client) *Manager {
	t.Helper()
	m, err := NewManager(NewManagerParams{
		Type:       TypeSpec,
		AI:         client,
		ResultsDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBulletScore(t *testing.T) {
	tests := []struct {
		helpful, harmful int
		want             float64
	}{
		{0, 0, 0},
		{3, 1, 0.5},
		{0, 2, -1},
		{4, 0, 1},
	}
	for _, tt := range tests {
		b := Bullet{Helpful: tt.helpful, Harmful: tt.harmful}
		if got := b.Score(); got != tt.want {
			t.Fatalf("score(%d,%d) = %f, want %f", tt.helpful, tt.harmful, got, tt.want)
		}
	}
}

func TestStoreExternalResultSkipsLLM(t *testing.T) {
	client := &aitest.Client{}
	m := newTestManager(t, client)

	err := m.StoreExternalResult(ExternalResult{
		Question:    "how many jets",
		Prediction:  `{"jets": 42}`,
		GroundTruth: `{"jets": 42}`,
		Correct:     true,
		Score:       1.0,
		AlgoEval:    map[string]any{"is_correct": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if client.CallCount("GenerateCompletion") != 0 {
		t.Fatal("fast path must not call the model")
	}

	metrics := m.MetricsSnapshot()
	if metrics.Processed != 1 || metrics.Correct != 1 {
		t.Fatalf("metrics = %+v", metrics)
	}
	if metrics.History[0].Accuracy != 100 {
		t.Fatalf("accuracy = %f", metrics.History[0].Accuracy)
	}
	if len(m.Bullets()) != 0 {
		t.Fatal("fast path must not mutate the playbook")
	}
}

func TestMetricRowsCarrySampleFields(t *testing.T) {
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			return `{"bullet_labels": {}, "operations": []}`, nil
		},
	}
	m := newTestManager(t, client)

	err := m.StoreExternalResult(ExternalResult{
		Question:    "pump count",
		Prediction:  `{"pumps": 2}`,
		GroundTruth: `{"pumps": 2}`,
		Correct:     true,
		Score:       1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AdaptWithPrediction(context.Background(), "jet count", "ctx", "40 jets", "42 jets"); err != nil {
		t.Fatal(err)
	}

	history := m.MetricsSnapshot().History
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
	first := history[0]
	if first.Step != 1 || first.Question != "pump count" || first.Predicted != `{"pumps": 2}` || first.GroundTruth != `{"pumps": 2}` {
		t.Fatalf("external row = %+v", first)
	}
	second := history[1]
	if second.Step != 2 || second.Question != "jet count" || second.Predicted != "40 jets" || second.GroundTruth != "42 jets" {
		t.Fatalf("adapt row = %+v", second)
	}
}

func TestAdaptWithPredictionAddsRules(t *testing.T) {
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			calls++
			if calls == 1 {
				// Reflector.
				return `{"bullet_labels": {}, "error_identification": "missed jets",
					"root_cause": "ignored spec table", "key_insight": "read tables first"}`, nil
			}
			// Curator.
			return `{"operations": [
				{"type": "ADD", "section": "extraction", "content": "Read the specification table before free text."},
				{"type": "ADD", "section": "not-a-section", "content": "should be rejected"},
				{"type": "DELETE", "section": "extraction", "content": "unsupported op"}
			]}`, nil
		},
	}
	m := newTestManager(t, client)

	err := m.AdaptWithPrediction(context.Background(), "q", "ctx", "40 jets", "42 jets and 2 pumps and LED lighting")
	if err != nil {
		t.Fatal(err)
	}

	bullets := m.Bullets()
	if len(bullets) != 1 {
		t.Fatalf("expected 1 bullet, got %+v", bullets)
	}
	if bullets[0].ID != "ctx-00001" {
		t.Fatalf("id = %q", bullets[0].ID)
	}
	if bullets[0].Section != "extraction" {
		t.Fatalf("section = %q", bullets[0].Section)
	}

	metrics := m.MetricsSnapshot()
	if metrics.Processed != 1 || metrics.PlaybookUpdates != 1 {
		t.Fatalf("metrics = %+v", metrics)
	}
}

func TestAdaptFeedbackCounters(t *testing.T) {
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			calls++
			if calls == 1 {
				return `{"bullet_labels": {"ctx-00001": "helpful", "ctx-00002": "harmful", "ctx-00003": "neutral"}}`, nil
			}
			return `{"operations": []}`, nil
		},
	}
	m := newTestManager(t, client)
	m.bullets = []Bullet{
		{ID: "ctx-00001", Section: "general", Content: "a"},
		{ID: "ctx-00002", Section: "general", Content: "b"},
		{ID: "ctx-00003", Section: "general", Content: "c"},
	}
	m.nextID = 4

	if err := m.AdaptWithPrediction(context.Background(), "q", "ctx", "same", "same"); err != nil {
		t.Fatal(err)
	}
	bullets := m.Bullets()
	if bullets[0].Helpful != 1 || bullets[0].Harmful != 0 {
		t.Fatalf("bullet 1 = %+v", bullets[0])
	}
	if bullets[1].Harmful != 1 {
		t.Fatalf("bullet 2 = %+v", bullets[1])
	}
	if bullets[2].Helpful != 0 || bullets[2].Harmful != 0 {
		t.Fatalf("neutral bullet touched: %+v", bullets[2])
	}
}

func TestForceLastMetricsCorrectnessRecomputes(t *testing.T) {
	m := newTestManager(t, &aitest.Client{})
	if err := m.StoreExternalResult(ExternalResult{Correct: true, Score: 1}); err != nil {
		t.Fatal(err)
	}
	if err := m.StoreExternalResult(ExternalResult{Correct: false}); err != nil {
		t.Fatal(err)
	}
	if err := m.StoreExternalResult(ExternalResult{Correct: false}); err != nil {
		t.Fatal(err)
	}

	if err := m.ForceLastMetricsCorrectness(true); err != nil {
		t.Fatal(err)
	}

	metrics := m.MetricsSnapshot()
	if metrics.Correct != 2 {
		t.Fatalf("correct = %d", metrics.Correct)
	}
	// Running accuracy per row: 100.0, 50.0, 66.7.
	if metrics.History[0].Accuracy != 100 {
		t.Fatalf("row 0 accuracy = %f", metrics.History[0].Accuracy)
	}
	if metrics.History[1].Accuracy != 50 {
		t.Fatalf("row 1 accuracy = %f", metrics.History[1].Accuracy)
	}
	if metrics.History[2].Accuracy != 66.7 {
		t.Fatalf("row 2 accuracy = %f", metrics.History[2].Accuracy)
	}
}

func TestRemoveRuleNeverReusesID(t *testing.T) {
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			calls++
			if calls%2 == 1 {
				return `{"bullet_labels": {}}`, nil
			}
			return `{"operations": [{"type": "ADD", "section": "general", "content": "rule"}]}`, nil
		},
	}
	m := newTestManager(t, client)

	if err := m.AdaptWithPrediction(context.Background(), "q", "c", "a", "a"); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveRule("ctx-00001"); err != nil {
		t.Fatal(err)
	}
	if err := m.AdaptWithPrediction(context.Background(), "q", "c", "a", "a"); err != nil {
		t.Fatal(err)
	}

	bullets := m.Bullets()
	if len(bullets) != 1 || bullets[0].ID != "ctx-00002" {
		t.Fatalf("expected fresh id ctx-00002, got %+v", bullets)
	}
	if err := m.RemoveRule("ctx-00001"); err == nil {
		t.Fatal("removing a missing rule should fail")
	}
}

func TestSnapshotRestoresMonotoneIDs(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			calls++
			if calls%2 == 1 {
				return `{"bullet_labels": {}}`, nil
			}
			return `{"operations": [{"type": "ADD", "section": "general", "content": "rule"}]}`, nil
		},
	}

	first, err := NewManager(NewManagerParams{Type: TypeSpec, AI: client, ResultsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := first.AdaptWithPrediction(context.Background(), "q", "c", "a", "a"); err != nil {
		t.Fatal(err)
	}

	// Restart: a new manager over the same directory continues the sequence.
	second, err := NewManager(NewManagerParams{Type: TypeSpec, AI: client, ResultsDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := second.AdaptWithPrediction(context.Background(), "q", "c", "a", "a"); err != nil {
		t.Fatal(err)
	}

	bullets := second.Bullets()
	if len(bullets) != 2 {
		t.Fatalf("expected 2 bullets, got %+v", bullets)
	}
	if bullets[0].ID != "ctx-00001" || bullets[1].ID != "ctx-00002" {
		t.Fatalf("ids = %q, %q", bullets[0].ID, bullets[1].ID)
	}

	metrics := second.MetricsSnapshot()
	if metrics.Processed != 2 {
		t.Fatalf("restored metrics = %+v", metrics)
	}
}

func TestActiveRulesLimit(t *testing.T) {
	m := newTestManager(t, &aitest.Client{})
	m.bullets = []Bullet{
		{ID: "ctx-00001", Content: "one"},
		{ID: "ctx-00002", Content: "two"},
		{ID: "ctx-00003", Content: "three"},
	}

	all := m.ActiveRules(0)
	if len(all) != 3 || all[0] != "one" {
		t.Fatalf("all = %v", all)
	}
	last := m.ActiveRules(2)
	if len(last) != 2 || last[0] != "two" || last[1] != "three" {
		t.Fatalf("last = %v", last)
	}
}
