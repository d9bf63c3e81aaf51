package playbook

import "math"

// MetricRow records the outcome of one processed sample, carrying the
// sample itself so persisted rows stay traceable.
type MetricRow struct {
	Step         int            `json:"step"`
	Question     string         `json:"question"`
	Predicted    string         `json:"predicted"`
	GroundTruth  string         `json:"ground_truth"`
	Correct      bool           `json:"correct"`
	Score        float64        `json:"score"`
	PlaybookSize int            `json:"playbook_size"`
	Source       string         `json:"source"`
	Timestamp    string         `json:"timestamp"`
	Accuracy     float64        `json:"accuracy"`
	AlgoEval     map[string]any `json:"algo_evaluation,omitempty"`
}

// Metrics is the running history plus counters.
type Metrics struct {
	History         []MetricRow `json:"history"`
	Processed       int         `json:"processed"`
	Correct         int         `json:"correct"`
	PlaybookUpdates int         `json:"playbook_updates"`
}

// recompute refreshes the step numbers, counters and the running accuracy
// column: row i holds round(100 * correct_so_far / (i+1), 1).
func (m *Metrics) recompute() {
	correct := 0
	for i := range m.History {
		m.History[i].Step = i + 1
		if m.History[i].Correct {
			correct++
		}
		acc := 100 * float64(correct) / float64(i+1)
		m.History[i].Accuracy = math.Round(acc*10) / 10
	}
	m.Processed = len(m.History)
	m.Correct = correct
}
