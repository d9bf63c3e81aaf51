package playbook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

// DefaultSections is the whitelist curator additions must target.
var DefaultSections = []string{
	"extraction", "formatting", "terminology", "layout", "general",
}

// Manager is one playbook instance. All mutating operations hold the
// mutex end to end, including the snapshot write, so readers observe
// either the old or the new state.
type Manager struct {
	mu sync.Mutex

	playbookType Type
	ai           ai.Client
	sections     []string
	resultsDir   string

	bullets []Bullet
	nextID  int
	metrics Metrics
}

// NewManagerParams configures a playbook instance.
type NewManagerParams struct {
	Type Type
	AI   ai.Client
	// Sections whitelists curator targets; nil uses DefaultSections.
	Sections []string
	// ResultsDir roots snapshots; "" uses results/<type>.
	ResultsDir string
}

// NewManager builds a manager and loads any existing snapshot so bullet
// ids keep increasing across restarts.
func NewManager(params NewManagerParams) (*Manager, error) {
	sections := params.Sections
	if len(sections) == 0 {
		sections = DefaultSections
	}
	dir := params.ResultsDir
	if dir == "" {
		dir = fmt.Sprintf("results/%s", params.Type)
	}
	m := &Manager{
		playbookType: params.Type,
		ai:           params.AI,
		sections:     sections,
		resultsDir:   dir,
		nextID:       1,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Type returns the playbook type.
func (m *Manager) Type() Type { return m.playbookType }

// Bullets returns a copy of the current playbook.
func (m *Manager) Bullets() []Bullet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bullet, len(m.bullets))
	copy(out, m.bullets)
	return out
}

// MetricsSnapshot returns a copy of the current metrics.
func (m *Manager) MetricsSnapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.metrics
	snap.History = make([]MetricRow, len(m.metrics.History))
	copy(snap.History, m.metrics.History)
	return snap
}

// ActiveRules returns the last limit bullet contents, oldest first.
// limit 0 returns all.
func (m *Manager) ActiveRules(limit int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if limit > 0 && len(m.bullets) > limit {
		start = len(m.bullets) - limit
	}
	out := make([]string, 0, len(m.bullets)-start)
	for _, b := range m.bullets[start:] {
		out = append(out, b.Content)
	}
	return out
}

func (m *Manager) playbookText() string {
	var b strings.Builder
	for _, bullet := range m.bullets {
		fmt.Fprintf(&b, "[%s] (%s) %s\n", bullet.ID, bullet.Section, bullet.Content)
	}
	return b.String()
}

// AdaptOnline runs the full loop: generator answers the question with the
// playbook in context, then reflection and curation run against the ground
// truth.
func (m *Manager) AdaptOnline(ctx context.Context, question, contextText, groundTruth string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gen, err := m.runGenerator(ctx, question, contextText)
	if err != nil {
		return fmt.Errorf("playbook: generator: %w", err)
	}
	return m.adaptLocked(ctx, question, contextText, gen.FinalAnswer, gen.UsedBulletIDs, groundTruth)
}

// AdaptWithPrediction skips the generator and adapts from a caller-supplied
// prediction.
func (m *Manager) AdaptWithPrediction(ctx context.Context, question, contextText, prediction, groundTruth string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adaptLocked(ctx, question, contextText, prediction, nil, groundTruth)
}

func (m *Manager) adaptLocked(ctx context.Context, question, contextText, prediction string, usedIDs []string, groundTruth string) error {
	correct := AnswersMatch(prediction, groundTruth)

	reflection, err := m.runReflector(ctx, question, prediction, groundTruth, correct, usedIDs)
	if err != nil {
		logger.Warn("playbook reflector failed", "type", string(m.playbookType), "error", err)
	} else {
		for id, label := range reflection.BulletLabels {
			m.applyFeedback(id, label)
		}
	}

	added := 0
	ops, err := m.runCurator(ctx, question, prediction, groundTruth, reflection)
	if err != nil {
		logger.Warn("playbook curator failed", "type", string(m.playbookType), "error", err)
	} else {
		added = m.applyOperations(ops)
	}
	if added > 0 {
		m.metrics.PlaybookUpdates++
	}

	m.appendMetric(MetricRow{
		Question:     question,
		Predicted:    prediction,
		GroundTruth:  groundTruth,
		Correct:      correct,
		PlaybookSize: len(m.bullets),
		Source:       "adapt",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	return m.saveLocked()
}

// ExternalResult is a sample outcome decided outside the playbook loop,
// typically by the deterministic evaluator.
type ExternalResult struct {
	Question    string
	Prediction  string
	GroundTruth string
	Correct     bool
	Score       float64
	AlgoEval    map[string]any
}

// StoreExternalResult records a metric row without any LLM involvement.
// The deterministic evaluator's fast path lands here.
func (m *Manager) StoreExternalResult(res ExternalResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendMetric(MetricRow{
		Question:     res.Question,
		Predicted:    res.Prediction,
		GroundTruth:  res.GroundTruth,
		Correct:      res.Correct,
		Score:        res.Score,
		PlaybookSize: len(m.bullets),
		Source:       "external",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		AlgoEval:     res.AlgoEval,
	})
	return m.saveLocked()
}

// ForceLastMetricsCorrectness patches the most recent metric row and
// recomputes the running accuracy column.
func (m *Manager) ForceLastMetricsCorrectness(correct bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.metrics.History) == 0 {
		return fmt.Errorf("playbook: no metrics recorded")
	}
	m.metrics.History[len(m.metrics.History)-1].Correct = correct
	m.metrics.recompute()
	return m.saveLocked()
}

// AttachLastAlgoEvaluation attaches the deterministic evaluator's verdict
// to the most recent metric row.
func (m *Manager) AttachLastAlgoEvaluation(eval map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.metrics.History) == 0 {
		return fmt.Errorf("playbook: no metrics recorded")
	}
	m.metrics.History[len(m.metrics.History)-1].AlgoEval = eval
	m.metrics.recompute()
	return m.saveLocked()
}

// RemoveRule deletes a bullet. Its id is never reused.
func (m *Manager) RemoveRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, bullet := range m.bullets {
		if bullet.ID == id {
			m.bullets = append(m.bullets[:i], m.bullets[i+1:]...)
			return m.saveLocked()
		}
	}
	return fmt.Errorf("playbook: rule %q not found", id)
}

func (m *Manager) appendMetric(row MetricRow) {
	m.metrics.History = append(m.metrics.History, row)
	m.metrics.recompute()
}

func (m *Manager) applyFeedback(id, label string) {
	for i := range m.bullets {
		if m.bullets[i].ID != id {
			continue
		}
		switch label {
		case "helpful":
			m.bullets[i].Helpful++
		case "harmful":
			m.bullets[i].Harmful++
		}
		return
	}
}

func (m *Manager) sectionAllowed(section string) bool {
	for _, s := range m.sections {
		if s == section {
			return true
		}
	}
	return false
}

func (m *Manager) applyOperations(ops []curatorOp) int {
	added := 0
	for _, op := range ops {
		if !strings.EqualFold(op.Type, "ADD") {
			continue
		}
		content := strings.TrimSpace(op.Content)
		if content == "" || !m.sectionAllowed(op.Section) {
			continue
		}
		m.bullets = append(m.bullets, Bullet{
			ID:      bulletID(m.nextID),
			Section: op.Section,
			Content: content,
		})
		m.nextID++
		added++
	}
	return added
}
