package playbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type playbookSnapshot struct {
	Type     Type     `json:"type"`
	NextID   int      `json:"next_id"`
	Sections []string `json:"sections"`
	Bullets  []Bullet `json:"bullets"`
}

func writeFileAtomic(path string, payload []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// saveLocked snapshots playbook and metrics. Callers must hold the mutex;
// the snapshot completes before the mutex is released so readers see
// either the old or the new pair.
func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(m.resultsDir, 0o755); err != nil {
		return fmt.Errorf("playbook: create results dir: %w", err)
	}

	snap := playbookSnapshot{
		Type:     m.playbookType,
		NextID:   m.nextID,
		Sections: m.sections,
		Bullets:  m.bullets,
	}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(m.resultsDir, "ace_playbook.json"), payload); err != nil {
		return fmt.Errorf("playbook: write snapshot: %w", err)
	}

	metricsPayload, err := json.MarshalIndent(m.metrics, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(m.resultsDir, "metrics.json"), metricsPayload); err != nil {
		return fmt.Errorf("playbook: write metrics: %w", err)
	}
	return nil
}

// SaveResults forces a snapshot, for use at shutdown.
func (m *Manager) SaveResults() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

// load restores a previous snapshot if one exists. next_id is taken from
// the snapshot or, for older snapshots without it, derived from the
// highest bullet id so ids keep increasing.
func (m *Manager) load() error {
	raw, err := os.ReadFile(filepath.Join(m.resultsDir, "ace_playbook.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("playbook: read snapshot: %w", err)
	}
	var snap playbookSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("playbook: decode snapshot: %w", err)
	}
	m.bullets = snap.Bullets
	if snap.NextID > 0 {
		m.nextID = snap.NextID
	} else {
		max := 0
		for _, b := range m.bullets {
			var n int
			if _, err := fmt.Sscanf(b.ID, "ctx-%05d", &n); err == nil && n > max {
				max = n
			}
		}
		m.nextID = max + 1
	}
	if len(snap.Sections) > 0 {
		m.sections = snap.Sections
	}

	metricsRaw, err := os.ReadFile(filepath.Join(m.resultsDir, "metrics.json"))
	if err == nil {
		var metrics Metrics
		if err := json.Unmarshal(metricsRaw, &metrics); err != nil {
			return fmt.Errorf("playbook: decode metrics: %w", err)
		}
		m.metrics = metrics
		m.metrics.recompute()
	}
	return nil
}
