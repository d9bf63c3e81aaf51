package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
)

// GetPlaybooksHandler summarizes every playbook instance.
func GetPlaybooksHandler(c echo.Context) error {
	type playbookSummary struct {
		Type            playbook.Type `json:"type"`
		Rules           int           `json:"rules"`
		Processed       int           `json:"processed"`
		Correct         int           `json:"correct"`
		PlaybookUpdates int           `json:"playbook_updates"`
		Accuracy        float64       `json:"accuracy"`
	}

	app := c.(*middleware.AppContext).App

	summaries := make([]playbookSummary, 0, len(playbook.Types))
	for _, mgr := range app.Playbooks.All() {
		metrics := mgr.MetricsSnapshot()
		summary := playbookSummary{
			Type:            mgr.Type(),
			Rules:           len(mgr.Bullets()),
			Processed:       metrics.Processed,
			Correct:         metrics.Correct,
			PlaybookUpdates: metrics.PlaybookUpdates,
		}
		if len(metrics.History) > 0 {
			summary.Accuracy = metrics.History[len(metrics.History)-1].Accuracy
		}
		summaries = append(summaries, summary)
	}

	return c.JSON(http.StatusOK, summaries)
}

// GetRulesHandler lists the bullets of one playbook with their net scores.
func GetRulesHandler(c echo.Context) error {
	type ruleResponse struct {
		ID      string  `json:"id"`
		Section string  `json:"section"`
		Content string  `json:"content"`
		Helpful int     `json:"helpful"`
		Harmful int     `json:"harmful"`
		Score   float64 `json:"score"`
	}

	app := c.(*middleware.AppContext).App
	mgr, err := app.Playbooks.Get(playbook.Type(c.QueryParam("type")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown playbook type"})
	}

	bullets := mgr.Bullets()
	rules := make([]ruleResponse, 0, len(bullets))
	for _, b := range bullets {
		rules = append(rules, ruleResponse{
			ID:      b.ID,
			Section: b.Section,
			Content: b.Content,
			Helpful: b.Helpful,
			Harmful: b.Harmful,
			Score:   b.Score(),
		})
	}

	return c.JSON(http.StatusOK, rules)
}

// GetDatasetsHandler lists pending learning samples waiting for ground
// truth confirmation.
func GetDatasetsHandler(c echo.Context) error {
	type datasetEntry struct {
		Session string `json:"session"`
		File    string `json:"file"`
		Path    string `json:"path"`
	}

	app := c.(*middleware.AppContext).App

	entries := make([]datasetEntry, 0)
	root := app.SamplesRoot
	if root == "" {
		root = "ace_samples"
	}
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "pending_") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		entries = append(entries, datasetEntry{
			Session: filepath.Base(filepath.Dir(path)),
			File:    name,
			Path:    path,
		})
		return nil
	})

	return c.JSON(http.StatusOK, entries)
}
