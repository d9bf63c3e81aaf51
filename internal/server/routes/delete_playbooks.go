package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
	"github.com/hydroluxe/prodkb/backend/pkg/specsheet"
)

// DeleteRuleHandler removes one bullet. Its id is never reused.
func DeleteRuleHandler(c echo.Context) error {
	ruleID := c.Param("id")
	if ruleID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	mgr, err := app.Playbooks.Get(playbook.Type(c.QueryParam("type")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown playbook type"})
	}

	if err := mgr.RemoveRule(ruleID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Rule not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Rule removed"})
}

// DeleteDatasetsHandler clears every pending learning sample. Each one is
// renamed to a timestamped ace_sample audit copy rather than deleted.
func DeleteDatasetsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	root := app.SamplesRoot
	if root == "" {
		root = "ace_samples"
	}

	archived := 0
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "pending_") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		if _, err := specsheet.ArchiveSample(path); err == nil {
			archived++
		}
		return nil
	})

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "Pending samples archived",
		"archived": archived,
	})
}
