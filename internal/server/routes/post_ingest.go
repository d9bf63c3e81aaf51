package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/ingest"
	"github.com/hydroluxe/prodkb/backend/internal/queue"
	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/internal/util"
)

// IngestHandler runs (or enqueues) a directory ingest. With async set the
// job goes through the work queue and the response only acknowledges it.
func IngestHandler(c echo.Context) error {
	type ingestParams struct {
		Root       string `json:"root" validate:"required"`
		OutputRoot string `json:"output_root"`
		Limit      int    `json:"limit"`
		DryRun     bool   `json:"dry_run"`
		Resume     *bool  `json:"resume"`
		Force      bool   `json:"force"`
		Async      bool   `json:"async"`
	}

	params := new(ingestParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	resume := true
	if params.Resume != nil {
		resume = *params.Resume
	}

	app := c.(*middleware.AppContext).App

	if params.Async {
		msg := queue.IngestJobMsg{
			Root:   params.Root,
			Limit:  params.Limit,
			Resume: resume,
			Force:  params.Force,
		}
		msgBytes, err := json.Marshal(msg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
		if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msgBytes); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue ingest job"})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Ingest job queued"})
	}

	runner := &ingest.Runner{
		Graph:          app.Graph,
		AI:             app.AiClient,
		EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
	}

	stats, err := runner.Run(c.Request().Context(), ingest.Options{
		Root:       params.Root,
		OutputRoot: params.OutputRoot,
		Limit:      params.Limit,
		DryRun:     params.DryRun,
		Resume:     resume,
		Force:      params.Force,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}
