package server

import (
	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Ingestion routes
	apiRoutes.POST("/ingest", routes.IngestHandler)

	// OCR session routes
	apiRoutes.POST("/sessions/init", routes.InitSessionHandler)
	apiRoutes.POST("/sessions/:id/uploads", routes.AppendUploadsHandler)
	apiRoutes.POST("/sessions/:id/ocr", routes.RunOCRHandler)
	apiRoutes.GET("/sessions", routes.ListSessionsHandler)
	apiRoutes.GET("/sessions/:id", routes.GetSessionHandler)
	apiRoutes.GET("/sessions/:id/progress", routes.GetProgressHandler)
	apiRoutes.DELETE("/sessions/:id", routes.DeleteSessionHandler)
	apiRoutes.DELETE("/sessions", routes.ClearSessionsHandler)

	// Extraction routes
	apiRoutes.POST("/specsheet/from_ocr_docs", routes.GenerateSpecsheetHandler)
	apiRoutes.GET("/specsheet", routes.GetSpecsheetHandler)
	apiRoutes.POST("/manual/from_ocr_docs", routes.GenerateManualHandler)
	apiRoutes.GET("/manual", routes.GetManualHandler)

	// Playbook routes
	apiRoutes.GET("/playbooks", routes.GetPlaybooksHandler)
	apiRoutes.POST("/playbooks/ace", routes.RunAceHandler)
	apiRoutes.GET("/playbooks/rules", routes.GetRulesHandler)
	apiRoutes.DELETE("/playbooks/rules/:id", routes.DeleteRuleHandler)
	apiRoutes.GET("/playbooks/datasets", routes.GetDatasetsHandler)
	apiRoutes.DELETE("/playbooks/datasets", routes.DeleteDatasetsHandler)
}
