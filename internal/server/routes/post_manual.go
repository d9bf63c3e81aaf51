package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/pkg/manual"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
)

// GenerateManualHandler produces the 13-page manual book from a session's
// OCR documents.
func GenerateManualHandler(c echo.Context) error {
	req := new(manual.Request)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if req.ProductName == "" || req.BOMCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_name and bom_code are required"})
	}

	app := c.(*middleware.AppContext).App

	rules, err := app.Playbooks.Get(playbook.TypeManual)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	generator := &manual.Generator{
		AI:          app.AiClient,
		Linker:      app.Graph,
		Rules:       rules,
		ResultsRoot: app.ResultsRoot,
	}

	result, err := generator.Generate(c.Request().Context(), *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"book":          result.Book,
		"from_fallback": result.FromFallback,
	})
}

// GetManualHandler returns the saved manual book, truth taking priority.
func GetManualHandler(c echo.Context) error {
	productName := c.QueryParam("product_name")
	bomCode := c.QueryParam("bom_code")
	if productName == "" || bomCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_name and bom_code are required"})
	}

	app := c.(*middleware.AppContext).App
	book, err := manual.Load(app.ResultsRoot, productName, bomCode)
	if err != nil {
		if errors.Is(err, manual.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Manual not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, book)
}
