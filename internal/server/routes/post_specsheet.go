package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
	"github.com/hydroluxe/prodkb/backend/pkg/specsheet"
)

// GenerateSpecsheetHandler extracts a specsheet from a session's OCR
// documents and persists it under the product's truth directory.
func GenerateSpecsheetHandler(c echo.Context) error {
	req := new(specsheet.Request)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if req.ProductName == "" || req.BOMCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_name and bom_code are required"})
	}

	app := c.(*middleware.AppContext).App

	rules, err := app.Playbooks.Get(playbook.TypeSpec)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	generator := &specsheet.Generator{
		AI:          app.AiClient,
		Catalog:     app.Graph,
		Rules:       rules,
		ResultsRoot: app.ResultsRoot,
		SamplesRoot: app.SamplesRoot,
	}

	result, err := generator.Generate(c.Request().Context(), *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":          result.Data,
		"from_fallback": result.FromFallback,
	})
}

// GetSpecsheetHandler returns the saved specsheet, preferring the
// user-confirmed truth copy over the generated one.
func GetSpecsheetHandler(c echo.Context) error {
	productName := c.QueryParam("product_name")
	bomCode := c.QueryParam("bom_code")
	if productName == "" || bomCode == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_name and bom_code are required"})
	}

	app := c.(*middleware.AppContext).App
	data, err := specsheet.Load(app.ResultsRoot, productName, bomCode)
	if err != nil {
		if errors.Is(err, specsheet.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Specsheet not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, data)
}
