package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/progress"
	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/internal/session"
)

func ListSessionsHandler(c echo.Context) error {
	mgr := c.(*middleware.AppContext).App.Sessions
	records, err := mgr.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, records)
}

func GetSessionHandler(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	mgr := c.(*middleware.AppContext).App.Sessions
	record, err := mgr.Get(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, record)
}

// GetProgressHandler reports the live run state for a session. Before a
// run starts the bus has no entry; the session record's status stands in.
func GetProgressHandler(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	state, err := app.Bus.Get(sessionID)
	if err == nil {
		return c.JSON(http.StatusOK, state)
	}

	record, recErr := app.Sessions.Get(sessionID)
	if recErr != nil {
		if errors.Is(recErr, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": recErr.Error()})
	}

	return c.JSON(http.StatusOK, progress.State{
		ProductName: record.ProductName,
		Status:      record.Status,
		Error:       record.Error,
	})
}
