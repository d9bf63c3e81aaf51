package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/internal/session"
)

// DeleteSessionHandler removes a session's uploads, results and progress.
func DeleteSessionHandler(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	mgr := c.(*middleware.AppContext).App.Sessions
	if err := mgr.Delete(sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Session deleted"})
}

// ClearSessionsHandler removes every session.
func ClearSessionsHandler(c echo.Context) error {
	mgr := c.(*middleware.AppContext).App.Sessions
	if err := mgr.Clear(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Sessions cleared"})
}
