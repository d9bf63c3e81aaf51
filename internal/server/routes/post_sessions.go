package routes

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hydroluxe/prodkb/backend/internal/queue"
	"github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/internal/session"
)

// InitSessionHandler creates an OCR session for a product and BOM pair.
func InitSessionHandler(c echo.Context) error {
	params := new(session.InitParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	mgr := c.(*middleware.AppContext).App.Sessions
	record, err := mgr.Init(*params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, record)
}

func readFormFiles(files []*multipart.FileHeader) ([]session.Upload, error) {
	uploads := make([]session.Upload, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, session.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

// AppendUploadsHandler stores multipart files under the session's labeled
// directories. Form field names are "products" and "accessories".
func AppendUploadsHandler(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid multipart form"})
	}

	productFiles, err := readFormFiles(form.File["products"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read uploads"})
	}
	accessoryFiles, err := readFormFiles(form.File["accessories"])
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read uploads"})
	}
	if len(productFiles) == 0 && len(accessoryFiles) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files provided"})
	}

	mgr := c.(*middleware.AppContext).App.Sessions
	if err := mgr.AppendUploads(sessionID, productFiles, accessoryFiles); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":     "Uploads stored",
		"products":    len(productFiles),
		"accessories": len(accessoryFiles),
	})
}

// RunOCRHandler queues the OCR run for a session. The worker picks the job
// up and progress is polled via the progress endpoint.
func RunOCRHandler(c echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if _, err := app.Sessions.Get(sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	msgBytes, err := json.Marshal(queue.OCRJobMsg{SessionID: sessionID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.OCRQueue, msgBytes); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue OCR job"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message":    "OCR run queued",
		"session_id": sessionID,
	})
}
