package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hydroluxe/prodkb/backend/internal/ingest"
	"github.com/hydroluxe/prodkb/backend/internal/session"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

// OCRJobMsg asks the worker to run the OCR pipeline for a session.
type OCRJobMsg struct {
	SessionID string `json:"session_id"`
}

// IngestJobMsg asks the worker to ingest a directory of source documents.
type IngestJobMsg struct {
	Root   string `json:"root"`
	Limit  int    `json:"limit,omitempty"`
	Resume bool   `json:"resume"`
	Force  bool   `json:"force"`
}

func ProcessOCRMessage(
	ctx context.Context,
	mgr *session.Manager,
	msgBody string,
) error {
	var data OCRJobMsg
	if err := json.Unmarshal([]byte(msgBody), &data); err != nil {
		return fmt.Errorf("failed to unmarshal OCR job: %w", err)
	}
	if data.SessionID == "" {
		return fmt.Errorf("OCR job has no session id")
	}

	logger.Info("[Queue] Running OCR session", "session_id", data.SessionID)
	if err := mgr.Run(ctx, data.SessionID); err != nil {
		return fmt.Errorf("failed to run OCR session %s: %w", data.SessionID, err)
	}

	logger.Info("[Queue] OCR session finished", "session_id", data.SessionID)
	return nil
}

func ProcessIngestMessage(
	ctx context.Context,
	runner *ingest.Runner,
	msgBody string,
) error {
	var data IngestJobMsg
	if err := json.Unmarshal([]byte(msgBody), &data); err != nil {
		return fmt.Errorf("failed to unmarshal ingest job: %w", err)
	}
	if data.Root == "" {
		return fmt.Errorf("ingest job has no root directory")
	}

	stats, err := runner.Run(ctx, ingest.Options{
		Root:   data.Root,
		Limit:  data.Limit,
		Resume: data.Resume,
		Force:  data.Force,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", data.Root, err)
	}

	logger.Info(
		"[Queue] Ingest finished",
		"root", data.Root,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"unknown", stats.Unknown,
		"errors", len(stats.Errors),
	)
	return nil
}
