package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydroluxe/prodkb/backend/internal/progress"
	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

// Transient provider failures on a page are retried before the whole
// session is failed.
const (
	ocrTries      = 3
	ocrRetryDelay = 2 * time.Second
)

const ocrPrompt = `Transcribe this document page to Markdown. Keep headings,
lists and tables. Transcribe Chinese text as written. Describe figures in
one bracketed line where they appear. Output the Markdown only.`

const promptReversePrompt = `Describe this product image as a detailed
generation prompt: subject, setting, colors, materials, viewing angle.
One paragraph, no preamble.`

// Run executes the OCR pipeline for a session: rasterize every upload, OCR
// each page, optionally derive prompt-reverse descriptions, and assemble
// artifact groups. Progress is reported through the bus; cancellation is
// honored between pages.
func (m *Manager) Run(ctx context.Context, sessionID string) error {
	record, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	total := 0
	sources := map[string][]string{}
	for _, label := range uploadLabels {
		files, err := listFiles(filepath.Join(m.uploadDir(sessionID), label))
		if err != nil {
			return err
		}
		sources[label] = files
		total += len(files)
	}

	if m.Bus != nil {
		m.Bus.Start(sessionID, record.ProductName, total)
		_ = m.Bus.MarkRunning(sessionID)
	}
	record.Status = progress.StatusRunning
	record.Groups = nil
	if err := m.save(record); err != nil {
		return err
	}

	runErr := m.runPipeline(ctx, sessionID, record, sources)
	if runErr != nil {
		record.Status = progress.StatusException
		record.Error = runErr.Error()
		if m.Bus != nil {
			_ = m.Bus.MarkComplete(sessionID, false, runErr.Error())
		}
		_ = m.save(record)
		return runErr
	}

	record.Status = progress.StatusSuccess
	record.Error = ""
	if err := m.save(record); err != nil {
		return err
	}
	if m.Bus != nil {
		_ = m.Bus.MarkComplete(sessionID, true, "")
	}
	return nil
}

func (m *Manager) runPipeline(ctx context.Context, sessionID string, record *Record, sources map[string][]string) error {
	promptReverse := util.GetEnvBool("MANUAL_OCR_AUTO_PROMPT_REVERSE", true)

	for _, label := range uploadLabels {
		for _, sourcePath := range sources[label] {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if m.Bus != nil && m.Bus.Cancelled(sessionID) {
				return fmt.Errorf("session: cancelled")
			}
			m.update(sessionID, func(s *progress.State) {
				s.CurrentFile = filepath.Base(sourcePath)
				s.Detail = "rasterizing"
			})

			stem := util.SanitizeName(strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)))
			outDir := filepath.Join(m.resultDir(sessionID), label, stem)
			pages, err := rasterize(ctx, sourcePath, outDir)
			if err != nil {
				return err
			}

			m.update(sessionID, func(s *progress.State) {
				s.OCRTotals += len(pages)
				s.Detail = "ocr"
			})
			if err := m.ocrPages(ctx, sessionID, pages); err != nil {
				return err
			}

			if promptReverse && m.Vision != nil {
				m.update(sessionID, func(s *progress.State) { s.Detail = "prompt reverse" })
				m.promptReversePages(ctx, pages)
			}

			group, err := m.assembleGroup(sessionID, label, sourcePath, outDir, pages)
			if err != nil {
				return err
			}
			record.Groups = append(record.Groups, *group)

			m.update(sessionID, func(s *progress.State) {
				s.ProcessedFiles++
				s.Detail = "done"
			})
		}
	}
	return nil
}

// ocrPages transcribes page images to sibling .mmd files, a bounded number
// in flight at once. A single page failure fails the run.
func (m *Manager) ocrPages(ctx context.Context, sessionID string, pages []string) error {
	if m.Vision == nil {
		return fmt.Errorf("session: no vision client configured")
	}
	parallel := m.OCRParallel
	if parallel <= 0 {
		parallel = 2
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	var mu sync.Mutex

	for _, page := range pages {
		group.Go(func() error {
			if m.Bus != nil && m.Bus.Cancelled(sessionID) {
				return fmt.Errorf("session: cancelled")
			}
			m.update(sessionID, func(s *progress.State) {
				s.CurrentFile = filepath.Base(page)
			})

			payload, err := imagePayload(page)
			if err != nil {
				return err
			}
			text, err := util.RetryWithContext(groupCtx, ocrTries, ocrRetryDelay,
				func(ctx context.Context) (string, error) {
					return m.Vision.GenerateImageDescription(ctx, ocrPrompt, payload)
				})
			if err != nil {
				return fmt.Errorf("session: ocr %s: %w", filepath.Base(page), err)
			}

			target := strings.TrimSuffix(page, filepath.Ext(page)) + ".mmd"
			if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
				return err
			}

			mu.Lock()
			m.update(sessionID, func(s *progress.State) { s.OCRCompleted++ })
			mu.Unlock()
			return nil
		})
	}
	return group.Wait()
}

// promptReversePages writes a sibling .txt description per page image.
// Failures are logged and skipped; descriptions are an enhancement, not a
// pipeline stage that may fail the run.
func (m *Manager) promptReversePages(ctx context.Context, pages []string) {
	for _, page := range pages {
		payload, err := imagePayload(page)
		if err != nil {
			logger.Warn("prompt reverse skipped", "page", filepath.Base(page), "error", err)
			continue
		}
		text, err := m.Vision.GenerateImageDescription(ctx, promptReversePrompt, payload)
		if err != nil {
			logger.Warn("prompt reverse failed", "page", filepath.Base(page), "error", err)
			continue
		}
		target := strings.TrimSuffix(page, filepath.Ext(page)) + ".txt"
		if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
			logger.Warn("prompt reverse write failed", "page", filepath.Base(page), "error", err)
		}
	}
}

// assembleGroup walks the per-source OCR directory and classifies every
// artifact by suffix.
func (m *Manager) assembleGroup(sessionID, label, sourcePath, outDir string, pages []string) (*Group, error) {
	group := &Group{
		Source: filepath.Base(sourcePath),
		Label:  label,
		Pages:  pages,
	}
	err := filepath.WalkDir(outDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		group.Artifacts = append(group.Artifacts, Artifact{
			Path: path,
			Kind: ArtifactKind(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(group.Artifacts, func(i, j int) bool {
		return group.Artifacts[i].Path < group.Artifacts[j].Path
	})
	return group, nil
}

// ArtifactKind classifies an OCR artifact by its suffix.
func ArtifactKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return "image"
	case ".mmd", ".md":
		return "markdown"
	case ".svg":
		return "diagram"
	default:
		return "file"
	}
}

func (m *Manager) update(sessionID string, fn func(*progress.State)) {
	if m.Bus == nil {
		return
	}
	_ = m.Bus.Update(sessionID, fn)
}

func imagePayload(path string) (ai.ImagePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.ImagePayload{}, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return ai.ImagePayload{
		Base64: base64.StdEncoding.EncodeToString(data),
		Prefix: "data:" + mimeType + ";base64,",
	}, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}
