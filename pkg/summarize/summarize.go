// Package summarize produces short index summaries for text, tables and
// images. Summaries are best-effort: transient provider failures degrade to
// a placeholder instead of failing the ingestion of a document.
package summarize

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

const (
	maxTextInput    = 20000
	maxTextSummary  = 60
	maxTableLines   = 16
	maxTableLine    = 120
	maxImageSummary = 100

	providerTries = 3

	failedPlaceholder = "summary unavailable"
)

// Shortened in tests.
var providerRetryDelay = 2 * time.Second

const textPrompt = `You index product documentation. Reply with exactly one sentence, at most 60 characters, naming what this document covers. No preamble, no markdown.`

const tablePrompt = `You index product data tables. Reply with at most 16 bullet lines, each at most 120 characters, stating the key facts of the table. No preamble.`

const imagePrompt = `You index product imagery. Describe the image in one short sentence of at most 100 characters, naming the product part or scene shown.`

// Text produces a one-sentence index for a document, clamped to 60
// characters. Falls back to a placeholder when the model is unavailable.
func Text(ctx context.Context, client ai.Client, text string) string {
	text = clampRunes(text, maxTextInput)
	reply, err := util.RetryWithContext(ctx, providerTries, providerRetryDelay,
		func(ctx context.Context) (string, error) {
			return client.GenerateCompletion(ctx, text,
				ai.WithSystemPrompts(textPrompt),
				ai.WithTemperature(0),
			)
		})
	if err != nil {
		logger.Warn("[Summarize] text summary failed", "err", err)
		return failedPlaceholder
	}
	return clampRunes(firstLine(reply), maxTextSummary)
}

// Table produces bullet-style key facts for one pipe table.
func Table(ctx context.Context, client ai.Client, tableMarkdown string) string {
	reply, err := util.RetryWithContext(ctx, providerTries, providerRetryDelay,
		func(ctx context.Context) (string, error) {
			return client.GenerateCompletion(ctx, tableMarkdown,
				ai.WithSystemPrompts(tablePrompt),
				ai.WithTemperature(0),
			)
		})
	if err != nil {
		logger.Warn("[Summarize] table summary failed", "err", err)
		return failedPlaceholder
	}

	lines := strings.Split(strings.TrimSpace(reply), "\n")
	if len(lines) > maxTableLines {
		lines = lines[:maxTableLines]
	}
	for i, line := range lines {
		lines[i] = clampRunes(strings.TrimSpace(line), maxTableLine)
	}
	return strings.Join(lines, "\n")
}

// Image describes image bytes via the vision model, clamped to 100
// characters. When the provider rejects the payload the alt text is used
// instead; with no alt either, a placeholder is returned.
func Image(ctx context.Context, client ai.Client, data []byte, mimeType, alt string) string {
	payload := ai.ImagePayload{
		Base64: base64.StdEncoding.EncodeToString(data),
		Prefix: fmt.Sprintf("data:%s;base64,", mimeType),
	}
	reply, err := util.RetryWithContext(ctx, providerTries, providerRetryDelay,
		func(ctx context.Context) (string, error) {
			return client.GenerateImageDescription(ctx, imagePrompt, payload)
		})
	if err != nil {
		logger.Warn("[Summarize] image summary failed, falling back to alt", "err", err)
		if strings.TrimSpace(alt) != "" {
			return clampRunes("image: "+strings.TrimSpace(alt), maxImageSummary)
		}
		return failedPlaceholder
	}
	return clampRunes(firstLine(reply), maxImageSummary)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func clampRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
