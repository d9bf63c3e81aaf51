package manual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/bom"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
	"github.com/hydroluxe/prodkb/backend/pkg/specsheet"
)

// ErrNotFound signals that no saved manual book exists for a product.
var ErrNotFound = errors.New("manual: not found")

// DocLinker records a generated artifact against its product.
type DocLinker interface {
	LinkGeneratedDoc(ctx context.Context, productID, role, path string) error
}

// RuleSource supplies the current playbook rules for the manual type.
type RuleSource interface {
	ActiveRules(limit int) []string
}

// Request describes one manual-book generation run.
type Request struct {
	Documents   []string `json:"documents"`
	ProductName string   `json:"product_name"`
	BOMCode     string   `json:"bom_code"`
	BOMType     string   `json:"bom_type"`
	SessionID   string   `json:"session_id"`
	LLMModel    string   `json:"llm_model"`
}

// Result carries the generated book plus the prompts that produced it.
type Result struct {
	Book         Book   `json:"book"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	FromFallback bool   `json:"from_fallback"`
}

// Generator runs manual-book generation.
type Generator struct {
	AI          ai.Client
	Linker      DocLinker
	Rules       RuleSource
	ResultsRoot string
	UploadsRoot string
	// TimeoutSec bounds the generation call; 0 means 240.
	TimeoutSec int
}

var systemPromptHead = `You are a technical writer producing an owner's manual for a hydrotherapy product.
Return ONLY a JSON array of page objects: {"header": string, "blocks": [...]}.
Each block is an object with a "type" field, one of:
  heading, paragraph, list, image, image-left, image-right, contents,
  callout, steps, grid2, grid4, spec-box, ts-section, troubleTable, cover.
The finished book has exactly these pages, in order:
  ` + strings.Join(TargetHeaders, ", ") + `.
Rules:
- Never invent safety figures or specifications absent from the material; write "待填写".
- Troubleshooting tables use rows of [problem, cause, remedy].
- Output values in English, keeping proper nouns and model names as written.`

func (g *Generator) resultsRoot() string {
	if g.ResultsRoot != "" {
		return g.ResultsRoot
	}
	return "manual_ocr_results"
}

func (g *Generator) uploadsRoot() string {
	if g.UploadsRoot != "" {
		return g.UploadsRoot
	}
	return "manual_uploads"
}

func (g *Generator) buildSystemPrompt() string {
	prompt := systemPromptHead
	if g.Rules != nil {
		limit := util.GetEnvInt("SPEC_PLAYBOOK_RULES_LIMIT", 0)
		rules := g.Rules.ActiveRules(limit)
		if len(rules) > 0 {
			prompt += "\n\nHigh-priority writing rules learned from past runs. They override the defaults above:\n"
			for _, rule := range rules {
				prompt += "- " + rule + "\n"
			}
		}
	}
	return prompt
}

func (g *Generator) buildUserPrompt(req Request, assembled specsheet.Context) string {
	var b strings.Builder
	if req.BOMCode != "" {
		if summary := bom.Summary(req.BOMCode, bom.Type(req.BOMType)); summary != "" {
			b.WriteString("## BOM configuration\n")
			b.WriteString(summary)
			b.WriteString("\n\n")
		}
	}
	if assembled.Text != "" {
		b.WriteString("## Source material (OCR)\n")
		b.WriteString(assembled.Text)
		b.WriteString("\n\n")
	}
	if len(assembled.Images) > 0 {
		b.WriteString("## Candidate images\n")
		for _, img := range assembled.Images {
			b.WriteString(filepath.Base(img.Path))
			if img.Description != "" {
				b.WriteString(": ")
				b.WriteString(img.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Write the manual book")
	if req.ProductName != "" {
		b.WriteString(" for ")
		b.WriteString(req.ProductName)
	}
	b.WriteString(" as the JSON array described in the system prompt.")
	return b.String()
}

// Generate assembles context, calls the model, and reconciles the output
// against the fixed page sequence. Model or parse failure yields the
// deterministic default book.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.AI == nil {
		return nil, fmt.Errorf("manual: no model client configured")
	}

	sessionDir := ""
	if req.SessionID != "" {
		sessionDir = filepath.Join(g.uploadsRoot(), util.SanitizeName(req.SessionID))
	}
	assembled := specsheet.Assemble(req.Documents, sessionDir, util.GetEnvInt("SPEC_CONTEXT_MAX_CHARS", 0))

	systemPrompt := g.buildSystemPrompt()
	userPrompt := g.buildUserPrompt(req, assembled)

	timeout := g.TimeoutSec
	if timeout <= 0 {
		timeout = 240
	}
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(systemPrompt),
		ai.WithTemperature(0.1),
		ai.WithTimeout(timeout),
	}
	if req.LLMModel != "" {
		opts = append(opts, ai.WithModel(req.LLMModel))
	}
	images := make([]string, 0, len(assembled.Images))
	for _, img := range assembled.Images {
		images = append(images, img.Path)
	}

	result := &Result{SystemPrompt: systemPrompt, UserPrompt: userPrompt}

	pages, err := g.generatePages(ctx, userPrompt, images, opts)
	if err != nil {
		logger.Warn("manual generation failed, using defaults", "error", err, "product", req.ProductName)
		result.Book = DefaultBook(req.ProductName)
		result.FromFallback = true
	} else {
		result.Book = Normalize(pages, req.ProductName)
	}

	if err := g.persist(ctx, req, result); err != nil {
		logger.Warn("failed to persist manual artifacts", "error", err)
	}
	return result, nil
}

func (g *Generator) generatePages(ctx context.Context, userPrompt string, images []string, opts []ai.GenerateOption) ([]Page, error) {
	messages := []ai.ChatMessage{{Role: "user", Message: userPrompt, Images: images}}
	raw, err := g.AI.GenerateChat(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	var pages []Page
	if err := ai.UnmarshalFlexible(ai.StripFences(raw), &pages); err != nil {
		// The model sometimes wraps the array in a {"pages": [...]} object.
		var book Book
		if err2 := ai.UnmarshalFlexible(ai.StripFences(raw), &book); err2 != nil || len(book.Pages) == 0 {
			return nil, fmt.Errorf("manual: parse model output: %w", err)
		}
		pages = book.Pages
	}
	return pages, nil
}

func (g *Generator) persist(ctx context.Context, req Request, result *Result) error {
	if req.ProductName == "" || req.BOMCode == "" {
		return nil
	}
	dirName := util.SanitizeName(req.ProductName) + "_" + util.SanitizeName(req.BOMCode)
	truthDir := filepath.Join(g.resultsRoot(), dirName, "truth")
	if err := os.MkdirAll(truthDir, 0o755); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(result.Book, "", "  ")
	if err != nil {
		return err
	}
	bookPath := filepath.Join(truthDir, "manual_book.json")
	if err := os.WriteFile(bookPath, payload, 0o644); err != nil {
		return err
	}

	// Variant snapshot: the header sequence actually produced, kept for
	// comparing layouts across regenerations.
	headers := make([]string, 0, len(result.Book.Pages))
	for _, page := range result.Book.Pages {
		headers = append(headers, page.Header)
	}
	variants, err := json.MarshalIndent(map[string]any{"headers": headers}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(truthDir, "manual_variants.json"), variants, 0o644); err != nil {
		return err
	}

	base := filepath.Join(g.resultsRoot(), dirName)
	if err := os.WriteFile(filepath.Join(base, "question_manual.txt"), []byte(result.SystemPrompt), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(base, "context_manual.txt"), []byte(result.UserPrompt), 0o644); err != nil {
		return err
	}

	if g.Linker != nil {
		if err := g.Linker.LinkGeneratedDoc(ctx, req.ProductName, "manual", bookPath); err != nil {
			logger.Warn("failed to link manual in graph", "error", err, "product", req.ProductName)
		}
	}
	return nil
}

// Load reads a saved manual book, truth taking priority over generate.
func Load(resultsRoot, productName, bomCode string) (*Book, error) {
	dirName := util.SanitizeName(productName) + "_" + util.SanitizeName(bomCode)
	for _, sub := range []string{"truth", "generate"} {
		path := filepath.Join(resultsRoot, dirName, sub, "manual_book.json")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var book Book
		if err := json.Unmarshal(raw, &book); err != nil {
			return nil, fmt.Errorf("manual: decode %s: %w", path, err)
		}
		return &book, nil
	}
	return nil, fmt.Errorf("%w for %s %s", ErrNotFound, productName, bomCode)
}
