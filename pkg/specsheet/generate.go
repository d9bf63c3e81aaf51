package specsheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/bom"
	"github.com/hydroluxe/prodkb/backend/pkg/graph"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

// ErrNotFound signals that no saved specsheet exists for a product.
var ErrNotFound = errors.New("specsheet: not found")

// Catalog is the slice of the graph the generator reads and writes.
type Catalog interface {
	ProductConfig(ctx context.Context, productID string) (string, error)
	AccessoryGlossary(ctx context.Context, bomID string) ([]graph.Accessory, error)
	LinkGeneratedDoc(ctx context.Context, productID, role, path string) error
}

// RuleSource supplies the current playbook rules, newest last. limit 0
// means all.
type RuleSource interface {
	ActiveRules(limit int) []string
}

// Request describes one extraction run.
type Request struct {
	Documents   []string `json:"documents"`
	ProductName string   `json:"product_name"`
	BOMCode     string   `json:"bom_code"`
	BOMType     string   `json:"bom_type"`
	SessionID   string   `json:"session_id"`
	LLMModel    string   `json:"llm_model"`
}

// Result carries the extracted specsheet plus the prompts that produced it.
type Result struct {
	Data         Data   `json:"data"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	ContextText  string `json:"context_text"`
	// FromFallback is set when parsing failed twice and the deterministic
	// default was returned instead.
	FromFallback bool `json:"from_fallback"`
}

// Generator runs specsheet extraction.
type Generator struct {
	AI      ai.Client
	Catalog Catalog
	Rules   RuleSource
	// ResultsRoot holds per-product artifacts; defaults to
	// "manual_ocr_results".
	ResultsRoot string
	// SamplesRoot holds pending learning samples; defaults to
	// "ace_samples".
	SamplesRoot string
	// UploadsRoot locates raw session uploads; defaults to
	// "manual_uploads".
	UploadsRoot string
	// TimeoutSec bounds the extraction call; 0 means 180.
	TimeoutSec int
}

const systemPromptHead = `You are a product specification extractor for hydrotherapy products.
Return ONLY a JSON object with exactly these top-level keys:
  "productTitle": string
  "features": {"capacity": string, "jets": string, "pumps": string}
  "measurements": string
  "premiumFeatures": array of strings
  "insulationFeatures": array of strings
  "extraFeatures": array of strings
  "Specifications": array of exactly six single-key objects, in this order:
    [{"CabinetColor": string}, {"ShellColor": string}, {"DryWeight": string},
     {"WaterCapacity": string}, {"Pump": string}, {"Controls": string}]
  "smartWater": array of strings
  "images": {"product": string, "background": string}
Rules:
- Never invent values. When the material does not answer a field, write "待填写".
- Output values in English, keeping proper nouns and model names as written.
- List fields must not contain empty strings.`

const strictRetrySuffix = `
The previous answer was not valid JSON. Respond with the JSON object only,
no commentary, no code fences.`

func (g *Generator) resultsRoot() string {
	if g.ResultsRoot != "" {
		return g.ResultsRoot
	}
	return "manual_ocr_results"
}

func (g *Generator) samplesRoot() string {
	if g.SamplesRoot != "" {
		return g.SamplesRoot
	}
	return "ace_samples"
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
			prompt += "\n\nHigh-priority extraction rules learned from past runs. They override the defaults above:\n"
			for _, rule := range rules {
				prompt += "- " + rule + "\n"
			}
		}
	}
	return prompt
}

func (g *Generator) buildUserPrompt(ctx context.Context, req Request, assembled Context) string {
	var b strings.Builder

	if g.Catalog != nil && req.ProductName != "" {
		if configText, err := g.Catalog.ProductConfig(ctx, req.ProductName); err == nil && configText != "" {
			b.WriteString("## 产品配置（权威，中文）\n")
			b.WriteString(configText)
			b.WriteString("\n\n")
		}
		if req.BOMCode != "" {
			if glossary, err := g.Catalog.AccessoryGlossary(ctx, req.BOMCode); err == nil && len(glossary) > 0 {
				b.WriteString("## Accessory glossary (authoritative zh -> en)\n")
				for _, acc := range glossary {
					b.WriteString(acc.Name)
					b.WriteString(" -> ")
					b.WriteString(acc.Description)
					b.WriteString("\n")
				}
				b.WriteString("\n")
			}
		}
	}

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

	b.WriteString("Extract the specsheet")
	if req.ProductName != "" {
		b.WriteString(" for ")
		b.WriteString(req.ProductName)
	}
	b.WriteString(" as the JSON object described in the system prompt.")
	return b.String()
}

// Generate assembles the context, calls the model once (retrying once with
// a stricter instruction on a parse failure), normalizes the output, and
// persists artifacts when product and BOM identify a target directory.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.AI == nil {
		return nil, fmt.Errorf("specsheet: no model client configured")
	}

	sessionDir := ""
	if req.SessionID != "" {
		sessionDir = filepath.Join(g.uploadsRoot(), util.SanitizeName(req.SessionID))
	}
	assembled := Assemble(req.Documents, sessionDir, util.GetEnvInt("SPEC_CONTEXT_MAX_CHARS", 0))

	systemPrompt := g.buildSystemPrompt()
	userPrompt := g.buildUserPrompt(ctx, req, assembled)

	timeout := g.TimeoutSec
	if timeout <= 0 {
		timeout = 180
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

	result := &Result{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		ContextText:  assembled.Text,
	}

	data, err := g.extract(ctx, userPrompt, images, opts)
	if err != nil {
		logger.Warn("specsheet extraction failed, using defaults", "error", err, "product", req.ProductName)
		fallback := Default(req.ProductName)
		result.Data = fallback
		result.FromFallback = true
	} else {
		Normalize(data)
		result.Data = *data
	}

	if err := g.persist(ctx, req, result); err != nil {
		logger.Warn("failed to persist specsheet artifacts", "error", err)
	}
	return result, nil
}

func (g *Generator) extract(ctx context.Context, userPrompt string, images []string, opts []ai.GenerateOption) (*Data, error) {
	messages := []ai.ChatMessage{{Role: "user", Message: userPrompt, Images: images}}

	raw, err := g.AI.GenerateChat(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	var data Data
	if err := ai.UnmarshalFlexible(ai.StripFences(raw), &data); err == nil {
		return &data, nil
	}

	// One strict retry before falling back to defaults.
	messages[0].Message = userPrompt + strictRetrySuffix
	raw, err = g.AI.GenerateChat(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if err := ai.UnmarshalFlexible(ai.StripFences(raw), &data); err != nil {
		return nil, fmt.Errorf("specsheet: parse model output: %w", err)
	}
	return &data, nil
}

// PendingSample is a queued learning example for the playbook engine.
type PendingSample struct {
	Question   string `json:"question"`
	Context    string `json:"context"`
	Prediction Data   `json:"prediction"`
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

	payload, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return err
	}
	sheetPath := filepath.Join(truthDir, "specsheet.json")
	if err := os.WriteFile(sheetPath, payload, 0o644); err != nil {
		return err
	}

	base := filepath.Join(g.resultsRoot(), dirName)
	if err := os.WriteFile(filepath.Join(base, "question_spec.txt"), []byte(result.SystemPrompt), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(base, "context_spec.txt"), []byte(result.UserPrompt), 0o644); err != nil {
		return err
	}

	if g.Catalog != nil {
		err := util.RetryErrWithContext(ctx, 3, time.Second, func(ctx context.Context) error {
			return g.Catalog.LinkGeneratedDoc(ctx, req.ProductName, "specsheet", sheetPath)
		})
		if err != nil {
			logger.Warn("failed to link specsheet in graph", "error", err, "product", req.ProductName)
		}
	}

	if req.SessionID != "" {
		sample := PendingSample{
			Question:   result.SystemPrompt,
			Context:    result.UserPrompt,
			Prediction: result.Data,
		}
		sampleDir := filepath.Join(g.samplesRoot(), util.SanitizeName(req.SessionID))
		if err := os.MkdirAll(sampleDir, 0o755); err != nil {
			return err
		}
		samplePayload, err := json.MarshalIndent(sample, "", "  ")
		if err != nil {
			return err
		}
		name := "pending_" + util.SanitizeName(req.BOMCode) + ".json"
		if err := os.WriteFile(filepath.Join(sampleDir, name), samplePayload, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveSample renames a pending sample file to an ace_sample_<bom>_<ts>.json
// audit copy in the same directory, so consumed or cleared samples remain
// inspectable. It returns the archive path.
func ArchiveSample(path string) (string, error) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "pending_") || !strings.HasSuffix(name, ".json") {
		return "", fmt.Errorf("specsheet: %s is not a pending sample", path)
	}
	bom := strings.TrimSuffix(strings.TrimPrefix(name, "pending_"), ".json")
	archived := filepath.Join(filepath.Dir(path),
		fmt.Sprintf("ace_sample_%s_%d.json", bom, time.Now().UnixMilli()))
	if err := os.Rename(path, archived); err != nil {
		return "", err
	}
	return archived, nil
}

// Load reads a saved specsheet from the truth or generate directory of a
// product, truth taking priority.
func Load(resultsRoot, productName, bomCode string) (*Data, error) {
	dirName := util.SanitizeName(productName) + "_" + util.SanitizeName(bomCode)
	for _, sub := range []string{"truth", "generate"} {
		path := filepath.Join(resultsRoot, dirName, sub, "specsheet.json")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var data Data
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("specsheet: decode %s: %w", path, err)
		}
		return &data, nil
	}
	return nil, fmt.Errorf("%w for %s %s", ErrNotFound, productName, bomCode)
}
