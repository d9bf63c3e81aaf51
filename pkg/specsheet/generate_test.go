package specsheet

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/ai/aitest"
)

const outdoorBOM = "HL0105010202020960301011"

func testGenerator(client ai.Client, root string) *Generator {
	return &Generator{
		AI:          client,
		ResultsRoot: filepath.Join(root, "manual_ocr_results"),
		SamplesRoot: filepath.Join(root, "ace_samples"),
		UploadsRoot: filepath.Join(root, "manual_uploads"),
	}
}

func validSheetJSON(t *testing.T, title string) string {
	t.Helper()
	data := Default(title)
	data.Features.Jets = "42 jets"
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestGenerateEmptyDocsDecodesBOM(t *testing.T) {
	var gotPrompt string
	client := &aitest.Client{
		ChatFn: func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error) {
			gotPrompt = messages[0].Message
			if opts.Temperature != 0.1 {
				t.Fatalf("temperature = %f", opts.Temperature)
			}
			return validSheetJSON(t, "Aurora 5"), nil
		},
	}
	gen := testGenerator(client, t.TempDir())

	result, err := gen.Generate(context.Background(), Request{
		Documents:   nil,
		ProductName: "Aurora 5",
		BOMCode:     outdoorBOM,
		BOMType:     "outdoor",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotPrompt, "BOM configuration") {
		t.Fatalf("prompt missing BOM summary: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "系列: 01（尊享系列）") {
		t.Fatalf("prompt missing decoded line: %q", gotPrompt)
	}
	if result.Data.ProductTitle != "Aurora 5" {
		t.Fatalf("title = %q", result.Data.ProductTitle)
	}
	for _, entry := range result.Data.PremiumFeatures {
		if entry == "" {
			t.Fatal("list field contains empty string")
		}
	}
}

func TestGenerateFallbackOnModelFailure(t *testing.T) {
	client := &aitest.Client{
		ChatFn: func([]ai.ChatMessage, ai.GenerateOptions) (string, error) {
			return "", errors.New("provider down")
		},
	}
	gen := testGenerator(client, t.TempDir())

	result, err := gen.Generate(context.Background(), Request{ProductName: "Aurora 5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.FromFallback {
		t.Fatal("expected fallback sheet")
	}
	if result.Data.ProductTitle != "Aurora 5" {
		t.Fatalf("fallback title = %q", result.Data.ProductTitle)
	}
	if result.Data.Measurements != Placeholder {
		t.Fatalf("fallback measurements = %q", result.Data.Measurements)
	}
}

func TestGenerateStrictRetryOnParseFailure(t *testing.T) {
	calls := 0
	client := &aitest.Client{
		ChatFn: func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error) {
			calls++
			if calls == 1 {
				return "I think the answer might be...", nil
			}
			if !strings.Contains(messages[0].Message, "JSON object only") {
				t.Fatalf("retry prompt not strict: %q", messages[0].Message)
			}
			return "```json\n" + validSheetJSON(t, "Aurora 5") + "\n```", nil
		},
	}
	gen := testGenerator(client, t.TempDir())

	result, err := gen.Generate(context.Background(), Request{ProductName: "Aurora 5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", calls)
	}
	if result.FromFallback {
		t.Fatal("retry should have produced a parsed sheet")
	}
	if result.Data.Features.Jets != "42 jets" {
		t.Fatalf("jets = %q", result.Data.Features.Jets)
	}
}

func TestGeneratePersistsArtifacts(t *testing.T) {
	client := &aitest.Client{
		ChatFn: func([]ai.ChatMessage, ai.GenerateOptions) (string, error) {
			return validSheetJSON(t, "Aurora 5"), nil
		},
	}
	root := t.TempDir()
	gen := testGenerator(client, root)

	_, err := gen.Generate(context.Background(), Request{
		ProductName: "Aurora 5",
		BOMCode:     outdoorBOM,
		BOMType:     "outdoor",
		SessionID:   "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := filepath.Join(root, "manual_ocr_results", "Aurora_5_"+outdoorBOM)
	raw, err := os.ReadFile(filepath.Join(dir, "truth", "specsheet.json"))
	if err != nil {
		t.Fatalf("specsheet.json not written: %v", err)
	}
	var saved Data
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("saved sheet invalid: %v", err)
	}
	if saved.ProductTitle != "Aurora 5" {
		t.Fatalf("saved title = %q", saved.ProductTitle)
	}
	for _, name := range []string{"question_spec.txt", "context_spec.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}

	samplePath := filepath.Join(root, "ace_samples", "sess-1", "pending_"+outdoorBOM+".json")
	sampleRaw, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("pending sample not written: %v", err)
	}
	var sample PendingSample
	if err := json.Unmarshal(sampleRaw, &sample); err != nil {
		t.Fatalf("pending sample invalid: %v", err)
	}
	if sample.Prediction.ProductTitle != "Aurora 5" {
		t.Fatalf("sample prediction title = %q", sample.Prediction.ProductTitle)
	}

	loaded, err := Load(filepath.Join(root, "manual_ocr_results"), "Aurora 5", outdoorBOM)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Features.Jets != "42 jets" {
		t.Fatalf("loaded jets = %q", loaded.Features.Jets)
	}
}

func TestArchiveSampleKeepsAuditCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pending_"+outdoorBOM+".json")
	if err := os.WriteFile(path, []byte(`{"question": "q"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	archived, err := ArchiveSample(path)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("pending file should be gone after archiving")
	}

	base := filepath.Base(archived)
	if !strings.HasPrefix(base, "ace_sample_"+outdoorBOM+"_") || !strings.HasSuffix(base, ".json") {
		t.Fatalf("archive name = %q", base)
	}
	raw, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	if string(raw) != `{"question": "q"}` {
		t.Fatalf("archive content = %q", raw)
	}

	if _, err := ArchiveSample(filepath.Join(dir, "specsheet.json")); err == nil {
		t.Fatal("non-pending files must be rejected")
	}
}
