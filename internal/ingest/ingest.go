// Package ingest walks a document tree, classifies each file to its owner,
// derives summaries and embeddings, and writes the result into the
// knowledge graph. Re-running over the same tree is idempotent.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/chunk"
	"github.com/hydroluxe/prodkb/backend/pkg/classify"
	"github.com/hydroluxe/prodkb/backend/pkg/graph"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
	"github.com/hydroluxe/prodkb/backend/pkg/parse"
	"github.com/hydroluxe/prodkb/backend/pkg/summarize"
)

// minTextLength is the shortest cleaned text worth ingesting.
const minTextLength = 20

// GraphWriter is the slice of the graph client the orchestrator needs.
type GraphWriter interface {
	IsDocumentIngested(ctx context.Context, path string) (bool, error)
	UpsertDocument(ctx context.Context, owner graph.Owner, path, name, mimeType string) error
	UpsertDescription(ctx context.Context, kind graph.DescriptionKind, docPath, storagePath, summary string) error
	UpsertChunks(ctx context.Context, kind graph.DescriptionKind, storagePath, embeddingModel string, chunks []graph.Chunk) error
	UpsertImage(ctx context.Context, docPath, sourcePath, storedPath, summary string) error
	MarkUnknown(ctx context.Context, path, fileType string) error
	ClassifierCandidates(ctx context.Context) (products, accessories []string, err error)
}

// Options controls one ingestion run.
type Options struct {
	Root       string
	OutputRoot string
	// Limit stops after N files; 0 means all.
	Limit  int
	DryRun bool
	Resume bool
	Force  bool
}

// Stats summarizes a run.
type Stats struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Unknown   int      `json:"unknown"`
	Chunks    int      `json:"chunks"`
	Errors    []string `json:"errors,omitempty"`
}

// Runner wires the orchestrator's collaborators.
type Runner struct {
	Graph GraphWriter
	AI    ai.Client
	// EmbeddingModel is recorded on every chunk.
	EmbeddingModel string
	// OnProgress, when set, receives a tick per file and per embedding.
	OnProgress func(stage, name string, done, total int)
}

func (r *Runner) tick(stage, name string, done, total int) {
	if r.OnProgress != nil {
		r.OnProgress(stage, name, done, total)
	}
}

// Run ingests every .md and .json file under opts.Root in lexicographic
// order. A single file's failure is recorded and the loop continues;
// context cancellation stops between files.
func (r *Runner) Run(ctx context.Context, opts Options) (*Stats, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("ingest: root directory required")
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = "data_storage"
	}

	files, err := discover(opts.Root)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(files) > opts.Limit {
		files = files[:opts.Limit]
	}

	stats := &Stats{}
	if opts.DryRun {
		stats.Skipped = len(files)
		for _, path := range files {
			logger.Info("would ingest", "path", path)
		}
		return stats, nil
	}

	products, accessories, err := r.Graph.ClassifierCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: load candidates: %w", err)
	}
	candidates := classify.Candidates{Products: products, Accessories: accessories}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			logger.Info("ingestion interrupted", "processed", stats.Processed)
			return stats, err
		}
		r.tick("file", path, i+1, len(files))

		outcome, err := r.ingestFile(ctx, path, opts, candidates)
		if err != nil {
			logger.Error("ingestion failed for file", "path", path, "error", err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		switch outcome.kind {
		case outcomeSkipped:
			stats.Skipped++
		case outcomeUnknown:
			stats.Unknown++
		case outcomeIngested:
			stats.Processed++
			stats.Chunks += outcome.chunks
		}
	}
	return stats, nil
}

type outcomeKind int

const (
	outcomeSkipped outcomeKind = iota
	outcomeUnknown
	outcomeIngested
)

type outcome struct {
	kind   outcomeKind
	chunks int
}

func (r *Runner) ingestFile(ctx context.Context, path string, opts Options, candidates classify.Candidates) (*outcome, error) {
	if opts.Resume && !opts.Force {
		ingested, err := r.Graph.IsDocumentIngested(ctx, path)
		if err != nil {
			return nil, err
		}
		if ingested {
			return &outcome{kind: outcomeSkipped}, nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed parse.Parsed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parsed, err = parse.ParseJSON(raw)
		if err != nil {
			return nil, err
		}
	default:
		parsed = parse.ParseMarkdown(string(raw))
	}

	if len([]rune(parsed.Text)) < minTextLength {
		return &outcome{kind: outcomeSkipped}, nil
	}

	result := classify.Classify(ctx, r.AI, path, parsed.Text, candidates)
	if result.Label == classify.LabelUnknown {
		if err := r.Graph.MarkUnknown(ctx, path, strings.TrimPrefix(filepath.Ext(path), ".")); err != nil {
			return nil, err
		}
		return &outcome{kind: outcomeUnknown}, nil
	}

	owner := graph.Owner{Kind: graph.OwnerProduct, Key: result.Name}
	if result.Label == classify.LabelAccessory {
		owner.Kind = graph.OwnerAccessory
	}

	written, err := r.writeDocument(ctx, path, opts.OutputRoot, owner, parsed)
	if err != nil {
		return nil, err
	}
	return &outcome{kind: outcomeIngested, chunks: written}, nil
}

// writeDocument persists artifacts, summaries, embeddings and graph nodes
// for one classified file.
func (r *Runner) writeDocument(ctx context.Context, path, outputRoot string, owner graph.Owner, parsed parse.Parsed) (int, error) {
	ownerDir := filepath.Join(outputRoot, util.SanitizeName(owner.Key))
	stem := util.SanitizeName(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	mimeType := "text/markdown"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		mimeType = "application/json"
	}
	if err := r.Graph.UpsertDocument(ctx, owner, path, filepath.Base(path), mimeType); err != nil {
		return 0, err
	}

	textPath, err := storeArtifact(filepath.Join(ownerDir, "text", stem+".txt"), []byte(parsed.Text))
	if err != nil {
		return 0, err
	}
	textSummary := summarize.Text(ctx, r.AI, parsed.Text)

	// Chunks: the index sentence, then the body slices.
	texts := []string{textSummary}
	texts = append(texts, chunk.Split(parsed.Text, chunk.DefaultMaxChars, chunk.DefaultOverlap)...)

	type tableArtifact struct {
		path    string
		summary string
	}
	tables := make([]tableArtifact, 0, len(parsed.Tables))
	for i, table := range parsed.Tables {
		tablePath, err := storeArtifact(
			filepath.Join(ownerDir, "table", fmt.Sprintf("%s_table%d.md", stem, i+1)), []byte(table))
		if err != nil {
			return 0, err
		}
		summary := summarize.Table(ctx, r.AI, table)
		tables = append(tables, tableArtifact{path: tablePath, summary: summary})
		texts = append(texts, summary)
	}

	type imageArtifact struct {
		path    string
		source  string
		summary string
	}
	images := make([]imageArtifact, 0, len(parsed.Images))
	for i, img := range parsed.Images {
		imagePath, err := storeArtifact(
			filepath.Join(ownerDir, "image", fmt.Sprintf("%s_img%d.png", stem, i+1)), img.Data)
		if err != nil {
			return 0, err
		}
		summary := summarize.Image(ctx, r.AI, img.Data, img.Mime, img.Alt)
		source := img.Alt
		if source == "" {
			source = fmt.Sprintf("%s#img%d", path, i+1)
		}
		images = append(images, imageArtifact{path: imagePath, source: source, summary: summary})
		texts = append(texts, summary)
	}

	vectors, err := ai.EmbedAll(ctx, r.AI, texts, func(done, total int) {
		r.tick("embedding", path, done, total)
	})
	if err != nil {
		return 0, err
	}

	// Slice the vector batch back apart in the order it was assembled.
	textCount := len(texts) - len(tables) - len(images)
	textChunks := make([]graph.Chunk, 0, textCount)
	for i := 0; i < textCount; i++ {
		textChunks = append(textChunks, graph.Chunk{
			ID:         chunk.StableID(path, i, texts[i]),
			Text:       texts[i],
			Index:      i,
			SourcePath: path,
			Embedding:  vectors[i],
		})
	}
	if err := r.Graph.UpsertDescription(ctx, graph.DescriptionText, path, textPath, textSummary); err != nil {
		return 0, err
	}
	if err := r.Graph.UpsertChunks(ctx, graph.DescriptionText, textPath, r.EmbeddingModel, textChunks); err != nil {
		return 0, err
	}
	total := len(textChunks)

	for i, table := range tables {
		vec := vectors[textCount+i]
		if err := r.Graph.UpsertDescription(ctx, graph.DescriptionTable, path, table.path, table.summary); err != nil {
			return 0, err
		}
		tableChunk := graph.Chunk{
			ID:         chunk.StableID(table.path, 0, table.summary),
			Text:       table.summary,
			Index:      0,
			SourcePath: path,
			Embedding:  vec,
		}
		if err := r.Graph.UpsertChunks(ctx, graph.DescriptionTable, table.path, r.EmbeddingModel, []graph.Chunk{tableChunk}); err != nil {
			return 0, err
		}
		total++
	}

	for i, img := range images {
		vec := vectors[textCount+len(tables)+i]
		if err := r.Graph.UpsertImage(ctx, path, img.source, img.path, img.summary); err != nil {
			return 0, err
		}
		imageChunk := graph.Chunk{
			ID:         chunk.StableID(img.path, 0, img.summary),
			Text:       img.summary,
			Index:      0,
			SourcePath: path,
			Embedding:  vec,
		}
		if err := r.Graph.UpsertChunks(ctx, graph.DescriptionImage, img.path, r.EmbeddingModel, []graph.Chunk{imageChunk}); err != nil {
			return 0, err
		}
		total++
	}
	return total, nil
}

// storeArtifact writes data under path, avoiding collisions with a random
// suffix, and returns the path actually used.
func storeArtifact(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	path, err := util.UniquePath(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// discover lists .md and .json files under root, sorted lexicographically.
func discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
