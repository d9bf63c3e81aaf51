package graph

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"empty", nil, nil, 0},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0},
	}
	for _, tt := range tests {
		got := CosineSimilarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%s: got %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	a := []float32{0.3, 0.7, 0.1}
	b := []float32{0.6, 1.4, 0.2}
	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-6 {
		t.Fatalf("scaled copies should score 1, got %f", got)
	}
}

func TestRankChunksOrdering(t *testing.T) {
	candidates := []RetrievedChunk{
		{ID: "low", Score: 0.2},
		{ID: "high", Score: 0.9},
		{ID: "mid", Score: 0.5},
	}
	ranked := RankChunks(candidates, 10, 0)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	if ranked[0].ID != "high" || ranked[1].ID != "mid" || ranked[2].ID != "low" {
		t.Fatalf("unexpected order: %s, %s, %s", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
}

func TestRankChunksTieBreaks(t *testing.T) {
	candidates := []RetrievedChunk{
		{ID: "older", Score: 0.8, CreatedAt: "2026-01-01T00:00:00Z", Index: 0},
		{ID: "newer", Score: 0.8, CreatedAt: "2026-02-01T00:00:00Z", Index: 5},
		{ID: "newer-low-index", Score: 0.8, CreatedAt: "2026-02-01T00:00:00Z", Index: 2},
	}
	ranked := RankChunks(candidates, 10, 0)
	if ranked[0].ID != "newer-low-index" {
		t.Fatalf("expected newer chunk with lower index first, got %s", ranked[0].ID)
	}
	if ranked[1].ID != "newer" {
		t.Fatalf("expected newer chunk second, got %s", ranked[1].ID)
	}
	if ranked[2].ID != "older" {
		t.Fatalf("expected older chunk last, got %s", ranked[2].ID)
	}
}

func TestRankChunksThresholdAndTopK(t *testing.T) {
	candidates := []RetrievedChunk{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.7},
		{ID: "c", Score: 0.3},
		{ID: "d", Score: 0.1},
	}
	ranked := RankChunks(candidates, 2, 0.2)
	if len(ranked) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(ranked))
	}
	if ranked[0].ID != "a" || ranked[1].ID != "b" {
		t.Fatalf("unexpected results: %s, %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankChunksEmpty(t *testing.T) {
	if got := RankChunks(nil, 5, 0.5); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestNeedsScanFallback(t *testing.T) {
	hit := []RetrievedChunk{{ID: "c1", Score: 0.9}}
	tests := []struct {
		name string
		hits []RetrievedChunk
		err  error
		want bool
	}{
		{"hits present", hit, nil, false},
		{"no hits for product", nil, nil, true},
		{"empty slice", []RetrievedChunk{}, nil, true},
		{"index missing", nil, errors.New("There is no such vector schema index: chunk_embedding_index"), true},
		{"procedure missing", nil, errors.New("Neo.ClientError.Procedure.ProcedureNotFound"), true},
		{"unknown procedure", nil, errors.New("unknown procedure db.index.vector.queryNodes"), true},
		{"unrelated failure", nil, errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := needsScanFallback(tt.hits, tt.err); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
