package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// RetrievedChunk is one scored hit from the vector search.
type RetrievedChunk struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Index      int     `json:"index"`
	SourcePath string  `json:"source_path"`
	CreatedAt  string  `json:"created_at"`
	Score      float64 `json:"score"`
}

// RetrieveParams scopes a search to one product, optionally pinned to a BOM.
type RetrieveParams struct {
	ProductID string
	BOMID     string
	Query     []float32
	TopK      int
	// Threshold drops hits scoring below it. Zero keeps everything.
	Threshold float64
}

const defaultTopK = 8

// Retrieve searches chunks reachable from the product's documents, using the
// vector index when available and falling back to an in-process cosine scan
// when the index query fails (missing index, older server) or returns no
// hits for the product.
func (c *Client) Retrieve(ctx context.Context, params RetrieveParams) ([]RetrievedChunk, error) {
	if params.ProductID == "" {
		return nil, fmt.Errorf("%w: product id required", ErrInvalid)
	}
	if len(params.Query) == 0 {
		return nil, fmt.Errorf("%w: query vector required", ErrInvalid)
	}
	if params.TopK <= 0 {
		params.TopK = defaultTopK
	}

	hits, err := c.retrieveIndexed(ctx, params)
	if needsScanFallback(hits, err) {
		return c.retrieveScan(ctx, params)
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// needsScanFallback reports whether the indexed query must be redone as an
// in-process cosine scan: the index is unavailable, or it returned nothing.
// The index query over-fetches globally before re-filtering to the product
// scope, so a product whose chunks fall outside that window comes back
// empty even when its chunks exist.
func needsScanFallback(hits []RetrievedChunk, err error) bool {
	if err != nil {
		return isIndexUnavailable(err)
	}
	return len(hits) == 0
}

func isIndexUnavailable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such index") ||
		strings.Contains(msg, "there is no such vector") ||
		strings.Contains(msg, "procedurenotfound") ||
		strings.Contains(msg, "unknown procedure")
}

func scopeClause(bomID string) string {
	scope := `MATCH (p:Product {product_id: $product})`
	if bomID != "" {
		scope += `
		MATCH (p)-[:USES_BOM]->(:BOM {bom_id: $bom})`
	}
	return scope
}

func (c *Client) retrieveIndexed(ctx context.Context, params RetrieveParams) ([]RetrievedChunk, error) {
	// Over-fetch from the index, then re-filter to the product scope.
	cypher := `
		CALL db.index.vector.queryNodes($index, $fetch, $query)
		YIELD node, score
		WITH node, score
		` + scopeClause(params.BOMID) + `
		MATCH (p)-[:HAS_DOCUMENT]->(:Document)
		      -[:HAS_TEXT_DESCRIPTION|HAS_IMAGE_DESCRIPTION|HAS_TABLE_DESCRIPTION]->()
		      -[:HAS_CHUNK]->(node)
		WHERE score >= $threshold
		RETURN DISTINCT node.id AS id,
		       node.text AS text,
		       node.index AS index,
		       node.source_path AS source_path,
		       node.created_at AS created_at,
		       score
		ORDER BY score DESC, created_at DESC, index ASC
		LIMIT $k`

	args := map[string]any{
		"index":     VectorIndexName,
		"fetch":     params.TopK * 4,
		"query":     params.Query,
		"product":   params.ProductID,
		"threshold": params.Threshold,
		"k":         params.TopK,
	}
	if params.BOMID != "" {
		args["bom"] = params.BOMID
	}

	records, err := c.readRecords(ctx, cypher, args)
	if err != nil {
		return nil, err
	}
	out := make([]RetrievedChunk, 0, len(records))
	for _, rec := range records {
		out = append(out, RetrievedChunk{
			ID:         recordString(rec, "id"),
			Text:       recordString(rec, "text"),
			Index:      int(recordInt(rec, "index")),
			SourcePath: recordString(rec, "source_path"),
			CreatedAt:  recordString(rec, "created_at"),
			Score:      recordFloat(rec, "score"),
		})
	}
	return out, nil
}

func (c *Client) retrieveScan(ctx context.Context, params RetrieveParams) ([]RetrievedChunk, error) {
	cypher := scopeClause(params.BOMID) + `
		MATCH (p)-[:HAS_DOCUMENT]->(:Document)
		      -[:HAS_TEXT_DESCRIPTION|HAS_IMAGE_DESCRIPTION|HAS_TABLE_DESCRIPTION]->()
		      -[:HAS_CHUNK]->(c:Chunk)
		RETURN DISTINCT c.id AS id,
		       c.text AS text,
		       c.index AS index,
		       c.source_path AS source_path,
		       c.created_at AS created_at,
		       c.embedding AS embedding`

	args := map[string]any{"product": params.ProductID}
	if params.BOMID != "" {
		args["bom"] = params.BOMID
	}
	records, err := c.readRecords(ctx, cypher, args)
	if err != nil {
		return nil, err
	}

	candidates := make([]RetrievedChunk, 0, len(records))
	for _, rec := range records {
		embedding := recordVector(rec, "embedding")
		candidates = append(candidates, RetrievedChunk{
			ID:         recordString(rec, "id"),
			Text:       recordString(rec, "text"),
			Index:      int(recordInt(rec, "index")),
			SourcePath: recordString(rec, "source_path"),
			CreatedAt:  recordString(rec, "created_at"),
			Score:      CosineSimilarity(params.Query, embedding),
		})
	}
	return RankChunks(candidates, params.TopK, params.Threshold), nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankChunks sorts candidates by score descending, breaking ties by newer
// created_at first and then lower chunk index, applies the threshold and
// truncates to topK.
func RankChunks(candidates []RetrievedChunk, topK int, threshold float64) []RetrievedChunk {
	kept := make([]RetrievedChunk, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Score >= threshold {
			kept = append(kept, cand)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		if kept[i].CreatedAt != kept[j].CreatedAt {
			return kept[i].CreatedAt > kept[j].CreatedAt
		}
		return kept[i].Index < kept[j].Index
	})
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}
