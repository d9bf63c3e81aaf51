package graph

import (
	"context"
	"fmt"
)

// VectorIndexName is the cosine index over Chunk.embedding.
const VectorIndexName = "chunk_embedding"

var schemaConstraints = []string{
	"CREATE CONSTRAINT chunk_id_unique IF NOT EXISTS FOR (c:Chunk) REQUIRE c.id IS UNIQUE",
	"CREATE CONSTRAINT document_path_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.path IS UNIQUE",
	"CREATE CONSTRAINT text_description_path_unique IF NOT EXISTS FOR (t:TextDescription) REQUIRE t.text_path IS UNIQUE",
	"CREATE CONSTRAINT image_description_path_unique IF NOT EXISTS FOR (i:ImageDescription) REQUIRE i.image_path IS UNIQUE",
	"CREATE CONSTRAINT table_description_path_unique IF NOT EXISTS FOR (t:TableDescription) REQUIRE t.table_path IS UNIQUE",
	"CREATE CONSTRAINT image_path_unique IF NOT EXISTS FOR (i:Image) REQUIRE i.path IS UNIQUE",
	"CREATE CONSTRAINT unknown_file_path_unique IF NOT EXISTS FOR (u:Unknown) REQUIRE u.file_path IS UNIQUE",
	"CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.product_id IS UNIQUE",
	"CREATE CONSTRAINT accessory_name_unique IF NOT EXISTS FOR (a:Accessory) REQUIRE a.name IS UNIQUE",
	"CREATE CONSTRAINT bom_id_unique IF NOT EXISTS FOR (b:BOM) REQUIRE b.bom_id IS UNIQUE",
}

// EnsureSchema creates uniqueness constraints and the chunk vector index.
// dim must match the embedding model in use; the index is created with
// cosine similarity.
func (c *Client) EnsureSchema(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: vector dimension %d", ErrInvalid, dim)
	}
	for _, stmt := range schemaConstraints {
		if err := c.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("graph: ensure constraint: %w", err)
		}
	}

	if err := c.write(ctx, vectorIndexStatement(dim), nil); err != nil {
		return fmt.Errorf("graph: ensure vector index: %w", err)
	}
	return nil
}

// vectorIndexStatement inlines the dimension because Neo4j rejects
// parameters in schema commands. The caller has already validated dim.
func vectorIndexStatement(dim int) string {
	return fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (c:Chunk) ON (c.embedding)
		OPTIONS {indexConfig: {
			`+"`vector.dimensions`"+`: %d,
			`+"`vector.similarity_function`"+`: 'cosine'
		}}`, VectorIndexName, dim)
}
