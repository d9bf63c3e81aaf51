package graph

import (
	"context"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// OwnerKind selects which node label a document hangs under.
type OwnerKind string

const (
	OwnerProduct   OwnerKind = "product"
	OwnerAccessory OwnerKind = "accessory"
)

// Owner addresses a Product or Accessory by its business key.
type Owner struct {
	Kind OwnerKind
	// Key is the product_id for products and the name for accessories.
	Key string
}

// DescriptionKind names the media a description summarizes.
type DescriptionKind string

const (
	DescriptionText  DescriptionKind = "text"
	DescriptionImage DescriptionKind = "image"
	DescriptionTable DescriptionKind = "table"
)

// Chunk is one embedded slice of a description, keyed by its stable id.
type Chunk struct {
	ID         string
	Text       string
	Index      int
	SourcePath string
	Embedding  []float32
}

func ownerClause(kind OwnerKind) (match string, err error) {
	switch kind {
	case OwnerProduct:
		return "MERGE (o:Product {product_id: $owner})", nil
	case OwnerAccessory:
		return "MERGE (o:Accessory {name: $owner})", nil
	default:
		return "", fmt.Errorf("%w: owner kind %q", ErrInvalid, kind)
	}
}

func descriptionLabels(kind DescriptionKind) (label, keyProp, rel string, err error) {
	switch kind {
	case DescriptionText:
		return "TextDescription", "text_path", "HAS_TEXT_DESCRIPTION", nil
	case DescriptionImage:
		return "ImageDescription", "image_path", "HAS_IMAGE_DESCRIPTION", nil
	case DescriptionTable:
		return "TableDescription", "table_path", "HAS_TABLE_DESCRIPTION", nil
	default:
		return "", "", "", fmt.Errorf("%w: description kind %q", ErrInvalid, kind)
	}
}

// UpsertDocument merges a Document by path under its owner and clears any
// Unknown marker left by an earlier failed classification of the same file.
func (c *Client) UpsertDocument(ctx context.Context, owner Owner, path, name, mimeType string) error {
	if path == "" || owner.Key == "" {
		return fmt.Errorf("%w: document path and owner key required", ErrInvalid)
	}
	merge, err := ownerClause(owner.Kind)
	if err != nil {
		return err
	}
	cypher := merge + `
		MERGE (d:Document {path: $path})
		ON CREATE SET d.created_at = $now
		SET d.name = $name, d.mime_type = $mime, d.updated_at = $now
		MERGE (o)-[:HAS_DOCUMENT]->(d)
		WITH d
		OPTIONAL MATCH (u:Unknown {file_path: $path})
		DETACH DELETE u`
	return c.write(ctx, cypher, map[string]any{
		"owner": owner.Key,
		"path":  path,
		"name":  name,
		"mime":  mimeType,
		"now":   nowStamp(),
	})
}

// UpsertDescription merges a description node by its storage path and links
// it to the document it was derived from.
func (c *Client) UpsertDescription(ctx context.Context, kind DescriptionKind, docPath, storagePath, summary string) error {
	if docPath == "" || storagePath == "" {
		return fmt.Errorf("%w: document and storage path required", ErrInvalid)
	}
	label, keyProp, rel, err := descriptionLabels(kind)
	if err != nil {
		return err
	}
	cypher := fmt.Sprintf(`
		MATCH (d:Document {path: $doc})
		MERGE (t:%s {%s: $storage})
		ON CREATE SET t.created_at = $now
		SET t.summary = $summary, t.updated_at = $now
		MERGE (d)-[:%s]->(t)
		RETURN d.path AS path`, label, keyProp, rel)

	records, err2 := c.readWriteQuery(ctx, cypher, map[string]any{
		"doc":     docPath,
		"storage": storagePath,
		"summary": summary,
		"now":     nowStamp(),
	})
	if err2 != nil {
		return err2
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: document %q", ErrNotFound, docPath)
	}
	return nil
}

// readWriteQuery runs a write statement that also returns rows.
func (c *Client) readWriteQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	out, err := c.writeTx(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}

// UpsertChunks merges embedded chunks by stable id under a description.
// Re-running with the same inputs touches the same nodes.
func (c *Client) UpsertChunks(ctx context.Context, kind DescriptionKind, storagePath, embeddingModel string, chunks []Chunk) error {
	if storagePath == "" {
		return fmt.Errorf("%w: storage path required", ErrInvalid)
	}
	if len(chunks) == 0 {
		return nil
	}
	label, keyProp, _, err := descriptionLabels(kind)
	if err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(chunks))
	for _, ch := range chunks {
		if ch.ID == "" {
			return fmt.Errorf("%w: chunk id required", ErrInvalid)
		}
		rows = append(rows, map[string]any{
			"id":          ch.ID,
			"text":        ch.Text,
			"index":       ch.Index,
			"source_path": ch.SourcePath,
			"embedding":   ch.Embedding,
		})
	}

	cypher := fmt.Sprintf(`
		MATCH (t:%s {%s: $storage})
		UNWIND $chunks AS ch
		MERGE (c:Chunk {id: ch.id})
		ON CREATE SET c.created_at = $now
		SET c.text = ch.text,
		    c.index = ch.index,
		    c.source_path = ch.source_path,
		    c.embedding = ch.embedding,
		    c.embedding_model = $model,
		    c.updated_at = $now
		MERGE (t)-[:HAS_CHUNK]->(c)
		RETURN count(c) AS merged`, label, keyProp)

	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"storage": storagePath,
		"chunks":  rows,
		"model":   embeddingModel,
		"now":     nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 || recordInt(records[0], "merged") == 0 {
		return fmt.Errorf("%w: %s %q", ErrNotFound, label, storagePath)
	}
	return nil
}

// UpsertImage records an extracted image and its description node. Chunked
// summaries attach afterwards via UpsertChunks with DescriptionImage.
func (c *Client) UpsertImage(ctx context.Context, docPath, sourcePath, storedPath, summary string) error {
	if docPath == "" || sourcePath == "" || storedPath == "" {
		return fmt.Errorf("%w: image paths required", ErrInvalid)
	}
	cypher := `
		MATCH (d:Document {path: $doc})
		MERGE (i:Image {path: $source})
		ON CREATE SET i.created_at = $now
		SET i.updated_at = $now
		MERGE (desc:ImageDescription {image_path: $stored})
		ON CREATE SET desc.created_at = $now
		SET desc.summary = $summary, desc.updated_at = $now
		MERGE (d)-[:HAS_IMAGE]->(i)
		MERGE (i)-[:DESCRIBED_BY]->(desc)
		MERGE (d)-[:HAS_IMAGE_DESCRIPTION]->(desc)
		RETURN d.path AS path`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"doc":     docPath,
		"source":  sourcePath,
		"stored":  storedPath,
		"summary": summary,
		"now":     nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: document %q", ErrNotFound, docPath)
	}
	return nil
}

// MarkUnknown records a file the classifier could not place. The marker is
// cleared automatically when the same path is later ingested as a Document.
func (c *Client) MarkUnknown(ctx context.Context, path, fileType string) error {
	if path == "" {
		return fmt.Errorf("%w: path required", ErrInvalid)
	}
	cypher := `
		MERGE (u:Unknown {file_path: $path})
		ON CREATE SET u.created_at = $now
		SET u.file_type = $type, u.updated_at = $now`
	return c.write(ctx, cypher, map[string]any{
		"path": path,
		"type": fileType,
		"now":  nowStamp(),
	})
}

// IsDocumentIngested reports whether the document exists and has at least
// one chunk reachable through a description. Used as the resume fence.
func (c *Client) IsDocumentIngested(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: path required", ErrInvalid)
	}
	cypher := `
		MATCH (d:Document {path: $path})
		OPTIONAL MATCH (d)-[:HAS_TEXT_DESCRIPTION|HAS_IMAGE_DESCRIPTION|HAS_TABLE_DESCRIPTION]->()-[:HAS_CHUNK]->(c:Chunk)
		RETURN count(c) AS chunks`
	records, err := c.readRecords(ctx, cypher, map[string]any{"path": path})
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	return recordInt(records[0], "chunks") > 0, nil
}

// MoveDocument reattaches a document to a different owner, dropping the old
// HAS_DOCUMENT edge. Derived descriptions and chunks stay with the document.
func (c *Client) MoveDocument(ctx context.Context, docPath string, target Owner) error {
	if docPath == "" || target.Key == "" {
		return fmt.Errorf("%w: document path and target key required", ErrInvalid)
	}
	merge, err := ownerClause(target.Kind)
	if err != nil {
		return err
	}
	cypher := `
		MATCH (d:Document {path: $path})
		OPTIONAL MATCH ()-[r:HAS_DOCUMENT]->(d)
		DELETE r
		WITH d
		` + merge + `
		MERGE (o)-[:HAS_DOCUMENT]->(d)
		SET d.updated_at = $now
		RETURN d.path AS path`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"path":  docPath,
		"owner": target.Key,
		"now":   nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: document %q", ErrNotFound, docPath)
	}
	return nil
}

// DeleteDocument removes a document with its descriptions and chunks,
// deletes derived artifact files from disk best-effort, and leaves an
// Unknown stub carrying the original created_at so a later re-ingest can be
// told apart from a first sighting.
func (c *Client) DeleteDocument(ctx context.Context, docPath string) error {
	if docPath == "" {
		return fmt.Errorf("%w: path required", ErrInvalid)
	}
	cypher := `
		MATCH (d:Document {path: $path})
		OPTIONAL MATCH (d)-[:HAS_TEXT_DESCRIPTION|HAS_IMAGE_DESCRIPTION|HAS_TABLE_DESCRIPTION]->(desc)
		OPTIONAL MATCH (desc)-[:HAS_CHUNK]->(c:Chunk)
		OPTIONAL MATCH (d)-[:HAS_IMAGE]->(img:Image)
		WITH d, d.created_at AS created,
		     collect(DISTINCT desc) AS descs,
		     collect(DISTINCT c) AS chunks,
		     collect(DISTINCT img) AS images,
		     [x IN collect(DISTINCT desc) |
		       coalesce(x.text_path, x.image_path, x.table_path)] AS storagePaths
		FOREACH (n IN chunks | DETACH DELETE n)
		FOREACH (n IN descs | DETACH DELETE n)
		FOREACH (n IN images | DETACH DELETE n)
		DETACH DELETE d
		MERGE (u:Unknown {file_path: $path})
		SET u.created_at = coalesce(created, $now),
		    u.file_type = 'deleted',
		    u.updated_at = $now
		RETURN storagePaths`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"path": docPath,
		"now":  nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: document %q", ErrNotFound, docPath)
	}

	if val, ok := records[0].Get("storagePaths"); ok {
		if items, ok := val.([]any); ok {
			for _, item := range items {
				if p, ok := item.(string); ok && p != "" {
					_ = os.Remove(p)
				}
			}
		}
	}
	return nil
}
