package graph

import (
	"context"
	"fmt"
)

// Product is the catalog entry documents and generated artifacts hang under.
type Product struct {
	ProductID     string `json:"product_id"`
	DisplayNameEn string `json:"display_name_en"`
	DisplayNameZh string `json:"display_name_zh"`
	BOMIDs        []string
}

// Accessory is one glossary entry, ordered by its position in the BOM.
type Accessory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// UpsertProduct merges a product by id, refreshing display names.
func (c *Client) UpsertProduct(ctx context.Context, productID, displayEn, displayZh string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id required", ErrInvalid)
	}
	cypher := `
		MERGE (p:Product {product_id: $id})
		ON CREATE SET p.created_at = $now
		SET p.display_name_en = $en, p.display_name_zh = $zh, p.updated_at = $now`
	return c.write(ctx, cypher, map[string]any{
		"id": productID, "en": displayEn, "zh": displayZh, "now": nowStamp(),
	})
}

// UpsertBOM attaches a bill-of-materials code to a product.
func (c *Client) UpsertBOM(ctx context.Context, productID, bomID string) error {
	if productID == "" || bomID == "" {
		return fmt.Errorf("%w: product id and bom id required", ErrInvalid)
	}
	cypher := `
		MATCH (p:Product {product_id: $product})
		MERGE (b:BOM {bom_id: $bom})
		ON CREATE SET b.created_at = $now
		SET b.updated_at = $now
		MERGE (p)-[:USES_BOM]->(b)
		RETURN b.bom_id AS id`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"product": productID, "bom": bomID, "now": nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	return nil
}

// UpsertAccessory merges a glossary entry and its ordered slot in a BOM.
func (c *Client) UpsertAccessory(ctx context.Context, bomID string, acc Accessory) error {
	if bomID == "" || acc.Name == "" {
		return fmt.Errorf("%w: bom id and accessory name required", ErrInvalid)
	}
	cypher := `
		MATCH (b:BOM {bom_id: $bom})
		MERGE (a:Accessory {name: $name})
		ON CREATE SET a.created_at = $now
		SET a.description = $desc, a.updated_at = $now
		MERGE (b)-[r:HAS_ACCESSORY]->(a)
		SET r.order = $order
		RETURN a.name AS name`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"bom": bomID, "name": acc.Name, "desc": acc.Description,
		"order": acc.Order, "now": nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: bom %q", ErrNotFound, bomID)
	}
	return nil
}

// UpsertProductConfig stores the authoritative Chinese configuration text.
func (c *Client) UpsertProductConfig(ctx context.Context, productID, configTextZh string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id required", ErrInvalid)
	}
	cypher := `
		MATCH (p:Product {product_id: $product})
		MERGE (p)-[:HAS_CONFIG]->(c:ProductConfig {product_id: $product})
		ON CREATE SET c.created_at = $now
		SET c.config_text_zh = $text, c.updated_at = $now
		RETURN c.product_id AS id`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"product": productID, "text": configTextZh, "now": nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	return nil
}

// ProductConfig returns the stored configuration text, or ErrNotFound.
func (c *Client) ProductConfig(ctx context.Context, productID string) (string, error) {
	if productID == "" {
		return "", fmt.Errorf("%w: product id required", ErrInvalid)
	}
	cypher := `
		MATCH (:Product {product_id: $product})-[:HAS_CONFIG]->(c:ProductConfig)
		RETURN c.config_text_zh AS text`
	records, err := c.readRecords(ctx, cypher, map[string]any{"product": productID})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: config for product %q", ErrNotFound, productID)
	}
	return recordString(records[0], "text"), nil
}

// GetProduct loads a product and its BOM ids.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id required", ErrInvalid)
	}
	cypher := `
		MATCH (p:Product {product_id: $id})
		OPTIONAL MATCH (p)-[:USES_BOM]->(b:BOM)
		RETURN p.product_id AS id,
		       p.display_name_en AS en,
		       p.display_name_zh AS zh,
		       collect(b.bom_id) AS boms`
	records, err := c.readRecords(ctx, cypher, map[string]any{"id": productID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	rec := records[0]
	product := &Product{
		ProductID:     recordString(rec, "id"),
		DisplayNameEn: recordString(rec, "en"),
		DisplayNameZh: recordString(rec, "zh"),
	}
	if val, ok := rec.Get("boms"); ok {
		if items, ok := val.([]any); ok {
			for _, item := range items {
				if s, ok := item.(string); ok && s != "" {
					product.BOMIDs = append(product.BOMIDs, s)
				}
			}
		}
	}
	return product, nil
}

// AccessoryGlossary returns a BOM's accessories in their stored slot order.
func (c *Client) AccessoryGlossary(ctx context.Context, bomID string) ([]Accessory, error) {
	if bomID == "" {
		return nil, fmt.Errorf("%w: bom id required", ErrInvalid)
	}
	cypher := `
		MATCH (:BOM {bom_id: $bom})-[r:HAS_ACCESSORY]->(a:Accessory)
		RETURN a.name AS name, a.description AS description, r.order AS order
		ORDER BY r.order ASC, a.name ASC`
	records, err := c.readRecords(ctx, cypher, map[string]any{"bom": bomID})
	if err != nil {
		return nil, err
	}
	out := make([]Accessory, 0, len(records))
	for _, rec := range records {
		out = append(out, Accessory{
			Name:        recordString(rec, "name"),
			Description: recordString(rec, "description"),
			Order:       int(recordInt(rec, "order")),
		})
	}
	return out, nil
}

// ClassifierCandidates lists every product display name and accessory name,
// the closed vocabularies the document classifier chooses from.
func (c *Client) ClassifierCandidates(ctx context.Context) (products, accessories []string, err error) {
	records, err := c.readRecords(ctx, `
		MATCH (p:Product)
		RETURN coalesce(p.display_name_zh, p.display_name_en, p.product_id) AS name
		ORDER BY name ASC`, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range records {
		if name := recordString(rec, "name"); name != "" {
			products = append(products, name)
		}
	}

	records, err = c.readRecords(ctx, `
		MATCH (a:Accessory) RETURN a.name AS name ORDER BY name ASC`, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range records {
		if name := recordString(rec, "name"); name != "" {
			accessories = append(accessories, name)
		}
	}
	return products, accessories, nil
}

// LinkGeneratedDoc records a generated artifact (specsheet, manual, poster)
// against a product with a role-tagged edge. One role holds one current
// artifact per product; regenerating overwrites the path.
func (c *Client) LinkGeneratedDoc(ctx context.Context, productID, role, path string) error {
	if productID == "" || role == "" || path == "" {
		return fmt.Errorf("%w: product id, role and path required", ErrInvalid)
	}
	cypher := `
		MATCH (p:Product {product_id: $product})
		MERGE (p)-[r:HAS_DOC {role: $role}]->(g:GeneratedDoc {role: $role, product_id: $product})
		ON CREATE SET g.created_at = $now
		SET g.path = $path, g.updated_at = $now
		RETURN g.path AS path`
	records, err := c.readWriteQuery(ctx, cypher, map[string]any{
		"product": productID, "role": role, "path": path, "now": nowStamp(),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	return nil
}

// GeneratedDocPath returns the current artifact path for a product role, or
// ErrNotFound when nothing was generated yet.
func (c *Client) GeneratedDocPath(ctx context.Context, productID, role string) (string, error) {
	if productID == "" || role == "" {
		return "", fmt.Errorf("%w: product id and role required", ErrInvalid)
	}
	cypher := `
		MATCH (:Product {product_id: $product})-[:HAS_DOC {role: $role}]->(g:GeneratedDoc)
		RETURN g.path AS path`
	records, err := c.readRecords(ctx, cypher, map[string]any{
		"product": productID, "role": role,
	})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: %s for product %q", ErrNotFound, role, productID)
	}
	return recordString(records[0], "path"), nil
}
