// Package graph persists the product-knowledge graph: products, accessories,
// documents, descriptions, chunks and their vector index. All writes are
// MERGE-by-business-key so retries and re-ingestion are idempotent.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hydroluxe/prodkb/backend/internal/util"
)

// Client wraps the Neo4j driver. One logical operation opens one session;
// the operation's writes form its own implicit transaction.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	timeout  time.Duration
}

// NewClientParams configures the graph connection.
type NewClientParams struct {
	URI      string
	User     string
	Password string
	Database string
	// TimeoutSec bounds connection establishment; 0 means 15.
	TimeoutSec int
	// MaxPoolSize caps the shared connection pool; 0 means 50.
	MaxPoolSize int
}

// NewClient connects and verifies connectivity.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	timeoutSec := params.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 15
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.User, params.Password, ""),
		func(cfg *neo4j.Config) {
			cfg.MaxConnectionPoolSize = maxPool
			cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
		},
	)
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	vCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(vCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: params.Database,
		timeout:  time.Duration(timeoutSec) * time.Second,
	}, nil
}

// NewClientFromEnv reads NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD and
// NEO4J_DATABASE.
func NewClientFromEnv(ctx context.Context) (*Client, error) {
	uri := util.GetEnv("NEO4J_URI")
	if uri == "" {
		return nil, fmt.Errorf("graph: NEO4J_URI not set")
	}
	return NewClient(ctx, NewClientParams{
		URI:      uri,
		User:     util.GetEnvString("NEO4J_USER", "neo4j"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	return c.Driver.Close(ctx)
}

// write runs one Cypher statement in a write session.
func (c *Client) write(ctx context.Context, cypher string, params map[string]any) error {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// writeTx runs fn once inside a single managed write transaction.
func (c *Client) writeTx(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, fn)
}

// readRecords runs one Cypher statement in a read session and collects all
// records.
func (c *Client) readRecords(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
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

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func recordString(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	s, _ := val.(string)
	return s
}

func recordInt(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	n, _ := val.(int64)
	return n
}

func recordFloat(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	f, _ := val.(float64)
	return f
}

func recordVector(record *neo4j.Record, key string) []float32 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(items))
	for _, item := range items {
		if f, ok := item.(float64); ok {
			out = append(out, float32(f))
		}
	}
	return out
}
