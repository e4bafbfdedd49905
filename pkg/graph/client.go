// Package graph stores the genealogy in Memgraph/Neo4j over the Bolt protocol.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/keizu/pkg/tracing"
)

// Client owns the Bolt driver. Every call opens its own session.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   ectologger.Logger
}

// Config holds graph database configuration
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Database selects a Neo4j database. Empty uses the server default (Memgraph has only one).
	Database string
}

// indexes back the identifier and name lookups of the repositories.
var indexes = []string{
	"CREATE INDEX ON :Samurai(identifier)",
	"CREATE INDEX ON :Clan(identifier)",
	"CREATE INDEX ON :Clan(clanNameValues)",
}

// NewClient creates a new graph database client
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	uri := fmt.Sprintf("bolt://%s:%d", cfg.Host, cfg.Port)

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	return &Client{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Close closes the driver connection
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// VerifyConnectivity checks if the database is reachable
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Ping is VerifyConnectivity under the name health checks expect.
func (c *Client) Ping(ctx context.Context) error {
	return c.VerifyConnectivity(ctx)
}

// EnsureIndexes creates the label-property indexes the repositories rely on. Memgraph treats an
// existing index as a no-op, so this runs on every start.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.EnsureIndexes")
	defer span.End()

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	// index DDL cannot run inside an explicit transaction
	for _, statement := range indexes {
		result, err := session.Run(ctx, statement, nil)
		if err != nil {
			return fmt.Errorf("failed to run %q: %w", statement, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to run %q: %w", statement, err)
		}
	}

	c.logger.WithContext(ctx).WithField("indexes", len(indexes)).Info("Graph indexes ensured")
	return nil
}

func (c *Client) session(ctx context.Context, accessMode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   accessMode,
		DatabaseName: c.database,
	})
}

// ExecuteWrite runs a write transaction
func (c *Client) ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteWrite")
	defer span.End()

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// ExecuteRead runs a read transaction
func (c *Client) ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteRead")
	defer span.End()

	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}

// write runs a single statement in a write transaction and discards its result.
func (c *Client) write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := c.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// nodeProps returns the properties of the node bound to key, or nil when the key is unbound or null.
func nodeProps(record *neo4j.Record, key string) map[string]any {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return nil
	}
	node, ok := value.(neo4j.Node)
	if !ok {
		return nil
	}
	return node.Props
}

func recordString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
