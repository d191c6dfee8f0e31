// Package graph is the sole boundary between BimAtlas and the property-graph
// mirror. It translates between the relational side's *int64-nil-means-open
// representation and the graph store's -1 open sentinel, validates every
// value embedded into Cypher text, and caches label/constraint creation per
// process.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/platform/neo4jdb"
)

// Relation is one edge incident to a node, as returned by RelationsOf.
type Relation struct {
	OtherGlobalID    string `json:"other_global_id"`
	OtherIFCClass    string `json:"other_ifc_class"`
	RelationshipType string `json:"relationship_type"`
	Direction        string `json:"direction"` // "outgoing" or "incoming"
}

// Node is the minimal node projection the Graph Client returns to callers:
// global_id and name come from node properties, ifc_class from its label.
type Node struct {
	GlobalID string `json:"global_id"`
	IFCClass string `json:"ifc_class"`
	Name     string `json:"name"`
}

// ErrDanglingEdge is returned (wrapped) by CreateEdge when one of the two
// endpoint nodes is not currently visible — callers skip such an edge and
// surface it in diagnostics rather than fail the ingestion.
var ErrDanglingEdge = fmt.Errorf("graph: endpoint node not visible")

// Client is the Graph Client. It owns no connections of its own — it wraps
// a shared *neo4jdb.Client — and is safe for concurrent use.
type Client struct {
	neo  *neo4jdb.Client
	log  *logger.Logger
	caps *labelCache
}

func New(neo *neo4jdb.Client, baseLog *logger.Logger) *Client {
	return &Client{
		neo:  neo,
		log:  baseLog.With("component", "GraphClient"),
		caps: newLabelCache(),
	}
}

// Enabled reports whether a graph backend is configured at all. Every
// caller in the ingestion and query paths must treat a disabled graph
// client as "no relations available", never as an error.
func (c *Client) Enabled() bool {
	return c != nil && c.neo != nil && c.neo.Driver != nil
}

func (c *Client) readSession(ctx context.Context) neo4j.SessionWithContext {
	return c.neo.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.neo.Database,
	})
}

func (c *Client) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return c.neo.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.neo.Database,
	})
}

// ensureLabel creates a uniqueness constraint for label the first time this
// process sees it, so every node label gets an index without a DBA manually
// provisioning one per IFC class. Best-effort: a failure (e.g. restricted
// user) is logged, not returned.
func (c *Client) ensureLabel(ctx context.Context, session neo4j.SessionWithContext, label string) {
	if c.caps.ensure(label) {
		return
	}
	stmt := fmt.Sprintf(
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE (n.global_id, n.branch_id, n.valid_from_rev) IS UNIQUE",
		label,
	)
	res, err := session.Run(ctx, stmt, nil)
	if err != nil {
		c.log.Warn("graph label constraint init failed (continuing)", "label", label, "error", err)
		return
	}
	_, _ = res.Consume(ctx)
}
