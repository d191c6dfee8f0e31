package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CreateNode creates a node labelled ifcClass with the given global_id and
// name, open as of fromRev. Idempotent: if a node with the same
// (global_id, branch_id, valid_from_rev) already exists, it is left untouched — the
// Revision Writer's recovery path relies on this not erroring on a re-run.
func (c *Client) CreateNode(ctx context.Context, branchID int64, globalID, ifcClass, name string, fromRev int64) error {
	if !c.Enabled() {
		return nil
	}
	if err := ValidateGlobalID(globalID); err != nil {
		return err
	}
	if err := ValidateLabel(ifcClass); err != nil {
		return err
	}

	session := c.writeSession(ctx)
	defer session.Close(ctx)
	c.ensureLabel(ctx, session, ifcClass)

	query := fmt.Sprintf(`
MERGE (n:%s {global_id: $global_id, branch_id: $branch_id, valid_from_rev: $from_rev})
ON CREATE SET n.name = $name, n.valid_to_rev = $open
RETURN n.global_id AS global_id
`, ifcClass)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"global_id": globalID,
			"branch_id": branchID,
			"from_rev":  fromRev,
			"name":      name,
			"open":      OpenSentinel,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	return err
}

// CloseNode sets valid_to_rev = atRev on the open node for (branchID,
// globalID), labelled ifcClass, then closes every edge currently incident
// to it. Idempotent: closing an already-closed or absent node is a no-op,
// not an error.
func (c *Client) CloseNode(ctx context.Context, branchID int64, globalID, ifcClass string, atRev int64) error {
	if !c.Enabled() {
		return nil
	}
	if err := ValidateGlobalID(globalID); err != nil {
		return err
	}
	if err := ValidateLabel(ifcClass); err != nil {
		return err
	}

	query := fmt.Sprintf(`
MATCH (n:%s {global_id: $global_id, branch_id: $branch_id, valid_to_rev: $open})
SET n.valid_to_rev = $at_rev
WITH n
OPTIONAL MATCH (n)-[e {valid_to_rev: $open}]-()
SET e.valid_to_rev = $at_rev
RETURN n.global_id AS global_id
`, ifcClass)

	session := c.writeSession(ctx)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"global_id": globalID,
			"branch_id": branchID,
			"open":      OpenSentinel,
			"at_rev":    atRev,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	return err
}

// CreateEdge creates an edge labelled relType from the open (from) node to
// the open (to) node, open as of fromRev. If either endpoint is not
// currently visible, it returns ErrDanglingEdge (wrapped with the two
// global_ids) instead of failing the caller's transaction — a dangling
// reference is skipped and surfaced in diagnostics, not a hard failure.
func (c *Client) CreateEdge(ctx context.Context, branchID int64, fromGlobalID, toGlobalID, relType string, fromRev int64) error {
	if !c.Enabled() {
		return nil
	}
	if err := ValidateGlobalID(fromGlobalID); err != nil {
		return err
	}
	if err := ValidateGlobalID(toGlobalID); err != nil {
		return err
	}
	if err := ValidateLabel(relType); err != nil {
		return err
	}

	session := c.writeSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MATCH (a {global_id: $from_id, branch_id: $branch_id, valid_to_rev: $open})
MATCH (b {global_id: $to_id, branch_id: $branch_id, valid_to_rev: $open})
MERGE (a)-[e:%s {branch_id: $branch_id, valid_from_rev: $from_rev}]->(b)
ON CREATE SET e.valid_to_rev = $open
RETURN e.valid_from_rev AS created
`, relType)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"from_id":   fromGlobalID,
			"to_id":     toGlobalID,
			"branch_id": branchID,
			"from_rev":  fromRev,
			"open":      OpenSentinel,
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return err
	}
	records, _ := result.([]*neo4j.Record)
	if len(records) == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, fromGlobalID, toGlobalID)
	}
	return nil
}

// DeleteBranch removes every node and edge carrying branchID, regardless
// of label or open/closed state. Used by branch/project deletion (the
// relational delete is always authoritative; this is a best-effort sweep
// run in the same request, not deferred).
func (c *Client) DeleteBranch(ctx context.Context, branchID int64) error {
	if !c.Enabled() {
		return nil
	}
	session := c.writeSession(ctx)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n {branch_id: $branch_id})
DETACH DELETE n
`, map[string]any{"branch_id": branchID})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
