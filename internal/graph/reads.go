package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	// RelAggregates is the label used for IfcRelAggregates edges, which
	// compose the spatial hierarchy (project -> site -> building -> ...).
	RelAggregates = "IfcRelAggregates"
	// RelContainedInSpatialStructure is the label used for
	// IfcRelContainedInSpatialStructure edges, linking non-spatial elements
	// to their enclosing spatial container.
	RelContainedInSpatialStructure = "IfcRelContainedInSpatialStructure"
	// LabelProject is the node label for the single root of a branch's
	// spatial hierarchy.
	LabelProject = "IfcProject"
)

// RelationsOf returns the outgoing and incoming edges of the node visible
// at (branchID, rev) with the given global_id.
func (c *Client) RelationsOf(ctx context.Context, globalID string, branchID, rev int64) ([]Relation, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := ValidateGlobalID(globalID); err != nil {
		return nil, err
	}

	filter := RevisionFilter("n", branchID, rev)
	edgeFilter := RevisionFilter("e", branchID, rev)
	incomingFilter := RevisionFilter("e2", branchID, rev)
	query := fmt.Sprintf(`
MATCH (n {global_id: $global_id})
WHERE %s
OPTIONAL MATCH (n)-[e]->(out) WHERE %s
OPTIONAL MATCH (n)<-[e2]-(in) WHERE %s
RETURN
  [x IN collect(DISTINCT {other: out.global_id, class: labels(out), rel: type(e)}) WHERE x.other IS NOT NULL] AS outs,
  [x IN collect(DISTINCT {other: in.global_id, class: labels(in), rel: type(e2)}) WHERE x.other IS NOT NULL] AS ins
`, filter, edgeFilter, incomingFilter)

	session := c.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"global_id": globalID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, nil
	}

	var out []Relation
	outs, _ := records[0].Get("outs")
	for _, raw := range toSlice(outs) {
		out = append(out, relationFromRow(raw, "outgoing"))
	}
	ins, _ := records[0].Get("ins")
	for _, raw := range toSlice(ins) {
		out = append(out, relationFromRow(raw, "incoming"))
	}
	return out, nil
}

func toSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func relationFromRow(raw any, direction string) Relation {
	m, _ := raw.(map[string]any)
	other, _ := m["other"].(string)
	relType, _ := m["rel"].(string)
	class := ""
	if labels, ok := m["class"].([]any); ok && len(labels) > 0 {
		class, _ = labels[0].(string)
	}
	return Relation{
		OtherGlobalID:    other,
		OtherIFCClass:    class,
		RelationshipType: relType,
		Direction:        direction,
	}
}

// SpatialRoots returns the IfcProject nodes visible at (branchID, rev) —
// normally exactly one per branch.
func (c *Client) SpatialRoots(ctx context.Context, branchID, rev int64) ([]Node, error) {
	if !c.Enabled() {
		return nil, nil
	}
	filter := RevisionFilter("n", branchID, rev)
	query := fmt.Sprintf(`
MATCH (n:%s)
WHERE %s
RETURN n.global_id AS global_id, n.name AS name
`, LabelProject, filter)
	return c.runNodeQuery(ctx, query, nil, LabelProject)
}

// SpatialChildren returns the direct IfcRelAggregates children of
// globalID, visible at (branchID, rev).
func (c *Client) SpatialChildren(ctx context.Context, globalID string, branchID, rev int64) ([]Node, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := ValidateGlobalID(globalID); err != nil {
		return nil, err
	}
	nodeFilter := RevisionFilter("n", branchID, rev)
	childFilter := RevisionFilter("c", branchID, rev)
	edgeFilter := RevisionFilter("e", branchID, rev)
	query := fmt.Sprintf(`
MATCH (n {global_id: $global_id})
WHERE %s
MATCH (n)-[e:%s]->(c)
WHERE %s AND %s
RETURN c.global_id AS global_id, c.name AS name, labels(c) AS labels
`, nodeFilter, RelAggregates, edgeFilter, childFilter)
	return c.runLabelledNodeQuery(ctx, query, map[string]any{"global_id": globalID})
}

// ContainedElements returns the elements directly contained in the spatial
// node spatialGlobalID via IfcRelContainedInSpatialStructure, visible at
// (branchID, rev).
func (c *Client) ContainedElements(ctx context.Context, spatialGlobalID string, branchID, rev int64) ([]Node, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := ValidateGlobalID(spatialGlobalID); err != nil {
		return nil, err
	}
	nodeFilter := RevisionFilter("n", branchID, rev)
	childFilter := RevisionFilter("c", branchID, rev)
	edgeFilter := RevisionFilter("e", branchID, rev)
	query := fmt.Sprintf(`
MATCH (n {global_id: $global_id})
WHERE %s
MATCH (n)-[e:%s]->(c)
WHERE %s AND %s
RETURN c.global_id AS global_id, c.name AS name, labels(c) AS labels
`, nodeFilter, RelContainedInSpatialStructure, edgeFilter, childFilter)
	return c.runLabelledNodeQuery(ctx, query, map[string]any{"global_id": spatialGlobalID})
}

func (c *Client) runNodeQuery(ctx context.Context, query string, params map[string]any, ifcClass string) ([]Node, error) {
	session := c.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	out := make([]Node, 0, len(records))
	for _, rec := range records {
		gid, _ := rec.Get("global_id")
		name, _ := rec.Get("name")
		gidStr, _ := gid.(string)
		nameStr, _ := name.(string)
		out = append(out, Node{GlobalID: gidStr, IFCClass: ifcClass, Name: nameStr})
	}
	return out, nil
}

func (c *Client) runLabelledNodeQuery(ctx context.Context, query string, params map[string]any) ([]Node, error) {
	session := c.readSession(ctx)
	defer session.Close(ctx)
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	out := make([]Node, 0, len(records))
	for _, rec := range records {
		gid, _ := rec.Get("global_id")
		name, _ := rec.Get("name")
		labelsRaw, _ := rec.Get("labels")
		gidStr, _ := gid.(string)
		nameStr, _ := name.(string)
		class := ""
		if labels, ok := labelsRaw.([]any); ok && len(labels) > 0 {
			class, _ = labels[0].(string)
		}
		out = append(out, Node{GlobalID: gidStr, IFCClass: class, Name: nameStr})
	}
	return out, nil
}
