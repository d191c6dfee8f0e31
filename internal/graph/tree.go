package graph

import "context"

// SpatialTree is a root-down recursive tree of spatial containers (via
// IfcRelAggregates) with their directly-contained, non-spatial elements
// (via IfcRelContainedInSpatialStructure) attached at every level.
type SpatialTree struct {
	Node     Node           `json:"node"`
	Elements []Node         `json:"elements"`
	Children []*SpatialTree `json:"children"`
}

// BuildSpatialTree composes SpatialRoots/SpatialChildren/ContainedElements
// into the full tree for a branch at a revision. A branch with no IfcProject
// node yet (empty branch, or graph mirror still catching up) yields an
// empty slice, not an error.
func (c *Client) BuildSpatialTree(ctx context.Context, branchID, rev int64) ([]*SpatialTree, error) {
	if !c.Enabled() {
		return nil, nil
	}
	roots, err := c.SpatialRoots(ctx, branchID, rev)
	if err != nil {
		return nil, err
	}
	out := make([]*SpatialTree, 0, len(roots))
	for _, root := range roots {
		subtree, err := c.buildSubtree(ctx, root, branchID, rev)
		if err != nil {
			return nil, err
		}
		out = append(out, subtree)
	}
	return out, nil
}

func (c *Client) buildSubtree(ctx context.Context, node Node, branchID, rev int64) (*SpatialTree, error) {
	elements, err := c.ContainedElements(ctx, node.GlobalID, branchID, rev)
	if err != nil {
		return nil, err
	}
	children, err := c.SpatialChildren(ctx, node.GlobalID, branchID, rev)
	if err != nil {
		return nil, err
	}
	tree := &SpatialTree{Node: node, Elements: elements}
	for _, child := range children {
		sub, err := c.buildSubtree(ctx, child, branchID, rev)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, sub)
	}
	return tree, nil
}
