package graph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/ifc"
)

// ReconcileResult reports what a repair sweep changed.
type ReconcileResult struct {
	NodesCreated int
	EdgesCreated int
	Diagnostics  []string
}

// Reconcile replays the graph-mirror effect of the current relational state
// for a branch without a new revision: every currently-open product gets a
// "create node if missing" and, via its contained_in pointer, a "create
// edge if missing". It does not close anything — closing only happens as
// part of an actual ingestion step, since Reconcile has no new revision
// number to close with. This repairs a branch that never gets ingested
// into again after a crash between the relational commit and the graph
// mirror step, which would otherwise carry permanent graph drift.
func (c *Client) Reconcile(ctx context.Context, branchID int64, openRows []*types.Product) (*ReconcileResult, error) {
	if !c.Enabled() {
		return &ReconcileResult{}, nil
	}

	result := &ReconcileResult{}
	byGlobalID := make(map[string]*types.Product, len(openRows))
	for _, p := range openRows {
		byGlobalID[p.GlobalID] = p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range openRows {
		p := p
		g.Go(func() error {
			if err := c.CreateNode(gctx, branchID, p.GlobalID, p.IFCClass, p.Name, p.ValidFromRev); err != nil {
				return fmt.Errorf("reconcile: create node %s: %w", p.GlobalID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	result.NodesCreated = len(openRows)

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(8)
	diag := make(chan string, len(openRows))
	var attempted, missing int
	for _, p := range openRows {
		p := p
		if p.ContainedIn == nil {
			continue
		}
		parent, ok := byGlobalID[*p.ContainedIn]
		if !ok {
			diag <- fmt.Sprintf("reconcile: %s references missing container %s", p.GlobalID, *p.ContainedIn)
			missing++
			continue
		}
		relType := RelContainedInSpatialStructure
		if ifc.IsSpatial(parent.IFCClass) && ifc.IsSpatial(p.IFCClass) {
			relType = RelAggregates
		}
		attempted++
		g.Go(func() error {
			if err := c.CreateEdge(gctx, branchID, *p.ContainedIn, p.GlobalID, relType, p.ValidFromRev); err != nil {
				diag <- fmt.Sprintf("reconcile: skip edge %s -> %s: %v", *p.ContainedIn, p.GlobalID, err)
				return nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	close(diag)
	for msg := range diag {
		result.Diagnostics = append(result.Diagnostics, msg)
	}
	result.EdgesCreated = attempted - (len(result.Diagnostics) - missing)
	return result, nil
}
