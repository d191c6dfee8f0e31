package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

// mirrorToGraph runs the best-effort graph mirror against the three diff
// sets that matter to the graph (added, modified, deleted): close
// nodes+edges for modified∪deleted, create nodes for added∪modified, then
// create edges for every extracted relationship touching one of the
// changed global_ids. Every sub-step is best-effort — a single node or
// edge failure is logged and/or recorded as a diagnostic, never returned
// as an error, since the relational commit already happened and is
// authoritative.
//
// closingClassByGlobalID carries the pre-image ifc_class of every
// currently-closing row, captured before the relational transaction closed
// it — once closed, the row is no longer reachable by an "open" lookup, so
// this must come from the caller rather than a fresh query.
func mirrorToGraph(
	ctx context.Context,
	deps Deps,
	log *logger.Logger,
	branchID, revisionID int64,
	byGlobalID map[string]types.ProductRecord,
	closingClassByGlobalID map[string]string,
	added, modified, deleted []string,
	relationships []types.RelationshipRecord,
) (edgesCreated int, diagnostics []string) {
	if deps.Graph == nil || !deps.Graph.Enabled() {
		return 0, nil
	}

	toClose := append(append([]string{}, modified...), deleted...)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, globalID := range toClose {
		globalID := globalID
		ifcClass, ok := closingClassByGlobalID[globalID]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := deps.Graph.CloseNode(gctx, branchID, globalID, ifcClass, revisionID); err != nil {
				log.Warn("graph mirror: close node failed", "global_id", globalID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	toCreate := append(append([]string{}, added...), modified...)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, globalID := range toCreate {
		globalID := globalID
		p := byGlobalID[globalID]
		g.Go(func() error {
			if err := deps.Graph.CreateNode(gctx, branchID, p.GlobalID, p.IFCClass, p.Name, revisionID); err != nil {
				log.Warn("graph mirror: create node failed", "global_id", globalID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	changedSet := make(map[string]bool, len(toCreate))
	for _, id := range toCreate {
		changedSet[id] = true
	}

	var created int
	var diag []string
	for _, rel := range relationships {
		if !changedSet[rel.FromGlobalID] && !changedSet[rel.ToGlobalID] {
			continue
		}
		if err := deps.Graph.CreateEdge(ctx, branchID, rel.FromGlobalID, rel.ToGlobalID, rel.RelationshipType, revisionID); err != nil {
			diag = append(diag, fmt.Sprintf(
				"graph mirror: skip edge %s -[%s]-> %s: %v",
				rel.FromGlobalID, rel.RelationshipType, rel.ToGlobalID, err,
			))
			continue
		}
		created++
	}

	return created, diag
}
