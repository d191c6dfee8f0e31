package catalog

import (
	"context"
	"time"
)

// ReconcileSweeper runs ReconcileBranch for every branch on an interval,
// the background counterpart to the on-demand CatalogHandler.ReconcileBranch
// endpoint. It is off by default; app wiring only starts it when
// RECONCILE_INTERVAL_SECONDS is set.
type ReconcileSweeper struct {
	catalog  *Catalog
	interval time.Duration
}

func NewReconcileSweeper(c *Catalog, interval time.Duration) *ReconcileSweeper {
	return &ReconcileSweeper{catalog: c, interval: interval}
}

func (s *ReconcileSweeper) Start(ctx context.Context) {
	if s == nil || s.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepAll(ctx)
			}
		}
	}()
}

func (s *ReconcileSweeper) sweepAll(ctx context.Context) {
	if s.catalog.deps.Graph == nil || !s.catalog.deps.Graph.Enabled() {
		return
	}
	projects, err := s.catalog.deps.ProjectRp.List(ctx, nil)
	if err != nil {
		s.catalog.log.Warn("reconcile sweep: list projects failed", "error", err)
		return
	}
	for _, p := range projects {
		branches, err := s.catalog.deps.BranchRp.ListByProject(ctx, nil, p.ID)
		if err != nil {
			s.catalog.log.Warn("reconcile sweep: list branches failed", "project_id", p.ID, "error", err)
			continue
		}
		for _, b := range branches {
			if _, err := s.catalog.ReconcileBranch(ctx, b.ID); err != nil {
				s.catalog.log.Warn("reconcile sweep: branch reconcile failed", "branch_id", b.ID, "error", err)
			}
		}
	}
}
