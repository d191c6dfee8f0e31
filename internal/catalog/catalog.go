// Package catalog implements project/branch CRUD, with branch creation
// always starting empty and deletion cascading relationally plus a
// best-effort graph sweep.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/graph"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

const mainBranchName = "main"

// Deps are the collaborators the Catalog needs.
type Deps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	ProjectRp  repos.ProjectRepo
	BranchRp   repos.BranchRepo
	ProductsRp repos.ProductRepo
	Graph      *graph.Client
}

// Catalog wraps Deps with cross-table orchestration the repos alone can't
// give: single-table CRUD composed into project/branch lifecycle.
type Catalog struct {
	deps Deps
	log  *logger.Logger
}

func New(deps Deps) *Catalog {
	return &Catalog{deps: deps, log: deps.Log.With("component", "Catalog")}
}

// CreateProject creates a project and its auto-created "main" branch in a
// single relational transaction.
func (c *Catalog) CreateProject(ctx context.Context, name, description string) (*types.Project, *types.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apierr.New(400, "ValidationError", fmt.Errorf("catalog: project name required"))
	}

	var project *types.Project
	var branch *types.Branch
	err := c.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = c.deps.ProjectRp.Create(ctx, tx, &types.Project{Name: name, Description: description})
		if err != nil {
			return err
		}
		branch, err = c.deps.BranchRp.Create(ctx, tx, &types.Branch{ProjectID: project.ID, Name: mainBranchName})
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, apierr.New(500, "StoreError", err)
	}
	return project, branch, nil
}

// CreateBranch creates an empty branch under projectID. Branches never
// copy state from another branch: there is nothing more to this than
// inserting the row.
func (c *Catalog) CreateBranch(ctx context.Context, projectID int64, name string) (*types.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.New(400, "ValidationError", fmt.Errorf("catalog: branch name required"))
	}
	if _, err := c.deps.ProjectRp.GetByID(ctx, nil, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(404, "NotFound", fmt.Errorf("catalog: project %d not found", projectID))
		}
		return nil, apierr.New(500, "StoreError", err)
	}

	branch, err := c.deps.BranchRp.Create(ctx, nil, &types.Branch{ProjectID: projectID, Name: name})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, apierr.New(409, "DuplicateName", fmt.Errorf("catalog: branch %q already exists on project %d", name, projectID))
		}
		return nil, apierr.New(500, "StoreError", err)
	}
	return branch, nil
}

// DeleteProject deletes a project and everything under it (branches,
// revisions, products cascade relationally via ProjectRepo.Delete), then
// best-effort sweeps every one of its branches out of the graph.
func (c *Catalog) DeleteProject(ctx context.Context, projectID int64) error {
	branches, err := c.deps.BranchRp.ListByProject(ctx, nil, projectID)
	if err != nil {
		return apierr.New(500, "StoreError", err)
	}
	if err := c.deps.ProjectRp.Delete(ctx, nil, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.New(404, "NotFound", fmt.Errorf("catalog: project %d not found", projectID))
		}
		return apierr.New(500, "StoreError", err)
	}
	for _, b := range branches {
		c.sweepGraph(ctx, b.ID)
	}
	return nil
}

// DeleteBranch deletes a branch (revisions/products cascade relationally
// via BranchRepo.Delete), then best-effort sweeps it out of the graph.
func (c *Catalog) DeleteBranch(ctx context.Context, branchID int64) error {
	if err := c.deps.BranchRp.Delete(ctx, nil, branchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.New(404, "NotFound", fmt.Errorf("catalog: branch %d not found", branchID))
		}
		return apierr.New(500, "StoreError", err)
	}
	c.sweepGraph(ctx, branchID)
	return nil
}

// sweepGraph deletes a branch's nodes/edges from the graph. The relational
// delete above is already authoritative and already committed; a sweep
// failure here is logged, never returned.
func (c *Catalog) sweepGraph(ctx context.Context, branchID int64) {
	if c.deps.Graph == nil || !c.deps.Graph.Enabled() {
		return
	}
	if err := c.deps.Graph.DeleteBranch(ctx, branchID); err != nil {
		c.log.Warn("catalog: graph sweep failed", "branch_id", branchID, "error", err)
	}
}

// ReconcileBranch replays the graph-mirror effect of a branch's current
// open rows without a new revision: callable on demand (an operator
// endpoint) or from an interval sweep started at boot, it repairs drift
// left by a crash between an ingestion's relational commit and its graph
// mirror step.
func (c *Catalog) ReconcileBranch(ctx context.Context, branchID int64) (*graph.ReconcileResult, error) {
	if c.deps.Graph == nil || !c.deps.Graph.Enabled() {
		return &graph.ReconcileResult{}, nil
	}
	if c.deps.ProductsRp == nil {
		return nil, fmt.Errorf("catalog: product repo required for reconcile")
	}
	openRows, err := c.deps.ProductsRp.ListOpenByBranch(ctx, nil, branchID)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}
	result, err := c.deps.Graph.Reconcile(ctx, branchID, openRows)
	if err != nil {
		return result, apierr.New(500, "StoreError", err)
	}
	return result, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
