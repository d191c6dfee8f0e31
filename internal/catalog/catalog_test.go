package catalog_test

import (
	"context"
	"testing"

	"github.com/bimatlas/bimatlas/internal/catalog"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
	"github.com/bimatlas/bimatlas/internal/platform/testutil"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	baseDB := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, baseDB)

	return catalog.New(catalog.Deps{
		DB:        tx,
		Log:       log,
		ProjectRp: repos.NewProjectRepo(tx, log),
		BranchRp:  repos.NewBranchRepo(tx, log),
	})
}

func TestCreateProject_AutoCreatesMainBranch(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	project, branch, err := c.CreateProject(ctx, "Demo", "a demo project")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.ID == 0 {
		t.Fatalf("project not persisted")
	}
	if branch.Name != "main" || branch.ProjectID != project.ID {
		t.Fatalf("branch = %+v, want main branch under project %d", branch, project.ID)
	}
}

func TestCreateBranch_DuplicateNameConflicts(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	project, _, err := c.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if _, err := c.CreateBranch(ctx, project.ID, "feature"); err != nil {
		t.Fatalf("create branch: %v", err)
	}

	_, err = c.CreateBranch(ctx, project.ID, "feature")
	if err == nil {
		t.Fatalf("expected DuplicateName error on second create")
	}
	apiErr, ok := err.(*apierr.Error)
	if !ok || apiErr.Code != "DuplicateName" {
		t.Fatalf("err = %v, want *apierr.Error{Code: DuplicateName}", err)
	}
}

func TestCreateBranch_StartsEmpty(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	project, main, err := c.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	branch, err := c.CreateBranch(ctx, project.ID, "feature")
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	if branch.ID == main.ID {
		t.Fatalf("new branch must not reuse main's id")
	}
}

func TestDeleteProject_CascadesBranches(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	project, _, err := c.CreateProject(ctx, "Demo", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := c.CreateBranch(ctx, project.ID, "feature"); err != nil {
		t.Fatalf("create branch: %v", err)
	}

	if err := c.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if err := c.DeleteProject(ctx, project.ID); err == nil {
		t.Fatalf("expected NotFound deleting an already-deleted project")
	}
}
