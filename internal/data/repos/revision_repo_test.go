package repos_test

import (
	"context"
	"testing"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/platform/testutil"
)

func TestRevisionRepo_AppendDiagnosticsMerges(t *testing.T) {
	baseDB := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, baseDB)

	projectRepo := repos.NewProjectRepo(tx, log)
	branchRepo := repos.NewBranchRepo(tx, log)
	revisionRepo := repos.NewRevisionRepo(tx, log)

	ctx := context.Background()
	project, err := projectRepo.Create(ctx, nil, &types.Project{Name: "Demo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	branch, err := branchRepo.Create(ctx, nil, &types.Branch{ProjectID: project.ID, Name: "main"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}

	rev, err := revisionRepo.Create(ctx, nil, &types.Revision{
		BranchID:    branch.ID,
		Diagnostics: types.DiagnosticsJSON([]string{"extraction: skipped #7"}),
	})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}

	if err := revisionRepo.AppendDiagnostics(ctx, nil, rev.ID, []string{"mirror: dangling edge #12"}); err != nil {
		t.Fatalf("append diagnostics: %v", err)
	}

	reloaded, err := revisionRepo.GetByID(ctx, nil, rev.ID)
	if err != nil {
		t.Fatalf("reload revision: %v", err)
	}
	got := types.ParseDiagnostics(reloaded.Diagnostics)
	if len(got) != 2 || got[0] != "extraction: skipped #7" || got[1] != "mirror: dangling edge #12" {
		t.Fatalf("diagnostics = %v, want both entries preserved in order", got)
	}
}

func TestRevisionRepo_AppendDiagnosticsNoopOnEmpty(t *testing.T) {
	baseDB := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, baseDB)

	projectRepo := repos.NewProjectRepo(tx, log)
	branchRepo := repos.NewBranchRepo(tx, log)
	revisionRepo := repos.NewRevisionRepo(tx, log)

	ctx := context.Background()
	project, err := projectRepo.Create(ctx, nil, &types.Project{Name: "Demo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	branch, err := branchRepo.Create(ctx, nil, &types.Branch{ProjectID: project.ID, Name: "main"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	rev, err := revisionRepo.Create(ctx, nil, &types.Revision{BranchID: branch.ID})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}

	if err := revisionRepo.AppendDiagnostics(ctx, nil, rev.ID, nil); err != nil {
		t.Fatalf("append nil diagnostics: %v", err)
	}
}
