package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/ifc/extractor"
	"github.com/bimatlas/bimatlas/internal/ingest"
	"github.com/bimatlas/bimatlas/internal/platform/testutil"
)

const sampleIFC = `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#1=IFCPROJECT('1AbcDEFghijklmnopqrsT',$,'Demo Project',$,$,$,$,$,$);
#2=IFCSITE('2AbcDEFghijklmnopqrsT',$,'Site',$,$,$,$,$,$,$,$,$,$);
#3=IFCBUILDING('3AbcDEFghijklmnopqrsT',$,'Building',$,$,$,$,$,$,$,$,$);
#4=IFCWALL('4AbcDEFghijklmnopqrsT',$,'Wall 1',$,$,$,$,$);
#10=IFCRELAGGREGATES('10bcDEFghijklmnopqrsT',$,$,$,#1,(#2));
#11=IFCRELAGGREGATES('11bcDEFghijklmnopqrsT',$,$,$,#2,(#3));
#12=IFCRELCONTAINEDINSPATIALSTRUCTURE('12bcDEFghijklmnopqrsT',$,$,$,(#4),#3);
ENDSEC;
END-ISO-10303-21;
`

func writeSample(tb testing.TB, content string) string {
	tb.Helper()
	dir := tb.TempDir()
	path := filepath.Join(dir, "sample.ifc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write sample ifc: %v", err)
	}
	return path
}

func TestRun_IngestionAndIdempotence(t *testing.T) {
	baseDB := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, baseDB)

	projectRepo := repos.NewProjectRepo(tx, log)
	branchRepo := repos.NewBranchRepo(tx, log)
	productRepo := repos.NewProductRepo(tx, log)
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

	deps := ingest.Deps{
		DB:         tx,
		Log:        log,
		Extractor:  extractor.New(extractor.DeterministicTessellator{}),
		ProductsRp: productRepo,
		RevisionRp: revisionRepo,
	}

	path := writeSample(t, sampleIFC)

	first, err := ingest.Run(ctx, deps, ingest.Input{
		BranchID:       branch.ID,
		IFCPath:        path,
		SourceFilename: "sample.ifc",
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.Counts.Added != 4 {
		t.Fatalf("first ingest added = %d, want 4", first.Counts.Added)
	}
	if first.Counts.Modified != 0 || first.Counts.Deleted != 0 {
		t.Fatalf("first ingest expected no modified/deleted, got %+v", first.Counts)
	}

	open, err := productRepo.ListOpenByBranch(ctx, nil, branch.ID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 4 {
		t.Fatalf("open rows = %d, want 4", len(open))
	}

	second, err := ingest.Run(ctx, deps, ingest.Input{
		BranchID:       branch.ID,
		IFCPath:        path,
		SourceFilename: "sample.ifc",
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.Counts.Added != 0 || second.Counts.Modified != 0 || second.Counts.Deleted != 0 {
		t.Fatalf("re-ingesting an identical file must yield no changes, got %+v", second.Counts)
	}
	if second.Counts.Unchanged != 4 {
		t.Fatalf("second ingest unchanged = %d, want 4", second.Counts.Unchanged)
	}
	if second.RevisionID == first.RevisionID {
		t.Fatalf("second ingest must still write a new revision row")
	}
}
