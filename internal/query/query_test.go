package query_test

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
	"github.com/bimatlas/bimatlas/internal/query"
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

const sampleIFCWallRemoved = `ISO-10303-21;
HEADER;
ENDSEC;
DATA;
#1=IFCPROJECT('1AbcDEFghijklmnopqrsT',$,'Demo Project',$,$,$,$,$,$);
#2=IFCSITE('2AbcDEFghijklmnopqrsT',$,'Site',$,$,$,$,$,$,$,$,$,$);
#3=IFCBUILDING('3AbcDEFghijklmnopqrsT',$,'Building',$,$,$,$,$,$,$,$,$);
#10=IFCRELAGGREGATES('10bcDEFghijklmnopqrsT',$,$,$,#1,(#2));
#11=IFCRELAGGREGATES('11bcDEFghijklmnopqrsT',$,$,$,#2,(#3));
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

func setup(t *testing.T) (context.Context, ingest.Deps, int64, *query.Layer) {
	t.Helper()
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
	q := query.New(tx, productRepo, branchRepo, revisionRepo, nil)
	return ctx, deps, branch.ID, q
}

func TestLayer_ProductAndProducts(t *testing.T) {
	ctx, deps, branchID, q := setup(t)

	if _, err := ingest.Run(ctx, deps, ingest.Input{
		BranchID:       branchID,
		IFCPath:        writeSample(t, sampleIFC),
		SourceFilename: "sample.ifc",
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	view, err := q.Product(ctx, branchID, "4AbcDEFghijklmnopqrsT", 0)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if view.IFCClass != "IfcWall" {
		t.Fatalf("ifc_class = %q, want IfcWall", view.IFCClass)
	}
	if view.ContainedIn == nil || *view.ContainedIn != "3AbcDEFghijklmnopqrsT" {
		t.Fatalf("contained_in = %v, want building", view.ContainedIn)
	}

	all, err := q.Products(ctx, branchID, 0, query.Filters{})
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("products = %d, want 4", len(all))
	}

	walls, err := q.Products(ctx, branchID, 0, query.Filters{IFCClasses: []string{"IfcWall"}})
	if err != nil {
		t.Fatalf("products(ifc_class=IfcWall): %v", err)
	}
	if len(walls) != 1 {
		t.Fatalf("wall filter = %d rows, want 1", len(walls))
	}

	searched, err := q.Products(ctx, branchID, 0, query.Filters{Search: "Wall 1"})
	if err != nil {
		t.Fatalf("products(search): %v", err)
	}
	if len(searched) != 1 {
		t.Fatalf("search filter = %d rows, want 1", len(searched))
	}
}

func TestLayer_RevisionsAndDiff(t *testing.T) {
	ctx, deps, branchID, q := setup(t)

	first, err := ingest.Run(ctx, deps, ingest.Input{
		BranchID:       branchID,
		IFCPath:        writeSample(t, sampleIFC),
		SourceFilename: "sample.ifc",
	})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := ingest.Run(ctx, deps, ingest.Input{
		BranchID:       branchID,
		IFCPath:        writeSample(t, sampleIFCWallRemoved),
		SourceFilename: "sample2.ifc",
	})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	summaries, err := q.Revisions(ctx, branchID)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("revisions = %d, want 2", len(summaries))
	}
	if summaries[0].Added != 4 {
		t.Fatalf("first revision added = %d, want 4", summaries[0].Added)
	}
	if summaries[1].Deleted != 1 {
		t.Fatalf("second revision deleted = %d, want 1", summaries[1].Deleted)
	}

	d, err := q.RevisionDiff(ctx, branchID, first.RevisionID, second.RevisionID)
	if err != nil {
		t.Fatalf("revision diff: %v", err)
	}
	if len(d.Deleted) != 1 || d.Deleted[0] != "4AbcDEFghijklmnopqrsT" {
		t.Fatalf("diff deleted = %v, want the wall", d.Deleted)
	}
	if len(d.Added) != 0 {
		t.Fatalf("diff added = %v, want none", d.Added)
	}

	reverse, err := q.RevisionDiff(ctx, branchID, second.RevisionID, first.RevisionID)
	if err != nil {
		t.Fatalf("reverse revision diff: %v", err)
	}
	if len(reverse.Added) != 1 || reverse.Added[0] != "4AbcDEFghijklmnopqrsT" {
		t.Fatalf("reverse diff added = %v, want the wall (diff symmetry)", reverse.Added)
	}
}
