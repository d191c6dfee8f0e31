package stream_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/platform/testutil"
	"github.com/bimatlas/bimatlas/internal/stream"
)

// TestRun_StreamsStartProductEnd exercises the Streaming Layer against a
// committed branch (not a rolled-back transaction): the pgx pool Run reads
// through is a connection independent of gorm's, so it would never see
// uncommitted rows. Rows are cleaned up explicitly afterward.
func TestRun_StreamsStartProductEnd(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	pool := testutil.Pgx(t)

	ctx := context.Background()
	projectRepo := repos.NewProjectRepo(db, log)
	branchRepo := repos.NewBranchRepo(db, log)
	revisionRepo := repos.NewRevisionRepo(db, log)
	productRepo := repos.NewProductRepo(db, log)

	project, err := projectRepo.Create(ctx, nil, &types.Project{Name: "Stream Test"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	branch, err := branchRepo.Create(ctx, nil, &types.Branch{ProjectID: project.ID, Name: "main"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	rev, err := revisionRepo.Create(ctx, nil, &types.Revision{BranchID: branch.ID, SourceFilename: "x.ifc"})
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}
	if err := productRepo.CreateOpen(ctx, nil, []*types.Product{{
		BranchID: branch.ID, GlobalID: "4AbcDEFghijklmnopqrsT", IFCClass: "IfcWall",
		Name: "Wall 1", ContentHash: "h1", ValidFromRev: rev.ID,
	}}); err != nil {
		t.Fatalf("create open row: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM ifc_products WHERE branch_id = ?", branch.ID)
		db.Exec("DELETE FROM revisions WHERE branch_id = ?", branch.ID)
		db.Exec("DELETE FROM branches WHERE id = ?", branch.ID)
		db.Exec("DELETE FROM projects WHERE id = ?", project.ID)
	})

	var buf bytes.Buffer
	deps := stream.Deps{Pool: pool, RevisionRp: revisionRepo, Log: log}
	if err := stream.Run(ctx, deps, stream.Input{BranchID: branch.ID}, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	frames := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3 (start, product, end)", len(frames))
	}

	var start struct {
		Type  string `json:"type"`
		Total int    `json:"total"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &start); err != nil {
		t.Fatalf("unmarshal start: %v", err)
	}
	if start.Type != "start" || start.Total != 1 {
		t.Fatalf("start = %+v, want {start 1}", start)
	}

	var end struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[2], "data: ")), &end); err != nil {
		t.Fatalf("unmarshal end: %v", err)
	}
	if end.Type != "end" {
		t.Fatalf("end.Type = %q, want end", end.Type)
	}
}
