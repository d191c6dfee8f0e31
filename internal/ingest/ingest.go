// Package ingest implements the Revision Writer: the orchestrator that
// turns one IFC file into a new revision, atomically on the relational side
// and best-effort on the graph side.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/diff"
	"github.com/bimatlas/bimatlas/internal/graph"
	"github.com/bimatlas/bimatlas/internal/ifc/extractor"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
	"github.com/bimatlas/bimatlas/internal/platform/logger"

	"github.com/bimatlas/bimatlas/internal/data/repos"
)

var tracer = otel.Tracer("github.com/bimatlas/bimatlas/internal/ingest")

// Deps are the collaborators the Revision Writer needs, passed once as a
// struct rather than a long positional parameter list.
type Deps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Extractor  *extractor.Extractor
	ProductsRp repos.ProductRepo
	RevisionRp repos.RevisionRepo
	Graph      *graph.Client
}

// Input is one ingest request.
type Input struct {
	BranchID       int64
	IFCPath        string
	SourceFilename string
	Label          string
}

// Result is the outcome of one ingestion run.
type Result struct {
	RevisionID   int64       `json:"revision_id"`
	Counts       diff.Counts `json:"counts"`
	EdgesCreated int         `json:"edges_created"`
	Diagnostics  []string    `json:"diagnostics,omitempty"`
}

// Run executes the full seven-step ingestion algorithm: extract, begin a
// transaction, diff against the open rows, close superseded rows, insert
// new rows, commit, then mirror the change to the graph best-effort.
func Run(ctx context.Context, deps Deps, in Input) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ingest.Run", trace.WithAttributes(
		attribute.Int64("branch_id", in.BranchID),
	))
	defer span.End()

	if deps.DB == nil || deps.ProductsRp == nil || deps.RevisionRp == nil {
		return nil, fmt.Errorf("ingest: missing required dependency")
	}
	if in.BranchID == 0 {
		return nil, apierr.New(400, "ValidationError", fmt.Errorf("ingest: branch_id required"))
	}
	log := deps.Log.With("component", "Ingest", "branch_id", in.BranchID)

	// Step 1: open the file once and extract before touching storage.
	_, extractSpan := tracer.Start(ctx, "ingest.extract")
	extraction, err := deps.Extractor.ExtractFile(in.IFCPath)
	extractSpan.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	newSnapshot := make(map[string]string, len(extraction.Products))
	byGlobalID := make(map[string]types.ProductRecord, len(extraction.Products))
	for _, p := range extraction.Products {
		newSnapshot[p.GlobalID] = p.ContentHash
		byGlobalID[p.GlobalID] = p
	}

	result := &Result{Diagnostics: append([]string(nil), extraction.Diagnostics...)}

	// Steps 2-6: a single relational transaction. Everything up to Commit
	// is the point of truth; nothing graph-related happens inside it.
	var d diff.Result
	closingClassByGlobalID := map[string]string{}
	txCtx, txSpan := tracer.Start(ctx, "ingest.relational_write")
	err = deps.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := advisoryLockBranch(tx, in.BranchID); err != nil {
			return fmt.Errorf("ingest: acquire branch lock: %w", err)
		}

		rev := &types.Revision{
			BranchID:       in.BranchID,
			Label:          in.Label,
			SourceFilename: in.SourceFilename,
			CreatedAt:      time.Now().UTC(),
			Diagnostics:    types.DiagnosticsJSON(extraction.Diagnostics),
		}
		if _, err := deps.RevisionRp.Create(ctx, tx, rev); err != nil {
			return fmt.Errorf("ingest: create revision: %w", err)
		}
		result.RevisionID = rev.ID

		openRows, err := deps.ProductsRp.ListOpenByBranch(ctx, tx, in.BranchID)
		if err != nil {
			return fmt.Errorf("ingest: load open rows: %w", err)
		}
		openHashes := make(map[string]string, len(openRows))
		for _, row := range openRows {
			openHashes[row.GlobalID] = row.ContentHash
			// Captured before any close below: the graph mirror needs
			// the pre-image class of every row that is about to be
			// closed, since a closed relational row can no longer be
			// looked up by "open" queries afterward.
			closingClassByGlobalID[row.GlobalID] = row.IFCClass
		}

		d = diffEngineCompute(openHashes, newSnapshot)
		result.Counts = d.Counts()

		for _, globalID := range append(append([]string{}, d.Modified...), d.Deleted...) {
			if err := deps.ProductsRp.CloseOpen(ctx, tx, in.BranchID, globalID, rev.ID); err != nil {
				return fmt.Errorf("ingest: close open row %s: %w", globalID, err)
			}
		}

		addedOrModified := append(append([]string{}, d.Added...), d.Modified...)
		newRows := make([]*types.Product, 0, len(addedOrModified))
		for _, globalID := range addedOrModified {
			p := byGlobalID[globalID]
			row := &types.Product{
				BranchID:     in.BranchID,
				GlobalID:     p.GlobalID,
				IFCClass:     p.IFCClass,
				Name:         p.Name,
				Description:  p.Description,
				ObjectType:   p.ObjectType,
				Tag:          p.Tag,
				ContentHash:  p.ContentHash,
				ValidFromRev: rev.ID,
			}
			if p.ContainedIn != "" {
				containedIn := p.ContainedIn
				row.ContainedIn = &containedIn
			}
			row.Vertices = encodeFloat32s(p.Vertices)
			row.Normals = encodeFloat32s(p.Normals)
			row.Faces = encodeUint32s(p.Faces)
			row.Matrix = encodeFloat32s(p.Matrix[:])
			newRows = append(newRows, row)
		}
		if err := deps.ProductsRp.CreateOpen(ctx, tx, newRows); err != nil {
			return fmt.Errorf("ingest: insert new rows: %w", err)
		}
		return nil
	})
	txSpan.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Step 7: best-effort graph mirror. A failure here is logged, not
	// returned — the relational commit above is already the point of
	// truth.
	mirrorCtx, mirrorSpan := tracer.Start(ctx, "ingest.graph_mirror")
	edgesCreated, mirrorDiagnostics := mirrorToGraph(
		mirrorCtx, deps, log, in.BranchID, result.RevisionID,
		byGlobalID, closingClassByGlobalID,
		d.Added, d.Modified, d.Deleted,
		extraction.Relationships,
	)
	mirrorSpan.End()
	result.EdgesCreated = edgesCreated
	result.Diagnostics = append(result.Diagnostics, mirrorDiagnostics...)
	if len(mirrorDiagnostics) > 0 {
		// Best-effort: the revision row is already committed and is the
		// point of truth (step 6); failing to persist the mirror's
		// diagnostics onto it only means a later reader of revisions()
		// won't see them, not that ingestion failed.
		if err := deps.RevisionRp.AppendDiagnostics(ctx, nil, result.RevisionID, mirrorDiagnostics); err != nil {
			log.Warn("append mirror diagnostics to revision", "revision_id", result.RevisionID, "error", err)
		}
	}

	span.SetAttributes(attribute.Int64("revision_id", result.RevisionID))
	return result, nil
}

// diffEngineCompute is a thin indirection point so the ingestion
// orchestrator and the diff package stay decoupled from each other's
// internal types; kept as a function (not inlined) to mirror the numbered
// steps of the Revision Writer's algorithm one for one.
func diffEngineCompute(open, next map[string]string) diff.Result {
	return diff.Compute(open, next)
}

func advisoryLockBranch(tx *gorm.DB, branchID int64) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", branchID).Error
}
