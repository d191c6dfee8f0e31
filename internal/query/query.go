// Package query implements the Query Layer: read operations scoped by
// (branch_id, revision), joining the relational store with the Graph
// Client for relations.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/graph"
	"github.com/bimatlas/bimatlas/internal/ifc"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
)

var tracer = otel.Tracer("github.com/bimatlas/bimatlas/internal/query")

// Layer is the Query Layer. It owns no connections of its own beyond the
// repos and graph client it is constructed with.
type Layer struct {
	DB         *gorm.DB
	ProductsRp repos.ProductRepo
	BranchRp   repos.BranchRepo
	RevisionRp repos.RevisionRepo
	Graph      *graph.Client
}

func New(db *gorm.DB, productsRp repos.ProductRepo, branchRp repos.BranchRepo, revisionRp repos.RevisionRepo, g *graph.Client) *Layer {
	return &Layer{DB: db, ProductsRp: productsRp, BranchRp: branchRp, RevisionRp: revisionRp, Graph: g}
}

// ProductView is a product enriched for a caller: mesh blobs base64-coded,
// contained_in as a reference, and graph relations attached.
type ProductView struct {
	GlobalID    string           `json:"global_id"`
	IFCClass    string           `json:"ifc_class"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ObjectType  string           `json:"object_type"`
	Tag         string           `json:"tag"`
	ContainedIn *string          `json:"contained_in,omitempty"`
	Mesh        *Mesh            `json:"mesh,omitempty"`
	Relations   []graph.Relation `json:"relations,omitempty"`
}

func viewFromRow(p *types.Product) ProductView {
	return ViewFromRowValues(p.GlobalID, p.IFCClass, p.Name, p.Description, p.ObjectType, p.Tag,
		p.ContainedIn, p.Vertices, p.Normals, p.Faces, p.Matrix)
}

// ViewFromRowValues builds a ProductView from column values directly,
// without a *types.Product — used by the Streaming Layer, which reads
// columns off a pgx.Rows cursor rather than through the repo.
func ViewFromRowValues(
	globalID, ifcClass, name, description, objectType, tag string,
	containedIn *string,
	vertices, normals, faces, matrix []byte,
) ProductView {
	return ProductView{
		GlobalID:    globalID,
		IFCClass:    ifcClass,
		Name:        name,
		Description: description,
		ObjectType:  objectType,
		Tag:         tag,
		ContainedIn: containedIn,
		Mesh:        encodeMesh(vertices, normals, faces, matrix),
	}
}

// resolveRevision returns rev if non-zero, else latest(branchID).
func (l *Layer) resolveRevision(ctx context.Context, branchID, rev int64) (int64, error) {
	if rev != 0 {
		return rev, nil
	}
	latest, err := l.RevisionRp.Latest(ctx, nil, branchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, apierr.New(404, "NotFound", fmt.Errorf("query: branch %d has no revisions", branchID))
		}
		return 0, apierr.New(500, "StoreError", err)
	}
	return latest.ID, nil
}

// Product resolves product(global_id, rev, branch).
func (l *Layer) Product(ctx context.Context, branchID int64, globalID string, rev int64) (*ProductView, error) {
	ctx, span := tracer.Start(ctx, "query.Product", trace.WithAttributes(
		attribute.Int64("branch_id", branchID),
		attribute.String("global_id", globalID),
	))
	defer span.End()

	rev, err := l.resolveRevision(ctx, branchID, rev)
	if err != nil {
		return nil, err
	}
	row, err := l.ProductsRp.VisibleAt(ctx, nil, branchID, globalID, rev)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apierr.New(404, "NotFound", fmt.Errorf("query: product %s not visible at revision %d", globalID, rev))
		}
		return nil, apierr.New(500, "StoreError", err)
	}
	view := viewFromRow(row)
	if l.Graph != nil && l.Graph.Enabled() {
		relations, err := l.Graph.RelationsOf(ctx, globalID, branchID, rev)
		if err == nil {
			view.Relations = relations
		}
	}
	return &view, nil
}

// Filters is the predicate set products() accepts.
type Filters struct {
	IFCClasses  []string
	ContainedIn *string
	Search      string
}

// Products resolves products(rev, branch, filters), expanding ifc_class
// filters to their hierarchy descendants client-side via internal/ifc.
func (l *Layer) Products(ctx context.Context, branchID int64, rev int64, filters Filters) ([]ProductView, error) {
	ctx, span := tracer.Start(ctx, "query.Products", trace.WithAttributes(
		attribute.Int64("branch_id", branchID),
	))
	defer span.End()

	rev, err := l.resolveRevision(ctx, branchID, rev)
	if err != nil {
		return nil, err
	}
	rows, err := l.ProductsRp.ListVisibleAt(ctx, nil, branchID, rev)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}

	var classSet map[string]bool
	if len(filters.IFCClasses) > 0 {
		expanded := ifc.ExpandClassFilter(filters.IFCClasses)
		classSet = make(map[string]bool, len(expanded))
		for _, c := range expanded {
			classSet[c] = true
		}
	}

	search := strings.ToLower(strings.TrimSpace(filters.Search))

	out := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		if classSet != nil && !classSet[row.IFCClass] {
			continue
		}
		if filters.ContainedIn != nil {
			if row.ContainedIn == nil || *row.ContainedIn != *filters.ContainedIn {
				continue
			}
		}
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		out = append(out, viewFromRow(row))
	}
	return out, nil
}

func matchesSearch(row *types.Product, needle string) bool {
	fields := []string{row.Name, row.ObjectType, row.Tag, row.Description}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// SpatialTree resolves spatial_tree(rev, branch) via the Graph Client. An
// absent or not-yet-mirrored graph returns an empty tree rather than an
// error: readers must tolerate a narrow window where a product exists
// relationally but its node in the graph mirror is not yet visible.
func (l *Layer) SpatialTree(ctx context.Context, branchID int64, rev int64) ([]*graph.SpatialTree, error) {
	ctx, span := tracer.Start(ctx, "query.SpatialTree", trace.WithAttributes(
		attribute.Int64("branch_id", branchID),
	))
	defer span.End()

	rev, err := l.resolveRevision(ctx, branchID, rev)
	if err != nil {
		return nil, err
	}
	if l.Graph == nil || !l.Graph.Enabled() {
		return nil, nil
	}
	tree, err := l.Graph.BuildSpatialTree(ctx, branchID, rev)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}
	return tree, nil
}

// Revisions resolves revisions(branch), enriched with added/modified/
// deleted/unchanged SCD2 counts per revision.
func (l *Layer) Revisions(ctx context.Context, branchID int64) ([]types.RevisionSummary, error) {
	ctx, span := tracer.Start(ctx, "query.Revisions", trace.WithAttributes(
		attribute.Int64("branch_id", branchID),
	))
	defer span.End()

	revs, err := l.RevisionRp.ListByBranch(ctx, nil, branchID)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}
	out := make([]types.RevisionSummary, 0, len(revs))
	for _, rev := range revs {
		introduced, err := l.ProductsRp.RowsIntroducedAt(ctx, nil, branchID, rev.ID)
		if err != nil {
			return nil, apierr.New(500, "StoreError", err)
		}
		closedRows, err := l.ProductsRp.RowsClosedAt(ctx, nil, branchID, rev.ID)
		if err != nil {
			return nil, apierr.New(500, "StoreError", err)
		}
		closedGlobalIDs := make(map[string]bool, len(closedRows))
		for _, row := range closedRows {
			closedGlobalIDs[row.GlobalID] = true
		}
		var added, modified int
		for _, row := range introduced {
			if closedGlobalIDs[row.GlobalID] {
				modified++
			} else {
				added++
			}
		}
		deleted := len(closedRows) - modified
		visible, err := l.ProductsRp.ListVisibleAt(ctx, nil, branchID, rev.ID)
		if err != nil {
			return nil, apierr.New(500, "StoreError", err)
		}

		out = append(out, types.RevisionSummary{
			Revision:  *rev,
			Added:     added,
			Modified:  modified,
			Deleted:   deleted,
			Unchanged: len(visible) - len(introduced),
		})
	}
	return out, nil
}

// RevisionDiff resolves revision_diff(from_rev, to_rev, branch): a
// symmetric SCD2 diff based on visibility, not content hash.
type RevisionDiffResult struct {
	Added     []string `json:"added"`
	Deleted   []string `json:"deleted"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`
}

func (l *Layer) RevisionDiff(ctx context.Context, branchID, fromRev, toRev int64) (*RevisionDiffResult, error) {
	ctx, span := tracer.Start(ctx, "query.RevisionDiff", trace.WithAttributes(
		attribute.Int64("branch_id", branchID),
		attribute.Int64("from_rev", fromRev),
		attribute.Int64("to_rev", toRev),
	))
	defer span.End()

	fromRows, err := l.ProductsRp.ListVisibleAt(ctx, nil, branchID, fromRev)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}
	toRows, err := l.ProductsRp.ListVisibleAt(ctx, nil, branchID, toRev)
	if err != nil {
		return nil, apierr.New(500, "StoreError", err)
	}

	fromByGlobalID := make(map[string]int64, len(fromRows))
	for _, row := range fromRows {
		fromByGlobalID[row.GlobalID] = row.ID
	}
	toByGlobalID := make(map[string]int64, len(toRows))
	for _, row := range toRows {
		toByGlobalID[row.GlobalID] = row.ID
	}

	result := &RevisionDiffResult{}
	for globalID, toID := range toByGlobalID {
		fromID, existed := fromByGlobalID[globalID]
		switch {
		case !existed:
			result.Added = append(result.Added, globalID)
		case fromID != toID:
			result.Modified = append(result.Modified, globalID)
		default:
			result.Unchanged = append(result.Unchanged, globalID)
		}
	}
	for globalID := range fromByGlobalID {
		if _, stillVisible := toByGlobalID[globalID]; !stillVisible {
			result.Deleted = append(result.Deleted, globalID)
		}
	}
	return result, nil
}
