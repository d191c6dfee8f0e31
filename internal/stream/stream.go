// Package stream implements the Streaming Layer: a server-sent stream of
// product events for a (branch, revision, filters)
// triple, read row-at-a-time off pgx rather than through gorm's buffered
// scan so a large branch does not get materialized into memory before the
// first byte is written.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/ifc"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/platform/pgxdb"
	"github.com/bimatlas/bimatlas/internal/query"
)

// Deps are the collaborators Run needs.
type Deps struct {
	Pool       *pgxdb.Pool
	RevisionRp repos.RevisionRepo
	Log        *logger.Logger
}

// Input is one stream request.
type Input struct {
	BranchID int64
	Revision int64
	Filters  query.Filters
}

// event is the envelope every frame is marshaled from. Only the fields
// relevant to Type are populated.
type event struct {
	Type    string             `json:"type"`
	Total   int                `json:"total,omitempty"`
	Current int                `json:"current,omitempty"`
	Product *query.ProductView `json:"product,omitempty"`
	Message string             `json:"message,omitempty"`
}

// Flusher is satisfied by http.ResponseWriter; kept as its own interface
// so Run doesn't import net/http.
type Flusher interface {
	Flush()
}

// Run writes start/product*/end (or error) frames to w, flushing after
// every frame so the consumer's read drives the pace of production. w
// must also implement Flusher for the stream to be usable over HTTP; a
// plain io.Writer works for tests.
func Run(ctx context.Context, deps Deps, in Input, w io.Writer) error {
	log := deps.Log.With("component", "StreamHandler", "branch_id", in.BranchID)
	flusher, _ := w.(Flusher)

	rev := in.Revision
	if rev == 0 {
		latest, err := deps.RevisionRp.Latest(ctx, nil, in.BranchID)
		if err != nil {
			return writeEvent(w, flusher, event{Type: "error", Message: "no revisions for this branch"})
		}
		rev = latest.ID
	}

	where, args := buildWhere(in.BranchID, rev, in.Filters)

	var total int
	countSQL := "SELECT count(*) FROM ifc_products WHERE " + where
	if err := deps.Pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		log.Error("stream: count query failed", "error", err)
		return writeEvent(w, flusher, event{Type: "error", Message: "query failed"})
	}
	if err := writeEvent(w, flusher, event{Type: "start", Total: total}); err != nil {
		return err
	}

	rowSQL := "SELECT global_id, ifc_class, name, description, object_type, tag, contained_in, " +
		"vertices, normals, faces, matrix FROM ifc_products WHERE " + where +
		" ORDER BY global_id ASC"
	rows, err := deps.Pool.Query(ctx, rowSQL, args...)
	if err != nil {
		log.Error("stream: row query failed", "error", err)
		return writeEvent(w, flusher, event{Type: "error", Message: "query failed"})
	}
	defer rows.Close()

	current := 0
	for rows.Next() {
		var (
			globalID, ifcClass, name, description, objectType, tag string
			containedIn                                            *string
			vertices, normals, faces, matrix                       []byte
		)
		if err := rows.Scan(&globalID, &ifcClass, &name, &description, &objectType, &tag,
			&containedIn, &vertices, &normals, &faces, &matrix); err != nil {
			log.Error("stream: row scan failed", "error", err)
			return writeEvent(w, flusher, event{Type: "error", Message: "query failed"})
		}
		current++
		product := query.ViewFromRowValues(globalID, ifcClass, name, description, objectType, tag,
			containedIn, vertices, normals, faces, matrix)
		if err := writeEvent(w, flusher, event{Type: "product", Current: current, Product: &product}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		log.Error("stream: row iteration failed", "error", err)
		return writeEvent(w, flusher, event{Type: "error", Message: "query failed"})
	}

	return writeEvent(w, flusher, event{Type: "end"})
}

func writeEvent(w io.Writer, flusher Flusher, e event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return apierr.New(500, "StoreError", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

// buildWhere renders the revision-visibility predicate plus whichever of
// Filters was supplied, as a $-parameterized WHERE clause.
func buildWhere(branchID, rev int64, filters query.Filters) (string, []any) {
	var clauses []string
	var args []any

	args = append(args, branchID)
	clauses = append(clauses, fmt.Sprintf("branch_id = $%d", len(args)))

	args = append(args, rev)
	fromIdx := len(args)
	args = append(args, rev)
	toIdx := len(args)
	clauses = append(clauses, fmt.Sprintf("valid_from_rev <= $%d AND (valid_to_rev IS NULL OR valid_to_rev > $%d)", fromIdx, toIdx))

	if len(filters.IFCClasses) > 0 {
		expanded := ifc.ExpandClassFilter(filters.IFCClasses)
		placeholders := make([]string, 0, len(expanded))
		for _, class := range expanded {
			args = append(args, class)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, fmt.Sprintf("ifc_class IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filters.ContainedIn != nil {
		args = append(args, *filters.ContainedIn)
		clauses = append(clauses, fmt.Sprintf("contained_in = $%d", len(args)))
	}

	if search := strings.TrimSpace(filters.Search); search != "" {
		args = append(args, "%"+search+"%")
		idx := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE $%d OR object_type ILIKE $%d OR tag ILIKE $%d OR description ILIKE $%d)",
			idx, idx, idx, idx,
		))
	}

	return strings.Join(clauses, " AND "), args
}
