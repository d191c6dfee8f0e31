package stream

import (
	"strings"
	"testing"

	"github.com/bimatlas/bimatlas/internal/query"
)

func TestBuildWhere_RevisionFilterAlwaysPresent(t *testing.T) {
	where, args := buildWhere(7, 3, query.Filters{})
	if !strings.Contains(where, "branch_id = $1") {
		t.Fatalf("where missing branch_id predicate: %q", where)
	}
	if !strings.Contains(where, "valid_from_rev <= $2") || !strings.Contains(where, "valid_to_rev IS NULL OR valid_to_rev > $3") {
		t.Fatalf("where missing visibility predicate: %q", where)
	}
	if len(args) != 3 || args[0] != int64(7) || args[1] != int64(3) || args[2] != int64(3) {
		t.Fatalf("args = %v, want [7 3 3]", args)
	}
}

func TestBuildWhere_ClassContainedInAndSearchCompose(t *testing.T) {
	containedIn := "3AbcDEFghijklmnopqrsT"
	where, args := buildWhere(1, 5, query.Filters{
		IFCClasses:  []string{"IfcWall"},
		ContainedIn: &containedIn,
		Search:      "Wall 1",
	})
	if !strings.Contains(where, "ifc_class IN") {
		t.Fatalf("where missing ifc_class predicate: %q", where)
	}
	if !strings.Contains(where, "contained_in = $") {
		t.Fatalf("where missing contained_in predicate: %q", where)
	}
	if !strings.Contains(where, "ILIKE") {
		t.Fatalf("where missing search predicate: %q", where)
	}
	// IfcWall expands to itself plus IfcWallStandardCase (internal/ifc
	// hierarchy table), plus branch_id, revision x2, contained_in, search.
	if len(args) < 7 {
		t.Fatalf("args = %v, want at least 7 placeholders", args)
	}
}
