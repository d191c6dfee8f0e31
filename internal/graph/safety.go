package graph

import (
	"fmt"
	"regexp"
	"strings"
)

// OpenSentinel is the valid_to_rev value the graph store uses in place of
// null — Neo4j property maps reject nulls, so "open" is encoded as -1 on
// every node and edge. RevisionFilter and the write/read paths are the only
// places allowed to know about it; everything above this package works in
// terms of *int64 with nil meaning open, same as the relational side.
const OpenSentinel int64 = -1

var (
	globalIDPattern = regexp.MustCompile(`^[A-Za-z0-9_$]{22}$`)
	labelPattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

// ValidateGlobalID enforces the IFC base64-alphabet-plus-_$, length-22
// constraint. The graph queries pass global_id values as Cypher parameters
// (only labels and relationship types are embedded in the query text, see
// ValidateLabel); this check rejects a malformed id before any query runs.
func ValidateGlobalID(globalID string) error {
	if !globalIDPattern.MatchString(globalID) {
		return fmt.Errorf("graph: invalid global_id %q: must be 22 characters from [A-Za-z0-9_$]", globalID)
	}
	return nil
}

// ValidateLabel enforces the label/relationship-type grammar: an ASCII
// identifier starting with a letter. IFC class names and relationship
// entity names both satisfy this already; this guards against anything
// extracted from an untrusted IFC file that doesn't.
func ValidateLabel(label string) error {
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("graph: invalid label %q: must match [A-Za-z][A-Za-z0-9]*", label)
	}
	return nil
}

// EscapeString escapes a value for embedding inside a single-quoted Cypher
// string literal: backslashes first, then quotes, matching Cypher's own
// escaping rules.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// RevisionFilter renders the standard "visible at (branch, rev)" predicate
// against a node/edge alias, using the -1 open sentinel.
func RevisionFilter(alias string, branchID, rev int64) string {
	return fmt.Sprintf(
		"%s.branch_id = %d AND %s.valid_from_rev <= %d AND (%s.valid_to_rev = %d OR %s.valid_to_rev > %d)",
		alias, branchID, alias, rev, alias, OpenSentinel, alias, rev,
	)
}
