package diff

import (
	"sort"
	"testing"
)

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestCompute_AddedModifiedDeletedUnchanged(t *testing.T) {
	open := map[string]string{
		"A": "hash-a-1",
		"B": "hash-b-1",
		"C": "hash-c-1",
	}
	next := map[string]string{
		"A": "hash-a-1", // unchanged
		"B": "hash-b-2", // modified
		"D": "hash-d-1", // added
	}

	result := Compute(open, next)

	if got := sortedStrings(result.Added); len(got) != 1 || got[0] != "D" {
		t.Fatalf("Added = %v, want [D]", got)
	}
	if got := sortedStrings(result.Modified); len(got) != 1 || got[0] != "B" {
		t.Fatalf("Modified = %v, want [B]", got)
	}
	if got := sortedStrings(result.Deleted); len(got) != 1 || got[0] != "C" {
		t.Fatalf("Deleted = %v, want [C]", got)
	}
	if got := sortedStrings(result.Unchanged); len(got) != 1 || got[0] != "A" {
		t.Fatalf("Unchanged = %v, want [A]", got)
	}

	counts := result.Counts()
	if counts.Added != 1 || counts.Modified != 1 || counts.Deleted != 1 || counts.Unchanged != 1 {
		t.Fatalf("Counts() = %+v, want all 1s", counts)
	}
}

func TestCompute_Idempotence(t *testing.T) {
	open := map[string]string{"A": "h1", "B": "h2"}
	result := Compute(open, open)
	if len(result.Added) != 0 || len(result.Modified) != 0 || len(result.Deleted) != 0 {
		t.Fatalf("re-ingesting an identical snapshot must yield no added/modified/deleted, got %+v", result)
	}
	if len(result.Unchanged) != 2 {
		t.Fatalf("Unchanged = %d, want 2", len(result.Unchanged))
	}
}

func TestCompute_EmptyBranch(t *testing.T) {
	result := Compute(nil, map[string]string{"A": "h1"})
	if len(result.Added) != 1 || result.Added[0] != "A" {
		t.Fatalf("Added = %v, want [A]", result.Added)
	}
	if len(result.Modified) != 0 || len(result.Deleted) != 0 || len(result.Unchanged) != 0 {
		t.Fatalf("expected only Added on an empty branch, got %+v", result)
	}
}
