package domain

import "testing"

func TestDiagnosticsJSON_RoundTrip(t *testing.T) {
	in := []string{"skipped entity #7: unrecognized type IFCFOO", "dangling edge: #12 -> #99"}
	got := ParseDiagnostics(DiagnosticsJSON(in))
	if len(got) != len(in) {
		t.Fatalf("round trip = %v, want %v", got, in)
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("round trip[%d] = %q, want %q", i, got[i], in[i])
		}
	}
}

func TestDiagnosticsJSON_NilNeverNull(t *testing.T) {
	raw := DiagnosticsJSON(nil)
	if string(raw) != "[]" {
		t.Fatalf("DiagnosticsJSON(nil) = %q, want []", string(raw))
	}
	if got := ParseDiagnostics(raw); len(got) != 0 {
		t.Fatalf("ParseDiagnostics([]) = %v, want empty", got)
	}
}

func TestParseDiagnostics_EmptyColumn(t *testing.T) {
	if got := ParseDiagnostics(nil); got != nil {
		t.Fatalf("ParseDiagnostics(nil column) = %v, want nil", got)
	}
}
