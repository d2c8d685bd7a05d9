package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

// =============================================================================
// Report Tests
// =============================================================================

func TestReport_ZeroValue_ShouldBeEmptyAndClean(t *testing.T) {
	var r Report
	if r.HasErrors() {
		t.Error("Expected zero-value report to have no errors")
	}
	if len(r.Findings) != 0 {
		t.Errorf("Expected no findings, got %d", len(r.Findings))
	}
}

func TestReport_AddError_ShouldFlagHasErrors(t *testing.T) {
	var r Report
	r.AddError(KindTypeMismatch, "$.amount", "expected number, got string")

	if !r.HasErrors() {
		t.Error("Expected HasErrors after AddError")
	}
	if len(r.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(r.Findings))
	}
	f := r.Findings[0]
	if f.Severity != SeverityError || f.Kind != KindTypeMismatch || f.Path != "$.amount" {
		t.Errorf("Unexpected finding: %+v", f)
	}
}

func TestReport_AddWarning_ShouldNotFlagHasErrors(t *testing.T) {
	var r Report
	r.AddWarning(KindUnknownField, "$.note", "field not declared")

	if r.HasErrors() {
		t.Error("Warnings must not count as errors")
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("Expected 1 warning, got %d", len(r.Warnings()))
	}
	if len(r.Errors()) != 0 {
		t.Errorf("Expected 0 errors, got %d", len(r.Errors()))
	}
}

func TestReport_Merge_ShouldPreserveDiscoveryOrder(t *testing.T) {
	var a, b Report
	a.AddError(KindMissingRequired, "$.x", "first")
	a.AddWarning(KindUnknownField, "$.y", "second")
	b.AddError(KindTypeMismatch, "$.z", "third")

	a.Merge(b)

	got := make([]string, 0, len(a.Findings))
	for _, f := range a.Findings {
		got = append(got, f.Message)
	}
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
}

func TestReport_Merge_WithEmptyOther_ShouldBeNoOp(t *testing.T) {
	var a, empty Report
	a.AddError(KindSpecInvalid, "$", "bad spec")
	a.Merge(empty)

	if len(a.Findings) != 1 {
		t.Errorf("Expected 1 finding after merging empty report, got %d", len(a.Findings))
	}
}

// =============================================================================
// CallPayload Tests
// =============================================================================

func TestCallPayload_UnmarshalJSON_ShouldPopulateAllFields(t *testing.T) {
	raw := `{"name":"tip calculator","namespace":"demo","arguments":{"bill_amount":50,"tip_percentage":15}}`

	var p CallPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.Name != "tip calculator" || p.Namespace != "demo" {
		t.Errorf("Unexpected identity: %+v", p)
	}
	if len(p.Arguments) != 2 {
		t.Errorf("Expected 2 arguments, got %d", len(p.Arguments))
	}
}
