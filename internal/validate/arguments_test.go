package validate

import (
	"errors"
	"reflect"
	"testing"

	"specgate/internal/domain"
	"specgate/internal/registry"
	"specgate/internal/spec"
)

// =============================================================================
// Fixtures — the canonical conformance specs
// =============================================================================

func tipCalculator() *spec.Spec {
	return spec.New("demo", "tip calculator", "Calculate the tip for a restaurant bill",
		spec.Object(map[string]*spec.Node{
			"bill_amount":    spec.Number("The total bill amount"),
			"tip_percentage": spec.Number("The percentage to tip"),
		}, "bill_amount", "tip_percentage"))
}

func trackExpenses() *spec.Spec {
	return spec.New("demo", "track expenses", "Record an expense",
		spec.Object(map[string]*spec.Node{
			"category": spec.String("Expense category"),
			"amount":   spec.Number("Amount spent"),
			"date":     spec.String("Date of the expense"),
		}, "category", "amount", "date"))
}

func routeCalculator() *spec.Spec {
	return spec.New("demo", "route calculator", "Calculate the best route",
		spec.Object(map[string]*spec.Node{
			"locations": spec.Array(spec.String("A location to visit")),
			"options": spec.Object(map[string]*spec.Node{
				"avoid_tolls": spec.Boolean("Skip toll roads"),
				"max_stops":   spec.Number("Maximum number of stops"),
			}, "avoid_tolls"),
		}, "locations"))
}

func kinds(rep domain.Report, kind domain.FindingKind) []domain.Finding {
	var out []domain.Finding
	for _, f := range rep.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Scenario Tests (canonical fixtures)
// =============================================================================

func TestValidate_TipCalculator_WhenConforming_ShouldReturnEmptyReport(t *testing.T) {
	rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
		"bill_amount":    50,
		"tip_percentage": 15,
	})
	if len(rep.Findings) != 0 {
		t.Errorf("Expected empty report, got: %+v", rep.Findings)
	}
}

func TestValidate_TipCalculator_WhenFieldMissing_ShouldReportExactlyOneMissingRequired(t *testing.T) {
	rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
		"bill_amount": 50.0,
	})

	errs := rep.Errors()
	if len(errs) != 1 {
		t.Fatalf("Expected exactly 1 error, got %d: %+v", len(errs), rep.Findings)
	}
	f := errs[0]
	if f.Kind != domain.KindMissingRequired || f.Path != "$.tip_percentage" {
		t.Errorf("Expected MISSING_REQUIRED at $.tip_percentage, got %+v", f)
	}
}

func TestValidate_TipCalculator_WhenFieldWrongKind_ShouldReportExactlyOneTypeMismatch(t *testing.T) {
	rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
		"bill_amount":    "fifty",
		"tip_percentage": 15,
	})

	errs := rep.Errors()
	if len(errs) != 1 {
		t.Fatalf("Expected exactly 1 error, got %d: %+v", len(errs), rep.Findings)
	}
	f := errs[0]
	if f.Kind != domain.KindTypeMismatch || f.Path != "$.bill_amount" {
		t.Errorf("Expected TYPE_MISMATCH at $.bill_amount, got %+v", f)
	}
	if f.Message != "expected number, got string" {
		t.Errorf("Unexpected message: %q", f.Message)
	}
}

func TestValidate_TrackExpenses_WithBenignExtra_ShouldWarnOnly(t *testing.T) {
	rep := New(PolicyWarn).Validate(trackExpenses(), map[string]any{
		"category": "food",
		"amount":   12.5,
		"date":     "2024-01-01",
		"note":     "lunch",
	})

	if rep.HasErrors() {
		t.Fatalf("Expected no errors, got: %+v", rep.Errors())
	}
	warns := rep.Warnings()
	if len(warns) != 1 {
		t.Fatalf("Expected exactly 1 warning, got %d", len(warns))
	}
	if warns[0].Kind != domain.KindUnknownField || warns[0].Path != "$.note" {
		t.Errorf("Expected UNKNOWN_FIELD at $.note, got %+v", warns[0])
	}
}

// =============================================================================
// Required-field completeness
// =============================================================================

func TestValidate_WhenKFieldsMissing_ShouldReportKMissingRequired(t *testing.T) {
	rep := New(PolicyWarn).Validate(trackExpenses(), map[string]any{})

	missing := kinds(rep, domain.KindMissingRequired)
	if len(missing) != 3 {
		t.Fatalf("Expected 3 MISSING_REQUIRED findings, got %d: %+v", len(missing), rep.Findings)
	}
}

func TestValidate_RequiredCheck_ShouldRunDespiteSiblingKindFailures(t *testing.T) {
	rep := New(PolicyWarn).Validate(trackExpenses(), map[string]any{
		"category": 42, // kind failure
		// amount and date missing
	})

	if got := len(kinds(rep, domain.KindMissingRequired)); got != 2 {
		t.Errorf("Expected 2 MISSING_REQUIRED despite sibling failure, got %d", got)
	}
	if got := len(kinds(rep, domain.KindTypeMismatch)); got != 1 {
		t.Errorf("Expected 1 TYPE_MISMATCH, got %d", got)
	}
}

func TestValidate_WhenRequiredFieldExplicitlyNull_ShouldReportMissingRequiredOnly(t *testing.T) {
	rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
		"bill_amount":    nil,
		"tip_percentage": 15,
	})

	errs := rep.Errors()
	if len(errs) != 1 || errs[0].Kind != domain.KindMissingRequired {
		t.Fatalf("Expected single MISSING_REQUIRED for explicit null, got: %+v", rep.Findings)
	}
}

func TestValidate_WhenOptionalFieldAbsent_ShouldNotReport(t *testing.T) {
	rep := New(PolicyWarn).Validate(routeCalculator(), map[string]any{
		"locations": []any{"a", "b"},
		// options absent: declared but not required
	})
	if len(rep.Findings) != 0 {
		t.Errorf("Expected clean report, got: %+v", rep.Findings)
	}
}

func TestValidate_WhenOptionalFieldExplicitlyNull_ShouldReportTypeMismatch(t *testing.T) {
	rep := New(PolicyWarn).Validate(routeCalculator(), map[string]any{
		"locations": []any{"a"},
		"options":   nil,
	})

	errs := rep.Errors()
	if len(errs) != 1 || errs[0].Kind != domain.KindTypeMismatch || errs[0].Path != "$.options" {
		t.Fatalf("Expected TYPE_MISMATCH at $.options for explicit null, got: %+v", rep.Findings)
	}
}

// =============================================================================
// Kind-check soundness
// =============================================================================

func TestValidate_LeafKindMismatch_ShouldYieldExactlyOneFindingPerLeaf(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"string for number", "fifty"},
		{"bool for number", true},
		{"array for number", []any{1.0}},
		{"object for number", map[string]any{"v": 1.0}},
	}
	for _, tc := range cases {
		rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
			"bill_amount":    tc.value,
			"tip_percentage": 15,
		})
		errs := rep.Errors()
		if len(errs) != 1 || errs[0].Kind != domain.KindTypeMismatch || errs[0].Path != "$.bill_amount" {
			t.Errorf("%s: expected single TYPE_MISMATCH at $.bill_amount, got: %+v", tc.name, rep.Findings)
		}
	}
}

func TestValidate_NumberKind_ShouldAcceptIntegerAndReal(t *testing.T) {
	for _, v := range []any{50, int64(50), 50.0, float32(50)} {
		rep := New(PolicyWarn).Validate(tipCalculator(), map[string]any{
			"bill_amount":    v,
			"tip_percentage": 15,
		})
		if rep.HasErrors() {
			t.Errorf("Expected %T to satisfy number, got: %+v", v, rep.Errors())
		}
	}
}

func TestValidate_WhenObjectExpectedButStringGiven_ShouldNotRecurseIntoChildren(t *testing.T) {
	rep := New(PolicyWarn).Validate(routeCalculator(), map[string]any{
		"locations": []any{"a"},
		"options":   "not an object",
	})

	errs := rep.Errors()
	if len(errs) != 1 {
		t.Fatalf("Expected exactly 1 error (no recursion into mismatched value), got %d: %+v",
			len(errs), rep.Findings)
	}
	if errs[0].Path != "$.options" {
		t.Errorf("Expected error at $.options, got %q", errs[0].Path)
	}
	// In particular, no MISSING_REQUIRED for options.avoid_tolls.
	if got := len(kinds(rep, domain.KindMissingRequired)); got != 0 {
		t.Errorf("A string must not be destructured as an object; got %d MISSING_REQUIRED", got)
	}
}

// =============================================================================
// Recursion: nested objects and arrays
// =============================================================================

func TestValidate_ArrayElements_ShouldBeCheckedWithIndexedPaths(t *testing.T) {
	rep := New(PolicyWarn).Validate(routeCalculator(), map[string]any{
		"locations": []any{"a", 42, "c", true},
	})

	errs := rep.Errors()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %+v", len(errs), rep.Findings)
	}
	if errs[0].Path != "$.locations[1]" || errs[1].Path != "$.locations[3]" {
		t.Errorf("Expected indexed paths, got %q and %q", errs[0].Path, errs[1].Path)
	}
}

func TestValidate_NestedObject_ShouldCheckRequiredAndKindsWithDottedPaths(t *testing.T) {
	rep := New(PolicyWarn).Validate(routeCalculator(), map[string]any{
		"locations": []any{"a"},
		"options": map[string]any{
			"max_stops": "three", // wrong kind; avoid_tolls missing
		},
	})

	missing := kinds(rep, domain.KindMissingRequired)
	if len(missing) != 1 || missing[0].Path != "$.options.avoid_tolls" {
		t.Errorf("Expected MISSING_REQUIRED at $.options.avoid_tolls, got: %+v", missing)
	}
	mismatch := kinds(rep, domain.KindTypeMismatch)
	if len(mismatch) != 1 || mismatch[0].Path != "$.options.max_stops" {
		t.Errorf("Expected TYPE_MISMATCH at $.options.max_stops, got: %+v", mismatch)
	}
}

func TestValidate_MultipleChildFailures_ShouldAllAccumulate(t *testing.T) {
	rep := New(PolicyWarn).Validate(trackExpenses(), map[string]any{
		"category": 1,
		"amount":   "a lot",
		"date":     false,
	})
	if got := len(kinds(rep, domain.KindTypeMismatch)); got != 3 {
		t.Errorf("Expected 3 accumulated TYPE_MISMATCH findings, got %d", got)
	}
}

// =============================================================================
// Unknown-field policy
// =============================================================================

func TestValidate_UnknownField_PolicySwitch_ShouldFlipSeverity(t *testing.T) {
	payload := map[string]any{
		"category": "food",
		"amount":   12.5,
		"date":     "2024-01-01",
		"surprise": true,
	}

	warnRep := New(PolicyWarn).Validate(trackExpenses(), payload)
	if warnRep.HasErrors() {
		t.Errorf("warn policy: expected no errors, got: %+v", warnRep.Errors())
	}
	if len(warnRep.Warnings()) != 1 {
		t.Errorf("warn policy: expected 1 warning, got %d", len(warnRep.Warnings()))
	}

	rejectRep := New(PolicyReject).Validate(trackExpenses(), payload)
	if !rejectRep.HasErrors() {
		t.Error("reject policy: expected errors")
	}
	errs := rejectRep.Errors()
	if len(errs) != 1 || errs[0].Kind != domain.KindUnknownField {
		t.Errorf("reject policy: expected single UNKNOWN_FIELD error, got: %+v", errs)
	}
}

func TestValidate_ZeroValueValidator_ShouldDefaultToWarn(t *testing.T) {
	var v Validator
	rep := v.Validate(trackExpenses(), map[string]any{
		"category": "food",
		"amount":   1.0,
		"date":     "2024-01-01",
		"extra":    "x",
	})
	if rep.HasErrors() {
		t.Errorf("Zero-value validator should warn, not reject: %+v", rep.Errors())
	}
}

func TestParsePolicy_ShouldDefaultToWarn(t *testing.T) {
	if ParsePolicy("reject") != PolicyReject {
		t.Error("Expected reject to parse")
	}
	for _, s := range []string{"", "warn", "nonsense"} {
		if ParsePolicy(s) != PolicyWarn {
			t.Errorf("Expected %q to default to warn", s)
		}
	}
}

// =============================================================================
// Determinism & programmer errors
// =============================================================================

func TestValidate_SameInputTwice_ShouldYieldIdenticalReports(t *testing.T) {
	payload := map[string]any{
		"category": 9,
		"extra_a":  1,
		"extra_b":  2,
		// amount, date missing
	}
	v := New(PolicyWarn)
	first := v.Validate(trackExpenses(), payload)
	second := v.Validate(trackExpenses(), payload)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Reports differ:\n%+v\n%+v", first.Findings, second.Findings)
	}
}

func TestValidate_WhenSpecNotFromLoadingPath_ShouldPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for a spec without object parameters")
		}
	}()
	New(PolicyWarn).Validate(&spec.Spec{Name: "broken"}, map[string]any{})
}

// =============================================================================
// ValidateCall & ParseCallPayload
// =============================================================================

func TestValidateCall_WhenSpecRegistered_ShouldValidateArguments(t *testing.T) {
	reg := registry.New()
	reg.Replace("demo", []*spec.Spec{tipCalculator()})

	rep, err := New(PolicyWarn).ValidateCall(reg, domain.CallPayload{
		Namespace: "demo",
		Name:      "tip calculator",
		Arguments: map[string]any{"bill_amount": 50.0},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rep.Errors()) != 1 {
		t.Errorf("Expected 1 error, got: %+v", rep.Findings)
	}
}

func TestValidateCall_WhenUnknownTool_ShouldReturnErrNotFound(t *testing.T) {
	reg := registry.New()

	_, err := New(PolicyWarn).ValidateCall(reg, domain.CallPayload{
		Namespace: "demo",
		Name:      "no such tool",
	})
	if !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestParseCallPayload_WhenWellFormed_ShouldReturnCall(t *testing.T) {
	call, err := ParseCallPayload([]byte(
		`{"name":"tip calculator","namespace":"demo","arguments":{"bill_amount":50}}`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if call.Name != "tip calculator" || call.Arguments["bill_amount"] != 50.0 {
		t.Errorf("Unexpected call: %+v", call)
	}
}

func TestParseCallPayload_WhenMalformedJSON_ShouldReturnError(t *testing.T) {
	if _, err := ParseCallPayload([]byte(`{"name": `)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestParseCallPayload_WhenNameMissing_ShouldReturnError(t *testing.T) {
	if _, err := ParseCallPayload([]byte(`{"namespace":"demo","arguments":{}}`)); err == nil {
		t.Error("Expected error for missing name")
	}
}
