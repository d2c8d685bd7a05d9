package domain

import (
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Specs     SpecsConfig     `json:"specs"`
	Validator ValidatorConfig `json:"validator"`
	Watcher   WatcherConfig   `json:"watcher"`
	Infra     InfraConfig     `json:"infra"`
	// DatabaseURL enables the run log when non-empty.
	// Local file: "file:specgate.db", remote Turso: "libsql://...".
	DatabaseURL string `json:"databaseUrl,omitempty"`
}

type SpecsConfig struct {
	Dir       string `json:"dir"`       // Directory holding .yaml/.yml/.json spec documents
	Namespace string `json:"namespace"` // Namespace the directory is loaded under
}

type ValidatorConfig struct {
	UnknownFieldPolicy string `json:"unknownFieldPolicy"` // "warn" | "reject"
}

type WatcherConfig struct {
	DebounceMS  int    `json:"debounceMs"`           // Delay before re-reading after a file event
	ResyncCron  string `json:"resyncCron,omitempty"` // Optional cron schedule for full resyncs ("" = disabled)
	StrictBatch bool   `json:"strictBatch"`          // Reject a whole reload when any document has errors
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

// =============================================================================
// Findings & Reports
// =============================================================================

// Severity classifies a finding. Only error-severity findings block acceptance.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FindingKind is the closed set of validation failure categories.
type FindingKind string

const (
	KindSpecInvalid     FindingKind = "SPEC_INVALID"     // malformed specification document (load time)
	KindDuplicateName   FindingKind = "DUPLICATE_NAME"   // two documents declare the same name in a namespace
	KindTypeMismatch    FindingKind = "TYPE_MISMATCH"    // payload value has the wrong runtime kind
	KindMissingRequired FindingKind = "MISSING_REQUIRED" // required field absent from payload
	KindUnknownField    FindingKind = "UNKNOWN_FIELD"    // payload field not declared in the schema
)

// Finding is one reported validation problem. Path uses "$"-rooted notation:
// "$.user.tags[2]" points at the third element of the tags array under user.
type Finding struct {
	Severity Severity    `json:"severity"`
	Kind     FindingKind `json:"kind"`
	Path     string      `json:"path"`
	Message  string      `json:"message"`
}

// Report is an ordered accumulation of findings. Order is discovery order and
// is deterministic for identical inputs, so reports diff cleanly across runs.
// The zero value is an empty report, ready to use.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Add appends a finding, preserving order.
func (r *Report) Add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// AddError appends an error-severity finding.
func (r *Report) AddError(kind FindingKind, path, message string) {
	r.Add(Finding{Severity: SeverityError, Kind: kind, Path: path, Message: message})
}

// AddWarning appends a warning-severity finding.
func (r *Report) AddWarning(kind FindingKind, path, message string) {
	r.Add(Finding{Severity: SeverityWarning, Kind: kind, Path: path, Message: message})
}

// Merge appends all findings from other, preserving both orders.
func (r *Report) Merge(other Report) {
	r.Findings = append(r.Findings, other.Findings...)
}

// HasErrors reports whether any finding is error-severity. Warnings alone do
// not block acceptance.
func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity findings in order.
func (r *Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Warnings returns the warning-severity findings in order.
func (r *Report) Warnings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Call Payloads & Run Records
// =============================================================================

// CallPayload is a candidate function call produced by an external generator.
// Arguments is untrusted and is validated against the registered spec for
// (Namespace, Name).
type CallPayload struct {
	Name      string         `json:"name"`
	Namespace string         `json:"namespace"`
	Arguments map[string]any `json:"arguments"`
}

// RunRecord is one persisted validation verdict.
type RunRecord struct {
	ID        int64     `json:"id,omitempty"`
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	Passed    bool      `json:"passed"`
	Findings  []Finding `json:"findings"`
	CreatedAt time.Time `json:"createdAt"`
}
