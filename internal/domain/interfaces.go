package domain

import "context"

// RunRecorder persists validation verdicts for later inspection. Implementations
// must append only (a run log is an audit trail, never rewritten).
type RunRecorder interface {
	// Record stores one verdict. CreatedAt may be zero; implementations fill it.
	Record(ctx context.Context, rec RunRecord) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}
