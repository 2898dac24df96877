// Package command contains the write operations of the admin backend: bulk
// scoring updates, the roster backfill, and the academic settings service.
package command

// BatchResult reports the outcome of a bulk operation. Bulk semantics are
// at-least-once and best-effort: a failure on one record never rolls back
// records already applied, so Modified reflects partial progress.
type BatchResult struct {
	// Requested is the number of records in the batch.
	Requested int `json:"requested"`

	// Modified counts records actually changed, not merely matched. A
	// record already holding the target values is not counted.
	Modified int `json:"modified"`

	// Failed counts records whose individual update errored.
	Failed int `json:"failed"`

	// FirstError is the first per-record failure message, for diagnostics.
	FirstError string `json:"first_error,omitempty"`
}

// Succeeded reports whether every record in the batch applied cleanly.
func (r BatchResult) Succeeded() bool { return r.Failed == 0 }

func (r *BatchResult) recordFailure(err error) {
	r.Failed++
	if r.FirstError == "" && err != nil {
		r.FirstError = err.Error()
	}
}
