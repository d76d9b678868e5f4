package ingest

import "time"

// SourceReport is the outcome of importing one source. Counts are
// observational only.
type SourceReport struct {
	Source   string
	Found    int   // distinct valid domains read from the source
	Upserted int   // domains inserted or updated
	Skipped  int   // entries rejected as invalid
	Cleared  int64 // rows deleted before import
	Err      error
	Duration time.Duration
}

// OK reports whether the source imported without error.
func (r SourceReport) OK() bool { return r.Err == nil }

// UpdateReport aggregates an update run.
type UpdateReport struct {
	Sources   []SourceReport
	TotalRows int64
}

func (r UpdateReport) Succeeded() int {
	n := 0
	for _, s := range r.Sources {
		if s.OK() {
			n++
		}
	}
	return n
}

func (r UpdateReport) Failed() int {
	return len(r.Sources) - r.Succeeded()
}
