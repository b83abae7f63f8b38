// Package metrics records operational metrics for sampling and loading runs
// behind a small pluggable Backend. The default backend is a no-op, so
// instrumentation is always safe to call; concrete systems live in the
// prompush (Prometheus Pushgateway) and datadog subpackages.
package metrics

import (
	"time"

	"csvsample/internal/sampler"
)

// Metric names shared by all backends.
const (
	StepTotal    = "csvsample_step_total"
	StepDuration = "csvsample_step_duration_seconds"
	RowsTotal    = "csvsample_rows_total"
	PartsTotal   = "csvsample_parts_total"
)

// Row kinds used with RecordRow.
const (
	KindSeen         = "seen"          // items pulled by the sampler
	KindSampled      = "sampled"       // items kept in the reservoir
	KindSkipped      = "skipped"       // items jumped over by Algorithm L
	KindReplaced     = "replaced"      // reservoir replacements
	KindParseSkipped = "parse_skipped" // malformed or misaligned CSV rows
	KindRead         = "read"          // rows read by the load step
	KindDropped      = "dropped"       // rows failing type coercion
	KindInserted     = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. It is meant to be called once at
// startup; passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of step and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind. Non-positive deltas are
// ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordParts counts insert parts (batches) flushed to storage.
func RecordParts(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(PartsTotal, float64(delta), Labels{"job": job})
}

// RecordSample reports the counters of one sampling pass.
func RecordSample(job string, st sampler.Stats, kept int) {
	RecordRow(job, KindSeen, st.Seen)
	RecordRow(job, KindSampled, int64(kept))
	RecordRow(job, KindSkipped, st.Skipped)
	RecordRow(job, KindReplaced, st.Replaced)
}
