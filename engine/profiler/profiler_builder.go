package profiler

import (
	"io"
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option applied during construction via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is emitted. Values <= 0 report every tick.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = max(d, 0)
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRunID tags every report with a run identifier.
func WithRunID(id string) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.runID = id
	}
}

// WithCSV writes every report as a CSV row to w, with a header before the first row.
//
// Parameters:
//   - w: the destination, owned by the caller
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithCSV(w io.Writer) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.csvOut = w
	}
}

// WithClock replaces the time source used to measure report intervals.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
