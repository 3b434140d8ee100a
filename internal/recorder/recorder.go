package recorder

import (
	"time"

	"CrossSentinel/internal/model"
)

// RunSummary describes one completed run of the watchlist.
type RunSummary struct {
	StartedAt     time.Time
	Duration      time.Duration
	RowsProcessed int
	FetchFailures int
	Alerts        int
}

// Recorder persists alert history for later analysis. It never feeds back
// into detection; the per-run dedup cache stays in memory.
type Recorder interface {
	RecordCrossover(evt *model.CrossoverEvent) error
	RecordRun(sum *RunSummary) error
	Close() error
}
