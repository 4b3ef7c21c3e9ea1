package performance

import (
	"log/slog"
	"sync"
	"time"
)

// Stage names recorded by the CLI.
const (
	StageParse    = "parse"
	StageEstimate = "estimate"
	StageReport   = "report"
	StageExport   = "export"
	StageNotify   = "notify"
)

// StageTiming is the wall time of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
	Err      string
}

// Tracker collects stage timings and game counts for a single run.
type Tracker struct {
	mu sync.Mutex

	started time.Time
	now     func() time.Time

	Stages      []StageTiming
	GamesParsed int
	GamesFailed int
}

// NewTracker starts the run clock.
func NewTracker() *Tracker {
	return &Tracker{started: time.Now(), now: time.Now}
}

// Track runs fn and records how long it took under name.
func (t *Tracker) Track(name string, fn func() error) error {
	start := t.now()
	err := fn()
	t.Record(name, t.now().Sub(start), err)
	return err
}

// Record appends a stage timing.
func (t *Tracker) Record(name string, d time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := StageTiming{Name: name, Duration: d}
	if err != nil {
		st.Err = err.Error()
	}
	t.Stages = append(t.Stages, st)
}

// SetGames stores how many games were parsed and how many had no estimate.
func (t *Tracker) SetGames(parsed, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.GamesParsed = parsed
	t.GamesFailed = failed
}

// Total is the time since NewTracker.
func (t *Tracker) Total() time.Duration {
	return t.now().Sub(t.started)
}

// PrintSummary logs the run totals followed by one line per stage.
func (t *Tracker) PrintSummary(logger *slog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger.Info("Run summary",
		"games", t.GamesParsed,
		"failed", t.GamesFailed,
		"total_duration", t.now().Sub(t.started))

	for _, st := range t.Stages {
		attrs := []any{"stage", st.Name, "duration", st.Duration}
		if st.Err != "" {
			attrs = append(attrs, "error", st.Err)
		}
		logger.Debug("Stage timing", attrs...)
	}
}
