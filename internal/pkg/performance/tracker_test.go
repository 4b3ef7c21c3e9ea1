package performance

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	cur := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTracker_Track(t *testing.T) {
	tr := NewTracker()
	tr.now = fakeClock(time.Second)

	if err := tr.Track(StageParse, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := tr.Track(StageExport, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Track returned %v, want boom", err)
	}

	if len(tr.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(tr.Stages))
	}
	if tr.Stages[0].Name != StageParse || tr.Stages[0].Duration != time.Second || tr.Stages[0].Err != "" {
		t.Errorf("parse stage = %+v", tr.Stages[0])
	}
	if tr.Stages[1].Err != "boom" {
		t.Errorf("export stage error = %q", tr.Stages[1].Err)
	}
}

func TestTracker_PrintSummary(t *testing.T) {
	tr := NewTracker()
	tr.Record(StageEstimate, 3*time.Millisecond, nil)
	tr.SetGames(12, 2)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tr.PrintSummary(logger)

	out := buf.String()
	for _, want := range []string{"games=12", "failed=2", "stage=estimate", "duration=3ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
