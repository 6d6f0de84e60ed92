package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"glaze/internal/appearance"
	"glaze/internal/taskbar"
)

func openTestJournal(t *testing.T, opts Options) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testTransition(at time.Time) taskbar.Transition {
	return taskbar.Transition{
		Time:    at,
		Window:  0x1234,
		Monitor: 1,
		State:   taskbar.StateMaximised,
		Accent:  appearance.AccentBlurBehind,
		Color:   appearance.Color{R: 0x10, G: 0x20, B: 0x30, A: 0xCC},
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	j, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	j.Close()
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t, Options{})
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		tr := testTransition(base.Add(time.Duration(i) * time.Second))
		if err := j.Record(tr); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d transitions, want 3", len(got))
	}

	// Newest first.
	if !got[0].Time.After(got[1].Time) {
		t.Errorf("transitions not ordered newest first: %v then %v", got[0].Time, got[1].Time)
	}

	tr := got[0]
	if tr.Window != 0x1234 {
		t.Errorf("Window = %#x, want 0x1234", tr.Window)
	}
	if tr.State != taskbar.StateMaximised {
		t.Errorf("State = %v, want maximised", tr.State)
	}
	if tr.Accent != appearance.AccentBlurBehind {
		t.Errorf("Accent = %v, want blur", tr.Accent)
	}
	want := appearance.Color{R: 0x10, G: 0x20, B: 0x30, A: 0xCC}
	if tr.Color != want {
		t.Errorf("Color = %v, want %v", tr.Color, want)
	}
}

func TestRecordWithError(t *testing.T) {
	j := openTestJournal(t, Options{})

	tr := testTransition(time.Now())
	tr.Err = "composition call failed"
	if err := j.Record(tr); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := j.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].Err != "composition call failed" {
		t.Errorf("recorded error not round-tripped: %+v", got)
	}
}

func TestRecentLimitDefaults(t *testing.T) {
	j := openTestJournal(t, Options{})

	if err := j.Record(testTransition(time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Recent returned %d transitions, want 1", len(got))
	}
}

func TestPruneRemovesOldTransitions(t *testing.T) {
	j := openTestJournal(t, Options{RetentionDays: 7})
	ctx := context.Background()

	old := testTransition(time.Now().Add(-30 * 24 * time.Hour))
	fresh := testTransition(time.Now())
	if err := j.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := j.Record(fresh); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := j.prune(time.Now()); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	n, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d after prune, want 1", n)
	}
}

func TestZeroRetentionKeepsEverything(t *testing.T) {
	j := openTestJournal(t, Options{})
	ctx := context.Background()

	if err := j.Record(testTransition(time.Now().Add(-365 * 24 * time.Hour))); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := j.prune(time.Now()); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	n, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestClosedJournalRejectsOperations(t *testing.T) {
	j := openTestJournal(t, Options{})
	j.Close()

	if err := j.Record(testTransition(time.Now())); err == nil {
		t.Error("Record on closed journal should fail")
	}
	if _, err := j.Recent(context.Background(), 1); err == nil {
		t.Error("Recent on closed journal should fail")
	}
}
