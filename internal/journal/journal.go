// Package journal provides SQLite-backed recording of taskbar appearance
// transitions. The journal answers the history query over IPC and gives
// a place to look when the taskbar ends up in a state nobody expected.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"glaze/internal/appearance"
	"glaze/internal/taskbar"
)

// Schema for the transition journal.
const schema = `
CREATE TABLE IF NOT EXISTS transitions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns    INTEGER NOT NULL,
    window          INTEGER NOT NULL,
    monitor         INTEGER NOT NULL,
    secondary       INTEGER NOT NULL,
    state           TEXT NOT NULL,
    accent          TEXT NOT NULL,
    color           TEXT NOT NULL,
    error           TEXT
);

CREATE INDEX IF NOT EXISTS idx_transitions_timestamp ON transitions(timestamp_ns);
`

// Journal is the SQLite transition journal. It implements
// taskbar.Recorder.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	log *slog.Logger

	retention time.Duration
	lastPrune time.Time
}

// Options configures a journal.
type Options struct {
	// RetentionDays bounds how long transitions are kept. Zero keeps
	// them forever.
	RetentionDays int

	Logger *slog.Logger
}

// Open opens or creates the journal database at path.
func Open(path string, opts Options) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	j := &Journal{
		db:        db,
		log:       log.With("component", "journal"),
		retention: time.Duration(opts.RetentionDays) * 24 * time.Hour,
	}

	if err := j.prune(time.Now()); err != nil {
		j.log.Warn("initial prune failed", "error", err)
	}
	return j, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record implements taskbar.Recorder.
func (j *Journal) Record(tr taskbar.Transition) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return fmt.Errorf("journal: closed")
	}

	secondary := 0
	if tr.Secondary {
		secondary = 1
	}
	_, err := j.db.Exec(`
		INSERT INTO transitions (timestamp_ns, window, monitor, secondary, state, accent, color, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.Time.UnixNano(), int64(tr.Window), int64(tr.Monitor), secondary,
		tr.State.String(), tr.Accent.String(), tr.Color.String(), tr.Err,
	)
	if err != nil {
		return fmt.Errorf("journal: insert transition: %w", err)
	}

	// Pruning piggybacks on writes so the journal needs no timer.
	if now := time.Now(); now.Sub(j.lastPrune) > time.Hour {
		if err := j.prune(now); err != nil {
			j.log.Warn("prune failed", "error", err)
		}
	}
	return nil
}

// Recent returns the most recent transitions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]taskbar.Transition, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, fmt.Errorf("journal: closed")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT timestamp_ns, window, monitor, secondary, state, accent, color, error
		FROM transitions ORDER BY timestamp_ns DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []taskbar.Transition
	for rows.Next() {
		var (
			ns        int64
			window    int64
			monitor   int64
			secondary int
			state     string
			accent    string
			color     string
			errText   sql.NullString
		)
		if err := rows.Scan(&ns, &window, &monitor, &secondary, &state, &accent, &color, &errText); err != nil {
			return nil, fmt.Errorf("journal: scan transition: %w", err)
		}

		tr := taskbar.Transition{
			Time:      time.Unix(0, ns),
			Window:    taskbar.Window(window),
			Monitor:   taskbar.Monitor(monitor),
			Secondary: secondary != 0,
			Err:       errText.String,
		}
		tr.State = parseState(state)
		if err := tr.Accent.UnmarshalText([]byte(accent)); err != nil {
			tr.Accent = appearance.AccentNormal
		}
		if err := tr.Color.UnmarshalText([]byte(color)); err != nil {
			tr.Color = appearance.Color{}
		}
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate transitions: %w", err)
	}
	return transitions, nil
}

// Count returns the number of recorded transitions.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return 0, fmt.Errorf("journal: closed")
	}
	var n int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transitions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("journal: count transitions: %w", err)
	}
	return n, nil
}

// prune deletes transitions older than the retention window. Callers
// hold j.mu.
func (j *Journal) prune(now time.Time) error {
	if j.retention <= 0 {
		j.lastPrune = now
		return nil
	}
	cutoff := now.Add(-j.retention).UnixNano()
	res, err := j.db.Exec(`DELETE FROM transitions WHERE timestamp_ns < ?`, cutoff)
	if err != nil {
		return err
	}
	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		j.log.Debug("pruned old transitions", "deleted", deleted)
	}
	j.lastPrune = now
	return nil
}

func parseState(s string) taskbar.State {
	for _, st := range []taskbar.State{
		taskbar.StateDesktop,
		taskbar.StateVisible,
		taskbar.StateMaximised,
		taskbar.StateStartOpened,
		taskbar.StateSearchOpened,
		taskbar.StateTaskViewOpened,
	} {
		if st.String() == s {
			return st
		}
	}
	return taskbar.StateDesktop
}
