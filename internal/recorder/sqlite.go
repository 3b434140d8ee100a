package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"CrossSentinel/internal/model"
)

// SQLiteRecorder persists alert history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logrus.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS crossover_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			timeframe   INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			period      INTEGER NOT NULL,
			direction   TEXT NOT NULL,
			gap_crossed INTEGER NOT NULL,
			bar_time    INTEGER NOT NULL,
			close       REAL,
			indicator   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crossover_ts ON crossover_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_crossover_symbol ON crossover_events(symbol, timeframe)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at     INTEGER NOT NULL,
			duration_ms    INTEGER,
			rows_processed INTEGER,
			fetch_failures INTEGER,
			alerts         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCrossover(evt *model.CrossoverEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	gap := 0
	if evt.GapCrossed {
		gap = 1
	}
	_, err := r.db.Exec(`INSERT INTO crossover_events
		(timestamp, symbol, timeframe, kind, period, direction, gap_crossed, bar_time, close, indicator)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Timeframe,
		string(evt.Spec.Kind), evt.Spec.Period, string(evt.Direction),
		gap, evt.BarTime.Unix(), evt.Close, evt.Indicator,
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(sum *RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(started_at, duration_ms, rows_processed, fetch_failures, alerts)
		VALUES (?,?,?,?,?)`,
		sum.StartedAt.Unix(), sum.Duration.Milliseconds(),
		sum.RowsProcessed, sum.FetchFailures, sum.Alerts,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	logrus.Info("closing sqlite recorder")
	return r.db.Close()
}
