package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/logic"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS counters (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	boot_count      INTEGER NOT NULL DEFAULT 0,
	no_water_count  INTEGER NOT NULL DEFAULT 0,
	reminder_count  INTEGER NOT NULL DEFAULT 0,
	have_alerted    INTEGER NOT NULL DEFAULT 0,
	updated_at      DATETIME NOT NULL
);`

// SQLiteStore keeps the counter record in a single-row SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	Path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// One writer, one cycle at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// FULL sync: a committed save must survive power loss.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logging.Named(logging.NameStore).Debug("opened counter store", zap.String("path", path))

	return &SQLiteStore{db: db, Path: path, now: time.Now}, nil
}

// Load returns the stored record, or the zero record if none exists.
func (s *SQLiteStore) Load(ctx context.Context) (logic.CounterRecord, error) {
	var (
		boot, noWater, reminder int64
		alerted                 bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT boot_count, no_water_count, reminder_count, have_alerted FROM counters WHERE id = 1`,
	).Scan(&boot, &noWater, &reminder, &alerted)
	if errors.Is(err, sql.ErrNoRows) {
		return logic.CounterRecord{}, nil
	}
	if err != nil {
		return logic.CounterRecord{}, fmt.Errorf("load counters: %w", err)
	}

	return logic.CounterRecord{
		BootCount:     uint64(boot),
		NoWaterCount:  uint32(noWater),
		ReminderCount: uint32(reminder),
		HaveAlerted:   alerted,
	}, nil
}

// Save upserts the record inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, rec logic.CounterRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO counters (id, boot_count, no_water_count, reminder_count, have_alerted, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			boot_count = excluded.boot_count,
			no_water_count = excluded.no_water_count,
			reminder_count = excluded.reminder_count,
			have_alerted = excluded.have_alerted,
			updated_at = excluded.updated_at`,
		int64(rec.BootCount), int64(rec.NoWaterCount), int64(rec.ReminderCount), rec.HaveAlerted, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit counters: %w", err)
	}
	return nil
}

// Clear deletes the record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM counters`); err != nil {
		return fmt.Errorf("clear counters: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
