// Package store persists the monitor's counter record across sleep cycles.
// The real implementation uses SQLite; the in-memory implementation allows
// testing without a filesystem.
package store

import (
	"context"

	"github.com/sweeney/bowl-monitor/internal/logic"
)

// Store loads and saves the single counter record.
type Store interface {
	// Load returns the last saved record. A store that has never been
	// written returns the zero record and a nil error.
	Load(ctx context.Context) (logic.CounterRecord, error)

	// Save replaces the stored record. Once Save returns nil the record
	// survives process exit.
	Save(ctx context.Context, rec logic.CounterRecord) error

	// Clear discards the stored record, as a full power cycle would.
	Clear(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
