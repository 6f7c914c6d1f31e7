package subscription

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "farebot/pkg/logx"
)

// Store is the keyed subscription persistence contract.
//
// LoadAll must tolerate a missing or corrupt backing store by returning an
// empty mapping rather than failing the caller. SaveAll replaces the whole
// mapping; write faults propagate.
type Store interface {
	LoadAll(ctx context.Context) (map[int64]*Subscription, error)
	SaveAll(ctx context.Context, subs map[int64]*Subscription) error
	Close() error
}

// Config configures the store backend.
//
// Driver values:
//   - "file" (default): single JSON document
//   - "sqlite": SQLite database file (requires the sqlite build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
