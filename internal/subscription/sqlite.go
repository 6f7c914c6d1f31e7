//go:build sqlite
// +build sqlite

package subscription

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	logx "farebot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadAll(ctx context.Context) (map[int64]*Subscription, error) {
	out := map[int64]*Subscription{}
	if s == nil || s.db == nil {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, data FROM subscriptions`)
	if err != nil {
		// Unreadable store reads as empty per the Store contract.
		s.log.Warn("subscription query failed; starting empty", logx.Err(err))
		return out, nil
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			continue
		}
		var sub Subscription
		if err := json.Unmarshal([]byte(data), &sub); err != nil {
			s.log.Warn("skipping corrupt subscription row", logx.Int64("chat_id", id), logx.Err(err))
			continue
		}
		if sub.Notified == nil {
			sub.Notified = map[string]int{}
		}
		out[id] = &sub
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("subscription scan interrupted", logx.Err(err))
	}
	return out, nil
}

func (s *sqliteStore) SaveAll(ctx context.Context, subs map[int64]*Subscription) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Whole-mapping replace, matching the file driver semantics.
	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return err
	}
	for id, sub := range subs {
		if sub == nil {
			continue
		}
		b, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions(chat_id, data) VALUES(?,?)`, id, string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
