package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	logx "farebot/pkg/logx"
)

// fileStore is a dependency-free persistence backend: the whole subscriber
// mapping lives in one JSON document keyed by chat id (decimal string).
// Writes go through a temp file + rename so readers never see a torn write.
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) LoadAll(ctx context.Context) (map[int64]*Subscription, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[int64]*Subscription{}

	b, err := os.ReadFile(s.path)
	if err != nil {
		// A store that does not exist yet is an empty store.
		if !os.IsNotExist(err) {
			s.log.Warn("subscription store unreadable; starting empty", logx.Err(err), logx.String("path", s.path))
		}
		return out, nil
	}

	var raw map[string]*Subscription
	if err := json.Unmarshal(b, &raw); err != nil {
		s.log.Warn("subscription store corrupt; starting empty", logx.Err(err), logx.String("path", s.path))
		return out, nil
	}

	for k, sub := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil || sub == nil {
			s.log.Warn("skipping bad store entry", logx.String("key", k))
			continue
		}
		if sub.Notified == nil {
			sub.Notified = map[string]int{}
		}
		out[id] = sub
	}
	return out, nil
}

func (s *fileStore) SaveAll(ctx context.Context, subs map[int64]*Subscription) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]*Subscription, len(subs))
	for id, sub := range subs {
		if sub == nil {
			continue
		}
		raw[strconv.FormatInt(id, 10)] = sub
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
