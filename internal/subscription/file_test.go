package subscription

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	logx "farebot/pkg/logx"
)

func newFileStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.json")
	st, err := openFile(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	return st, path
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	st, _ := newFileStore(t)

	subs, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(subs))
	}
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	t.Parallel()
	st, path := newFileStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	subs, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll on corrupt file: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(subs))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, _ := newFileStore(t)
	ctx := context.Background()

	sub := New("SVO", "HKT")
	sub.DateFrom = "2026-02-01"
	sub.DateTo = "2026-03-31"
	sub.MaxPrice = 60000
	sub.Direct = true
	sub.Enabled = true
	sub.Notified["SVO-HKT-2026-02-01"] = 55000

	in := map[int64]*Subscription{123456789: sub}
	if err := st.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	out, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got, ok := out[123456789]
	if !ok {
		t.Fatalf("chat missing after round trip: %v", out)
	}
	if got.Origin != "SVO" || got.Destination != "HKT" {
		t.Fatalf("route lost: %+v", got)
	}
	if got.MaxPrice != 60000 || !got.Direct || !got.Enabled || !got.OneWay {
		t.Fatalf("flags lost: %+v", got)
	}
	if got.Notified["SVO-HKT-2026-02-01"] != 55000 {
		t.Fatalf("history lost: %v", got.Notified)
	}
}

func TestFileStoreWholeMappingReplace(t *testing.T) {
	t.Parallel()
	st, _ := newFileStore(t)
	ctx := context.Background()

	if err := st.SaveAll(ctx, map[int64]*Subscription{1: New("SVO", "HKT"), 2: New("LED", "AER")}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveAll(ctx, map[int64]*Subscription{1: New("SVO", "HKT")}); err != nil {
		t.Fatal(err)
	}

	out, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("save is whole-mapping replace; got %d entries", len(out))
	}
	if _, ok := out[2]; ok {
		t.Fatal("removed entry survived the replace")
	}
}

func TestFileStoreSkipsBadKeys(t *testing.T) {
	t.Parallel()
	st, path := newFileStore(t)
	blob := `{"abc": {"origin":"SVO","destination":"HKT"}, "42": {"origin":"LED","destination":"AER"}}`
	if err := os.WriteFile(path, []byte(blob), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(out))
	}
	if out[42] == nil || out[42].Origin != "LED" {
		t.Fatalf("valid entry lost: %v", out)
	}
}
