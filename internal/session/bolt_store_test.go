package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestBoltStoreSetGetClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	store, err := openBolt(path)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	got, err := store.Get(ctx)
	if err != nil || !got.Empty() {
		t.Fatalf("expected empty session, got %#v err=%v", got, err)
	}

	if err := store.Set(ctx, Session{Token: "abc123", Role: "admin"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Token != "abc123" || got.Role != "admin" {
		t.Fatalf("unexpected session %#v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear should be a no-op: %v", err)
	}
	got, err = store.Get(ctx)
	if err != nil || got.Token != "" || got.Role != "" {
		t.Fatalf("expected both keys removed, got %#v err=%v", got, err)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := openBolt(path)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	if err := store.Set(ctx, Session{Token: "xyz", Role: "user"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := openBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx)
	if err != nil || got.Token != "xyz" || got.Role != "user" {
		t.Fatalf("expected persisted session, got %#v err=%v", got, err)
	}
}

func TestBoltStoreRejectsPartialSession(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.Set(context.Background(), Session{Token: "only-token"}); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	got, _ := store.Get(context.Background())
	if !got.Empty() {
		t.Fatalf("partial session must not be written, got %#v", got)
	}
}

func TestNewStoreTypes(t *testing.T) {
	store, err := NewStore("memory", Options{})
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("memory Clear: %v", err)
	}

	if _, err := NewStore("bbolt", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", Options{}); err == nil {
		t.Fatalf("expected error for redis without address")
	}
	if _, err := NewStore("cookie", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
