package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"gigfin/internal/config"
	"gigfin/internal/storage"
)

func roundTrip(t *testing.T, res *BackendResult) {
	t.Helper()
	ctx := context.Background()
	if _, err := res.Store.Get(ctx, "gigFinData"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("fresh store Get() error = %v, want ErrNotFound", err)
	}
	if err := res.Store.Put(ctx, "gigFinData", []byte(`{"nextId":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := res.Store.Get(ctx, "gigFinData")
	if err != nil || string(got) != `{"nextId":1}` {
		t.Fatalf("Get() = %q, %v", got, err)
	}
}

func TestCreateBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
	}{
		{"file", Config{Type: FileBackend, StateDir: filepath.Join(dir, "state")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "gigfin.db")}},
		{"redis", Config{Type: RedisBackend, RedisURL: "redis://" + mr.Addr() + "/0"}},
		{"memory", Config{Type: MemoryBackend}},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(context.Background(), tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer func() {
				if err := res.Close(); err != nil {
					t.Errorf("Close() error = %v", err)
				}
			}()
			roundTrip(t, res)
		})
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	f := NewFactory(nil)
	cases := []Config{
		{Type: "sheets"},
		{Type: FileBackend},
		{Type: SQLiteBackend},
		{Type: RedisBackend},
	}
	for _, c := range cases {
		if _, err := f.CreateBackend(context.Background(), c); err == nil {
			t.Errorf("CreateBackend(%+v) expected error", c)
		}
	}
}

func TestCreateBackendRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: RedisBackend, RedisURL: "redis://" + addr})
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config should fail")
	}
	cfg := &config.Config{DataBackend: "redis", RedisURL: "redis://x:6379", StateDir: "d", SQLiteDBPath: "p"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != RedisBackend || got.RedisURL != cfg.RedisURL || got.StateDir != "d" || got.SQLiteDBPath != "p" {
		t.Fatalf("unexpected config %+v", got)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := []string{"file", "sqlite", "redis", "memory"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
