package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gigfin/internal/storage"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "db", "gigfin.db")

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	defer repo.Close()

	if _, err := repo.Get(ctx, "gigFinData"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Put(ctx, "gigFinData", []byte(`{"nextId":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "gigFinData", []byte(`{"nextId":5}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.Get(ctx, "gigFinData")
	if err != nil || string(got) != `{"nextId":5}` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}
}

func TestRepositoryReopenRunsMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "gigfin.db")

	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	if err := repo.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	repo.Close()

	reopened, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("value lost across reopen: %q err=%v", got, err)
	}
}
