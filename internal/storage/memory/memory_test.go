package memory

import (
	"context"
	"errors"
	"testing"

	"gigfin/internal/storage"
)

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`{"nextId":1}`)
	if err := s.Put(ctx, "k", value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X' // caller mutation must not leak into the store

	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != `{"nextId":1}` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}
	if s.Puts() != 1 {
		t.Fatalf("expected 1 put, got %d", s.Puts())
	}
}

func TestMemoryStoreFailPutsKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	s := NewWithData(map[string][]byte{"k": []byte("old")})
	s.SetFailPuts(true)
	if err := s.Put(ctx, "k", []byte("new")); !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	got, _ := s.Get(ctx, "k")
	if string(got) != "old" {
		t.Fatalf("previous value lost: %q", got)
	}
	if s.Puts() != 0 {
		t.Fatalf("failed put counted")
	}
}
