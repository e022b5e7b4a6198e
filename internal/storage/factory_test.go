package storage

import (
	"context"
	"testing"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", "memory", " Memory "} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("%q: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("%q: expected memory store, got %T", kind, store)
		}
		if err := store.Init(context.Background()); err != nil {
			t.Fatalf("init: %v", err)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}
