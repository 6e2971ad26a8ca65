package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := s.Set(ctx, "b", "2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "a", "3"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	v, ok, err := s.Get(ctx, "a")
	if err != nil || !ok || v != "3" {
		t.Errorf("Get(a) = %q, %v, %v", v, ok, err)
	}

	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("ListKeys = %v", keys)
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove(ctx, "a"); err != nil {
		t.Errorf("Remove of absent key should not fail: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expected key to be removed")
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemoryStore().Set(ctx, "k", "v"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
