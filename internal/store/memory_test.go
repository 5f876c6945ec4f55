package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStorePutAndSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "bob", "b = 2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "alice", "a = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(snapshot))
	}
	if snapshot[0].StudentID != "alice" || snapshot[1].StudentID != "bob" {
		t.Errorf("snapshot not sorted by student ID: %v", snapshot)
	}
	if snapshot[0].Code != "a = 1" {
		t.Errorf("unexpected code %q", snapshot[0].Code)
	}
	if snapshot[0].SubmittedAt.IsZero() {
		t.Error("SubmittedAt should be set")
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "a = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "alice", "a = 2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 submission after overwrite, got %d", count)
	}
	snapshot, _ := s.Snapshot(ctx)
	if snapshot[0].Code != "a = 2" {
		t.Errorf("expected latest code, got %q", snapshot[0].Code)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name      string
		studentID string
		code      string
	}{
		{"empty id", "", "x = 1"},
		{"blank id", "   ", "x = 1"},
		{"empty code", "alice", ""},
		{"whitespace code", "alice", "  \n\t "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(ctx, tt.studentID, tt.code)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	count, _ := s.Count(ctx)
	if count != 0 {
		t.Errorf("invalid puts must not be stored, got %d", count)
	}
}

func TestMemoryStoreTrimsStudentID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "  alice  ", "a = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "alice", "a = 2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("trimmed and untrimmed IDs must collide, got %d entries", count)
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "a = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if err := s.Put(ctx, "alice", "a = 2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "bob", "b = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if len(snapshot) != 1 || snapshot[0].Code != "a = 1" {
		t.Errorf("snapshot mutated by later writes: %v", snapshot)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "alice", "a = 1"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, _ := s.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store after Clear, got %d", count)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("student-%d", n)
			for j := 0; j < 50; j++ {
				if err := s.Put(ctx, id, fmt.Sprintf("x = %d", j)); err != nil {
					t.Errorf("Put failed: %v", err)
				}
				if _, err := s.Snapshot(ctx); err != nil {
					t.Errorf("Snapshot failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 10 {
		t.Errorf("expected 10 submissions, got %d", count)
	}
}
