package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/utsushi/internal/models"
)

// MemoryStore is an in-process submission store. Its lifetime is the process;
// suitable when no durable backing store is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]models.Submission
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{submissions: make(map[string]models.Submission)}
}

// Put stores or overwrites the submission for studentID. The write is atomic:
// readers see either the old or the new submission, never a partial one.
func (s *MemoryStore) Put(ctx context.Context, studentID, code string) error {
	id, err := validatePut(studentID, code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[id] = models.Submission{
		StudentID:   id,
		Code:        code,
		SubmittedAt: time.Now(),
	}
	return nil
}

// Snapshot returns a copy of all submissions sorted by student ID. The copy is
// taken under the read lock, so in-progress writes are never half-observed and
// later writes cannot mutate the returned slice.
func (s *MemoryStore) Snapshot(ctx context.Context) ([]models.Submission, error) {
	s.mu.RLock()
	out := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, sub)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

// Clear removes all submissions.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = make(map[string]models.Submission)
	return nil
}

// Count returns the number of stored submissions.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.submissions)), nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
