// Package store defines submission persistence: the latest code per student.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/utsushi/internal/models"
)

// ErrValidation is wrapped by Put when student ID or code is empty after trimming.
// Validation failures never reach the backing store.
var ErrValidation = errors.New("validation failed")

// Store holds at most one submission per student ID. A Put for an existing ID
// overwrites the prior code and timestamp; no history is retained.
type Store interface {
	// Put validates and stores (or overwrites) the submission for studentID.
	Put(ctx context.Context, studentID, code string) error
	// Snapshot returns a point-in-time copy of all submissions, sorted by
	// student ID. Writes after the call do not affect the returned slice.
	Snapshot(ctx context.Context) ([]models.Submission, error)
	// Clear removes all submissions (administrative reset).
	Clear(ctx context.Context) error
	// Count returns the number of stored submissions.
	Count(ctx context.Context) (int64, error)
	Close() error
}

// validatePut checks Put arguments and returns the trimmed student ID.
// Code keeps its whitespace because indentation is significant downstream.
func validatePut(studentID, code string) (string, error) {
	id := strings.TrimSpace(studentID)
	if id == "" {
		return "", fmt.Errorf("%w: student_id cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: code cannot be empty", ErrValidation)
	}
	return id, nil
}
