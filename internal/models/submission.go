// Package models defines core data structures for submissions and detection results.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Submission is the latest stored code for one student.
type Submission struct {
	StudentID   string    `json:"student_id" db:"student_id"`
	Code        string    `json:"code" db:"code"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// SubmitRequest is the body of POST /submit_code.
type SubmitRequest struct {
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
}

// Validate checks that student_id and code are non-empty after trimming whitespace.
// The trimmed student ID replaces the original; code keeps its whitespace because
// indentation is significant for tokenization.
func (r *SubmitRequest) Validate() error {
	r.StudentID = strings.TrimSpace(r.StudentID)
	if r.StudentID == "" {
		return fmt.Errorf("student_id cannot be empty")
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("code cannot be empty")
	}
	return nil
}
