// Package decisionlog defines the decision audit log Entry entity.
package decisionlog

import (
	"errors"
	"time"

	"github.com/xraph/steward/id"
)

// ErrNotFound is returned when a decision log entry cannot be found.
var ErrNotFound = errors.New("decisionlog: not found")

// Entry is a single authorization decision audit record.
type Entry struct {
	ID         id.ID     `json:"id" db:"id"`
	Scope      string    `json:"scope" db:"scope"`
	SubjectID  string    `json:"subject_id" db:"subject_id"`
	ResourceID string    `json:"resource_id,omitempty" db:"resource_id"`
	MinRole    string    `json:"min_role" db:"min_role"`
	HeldRole   string    `json:"held_role,omitempty" db:"held_role"`
	Decision   string    `json:"decision" db:"decision"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64     `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	Scope      string     `json:"scope,omitempty"`
	SubjectID  string     `json:"subject_id,omitempty"`
	ResourceID string     `json:"resource_id,omitempty"`
	Decision   string     `json:"decision,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
