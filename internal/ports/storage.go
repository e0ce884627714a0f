// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import (
	"context"

	"github.com/corey/survey/internal/domain/survey"
)

// SessionStore persists the respondent's session under one fixed key.
// The backing store (bbolt) is local to the respondent's machine and has a
// single logical owner; no cross-process coordination is provided.
//
// Crash safety: SaveSession must be transactional. A crash mid-write must
// not corrupt the previously committed session.
type SessionStore interface {
	// LoadSession returns the persisted session.
	// Returns nil, nil if nothing is stored (first run or after completion).
	// Returns an error if the stored bytes cannot be decoded.
	LoadSession() (*survey.Session, error)

	// SaveSession overwrites the persisted session.
	SaveSession(s *survey.Session) error

	// ClearSession deletes the persisted session.
	// Idempotent: clearing an empty store is not an error.
	ClearSession() error
}

// SubmissionSink stores payloads received by the collection server.
// Record is keyed by submission id: recording the same id twice keeps one
// copy (the latest), so client retries do not produce duplicates.
type SubmissionSink interface {
	Record(ctx context.Context, sub survey.Submission) error
	All(ctx context.Context) ([]StoredSubmission, error)
	Close() error
}

// StoredSubmission is a submission as kept by a SubmissionSink.
type StoredSubmission struct {
	Key        string            `json:"key"`
	Submission survey.Submission `json:"submission"`
	ReceivedAt int64             `json:"receivedAt"` // unix seconds of the latest attempt
	Attempts   int               `json:"attempts"`
}

// AllocationLedger keeps per-stratum assignment counts for the collection
// server's balancer.
type AllocationLedger interface {
	// Counts returns group → assignments for a stratum. Missing groups are zero.
	Counts(stratum string) (map[int]int, error)
	// Increment records one assignment of group to stratum.
	Increment(stratum string, group int) error
}
