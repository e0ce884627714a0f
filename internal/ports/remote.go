package ports

import (
	"context"

	"github.com/corey/survey/internal/domain/survey"
)

// Allocator asks the remote allocation service for a respondent's group.
// Implementations return an error for transport failures, non-success
// statuses, and malformed responses; range checking is the caller's job.
type Allocator interface {
	Allocate(ctx context.Context, d survey.Demographics) (int, error)
}

// Collector delivers a completed submission to the collection endpoint.
// A nil error means the endpoint acknowledged the payload.
type Collector interface {
	Collect(ctx context.Context, sub survey.Submission) error
}

// Notifier surfaces a message to the respondent (not a log line).
type Notifier interface {
	Notify(msg string)
}
