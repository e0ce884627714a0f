package survey

import "errors"

// Sentinel errors returned by the partitioner and the reducer.
// Callers match them with errors.Is; messages are wrapped with context.
var (
	ErrInvalidLayout          = errors.New("invalid layout")
	ErrGroupOutOfRange        = errors.New("group out of range")
	ErrWrongPhase             = errors.New("action not allowed in current phase")
	ErrBusy                   = errors.New("a request is already in flight")
	ErrIncompleteDemographics = errors.New("demographics incomplete")
	ErrInvalidDemographic     = errors.New("invalid demographic value")
	ErrIncompleteResponse     = errors.New("current image has unanswered questions")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
	ErrUnknownField           = errors.New("unknown field")
	ErrAtFirstItem            = errors.New("already at the first image")
	ErrCorruptSession         = errors.New("persisted session violates invariants")
)
