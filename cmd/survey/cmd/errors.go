package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/survey/internal/adapters/bbolt"
	"github.com/corey/survey/internal/domain/survey"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
func isDBLockError(err error) bool {
	return err != nil && bbolt.IsLockTimeout(err)
}

// diagnoseDBLock returns actionable guidance when the session database is
// held by another process, usually a `survey run` left open elsewhere.
func diagnoseDBLock(dbPath string) string {
	return fmt.Sprintf("database %s is locked by another survey process\n"+
		"  → finish or quit the other session (e.g. an open `survey run`)\n"+
		"  → find the process:  ps aux | grep 'survey'\n"+
		"  → then retry your command", dbPath)
}

// explain turns domain errors into respondent-facing messages. Unknown
// errors pass through unchanged.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, survey.ErrBusy):
		return fmt.Errorf("another request is still in progress, please wait")
	case errors.Is(err, survey.ErrIncompleteDemographics):
		return fmt.Errorf("answer all three questions first (--gender, --age, --job)")
	case errors.Is(err, survey.ErrIncompleteResponse):
		return fmt.Errorf("rate all five items for this image before moving on")
	case errors.Is(err, survey.ErrAtFirstItem):
		return fmt.Errorf("already at the first image")
	case errors.Is(err, survey.ErrWrongPhase):
		return fmt.Errorf("not possible right now: %w", err)
	}
	return err
}
