package survey

import (
	"errors"
	"fmt"
	"time"
)

// SubmitAction is the action discriminator of a submission payload.
const SubmitAction = "submit"

// timestampLayout matches JavaScript's Date.toISOString (UTC, milliseconds).
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Submission is the payload sent to the collection endpoint.
type Submission struct {
	Action       string       `json:"action"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Demographics Demographics `json:"demographics"`
	GroupID      int          `json:"groupId"`
	Responses    []Response   `json:"responses"`
	Timestamp    string       `json:"timestamp"`
}

// NewSubmission packages a session for sending. The session must be in
// SURVEY with a group assigned.
func NewSubmission(s Session, now time.Time) (Submission, error) {
	if s.Phase != PhaseSurvey || s.Group == nil {
		return Submission{}, fmt.Errorf("%w: cannot submit from %s", ErrWrongPhase, s.Phase)
	}
	c := s.Clone()
	return Submission{
		Action:       SubmitAction,
		SubmissionID: c.SubmissionID,
		Demographics: c.Demographics,
		GroupID:      *c.Group,
		Responses:    c.Responses,
		Timestamp:    now.UTC().Format(timestampLayout),
	}, nil
}

// Validate checks a received payload against layout: known action, group in
// range, one response per image of the group in order, ratings 1..5 or unset.
func (p Submission) Validate(layout Layout) error {
	if p.Action != SubmitAction {
		return fmt.Errorf("unexpected action %q", p.Action)
	}
	if !p.Demographics.Complete() {
		return ErrIncompleteDemographics
	}
	items, err := layout.Items(p.GroupID)
	if err != nil {
		return err
	}
	if len(p.Responses) != len(items) {
		return fmt.Errorf("%d responses for %d images", len(p.Responses), len(items))
	}
	for i, r := range p.Responses {
		if r.ImageID != items[i] {
			return fmt.Errorf("response %d is for image %q, want %q", i, r.ImageID, items[i])
		}
		for _, f := range Fields {
			if v, ok := r.Rating(f); ok && !v.Valid() {
				return fmt.Errorf("image %s: %w", r.ImageID, ErrInvalidRating)
			}
		}
	}
	if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
		return errors.New("timestamp is not ISO-8601")
	}
	return nil
}
