package survey

import (
	"fmt"
	"slices"
)

// Session is the aggregate root for one respondent. Its JSON form is what
// gets persisted, so field names follow the wire shape of the instrument.
type Session struct {
	Phase        Phase        `json:"step"`
	Demographics Demographics `json:"demographics"`
	Group        *int         `json:"assignedGroup"`
	Images       []string     `json:"images"`
	Index        int          `json:"currentImageIndex"`
	Responses    []Response   `json:"responses"`
	// Busy suspends navigation while a network call is in flight.
	// It is written to the store but cleared on rehydration.
	Busy bool `json:"isSubmitting"`
	// SubmissionID identifies every submission attempt of this session.
	SubmissionID string `json:"submissionId,omitempty"`
}

// New returns the fresh-default session: START, nothing answered.
func New() Session {
	return Session{
		Phase:     PhaseStart,
		Images:    []string{},
		Responses: []Response{},
	}
}

// Clone returns a deep copy; the reducer never mutates its input.
func (s Session) Clone() Session {
	out := s
	if s.Group != nil {
		g := *s.Group
		out.Group = &g
	}
	out.Images = slices.Clone(s.Images)
	if out.Images == nil {
		out.Images = []string{}
	}
	out.Responses = make([]Response, len(s.Responses))
	for i, r := range s.Responses {
		out.Responses[i] = r.clone()
	}
	return out
}

// AssignedGroup returns the group id, or 0 when not yet resolved.
func (s Session) AssignedGroup() int {
	if s.Group == nil {
		return 0
	}
	return *s.Group
}

// Current returns the image id and response at the current index.
// ok is false outside SURVEY or when nothing is assigned.
func (s Session) Current() (imageID string, resp Response, ok bool) {
	if s.Phase != PhaseSurvey || s.Index < 0 || s.Index >= len(s.Images) || s.Index >= len(s.Responses) {
		return "", Response{}, false
	}
	return s.Images[s.Index], s.Responses[s.Index], true
}

// IsFirst reports whether the current image is the first one.
func (s Session) IsFirst() bool { return s.Index == 0 }

// IsLast reports whether the current image is the last one.
func (s Session) IsLast() bool { return len(s.Images) > 0 && s.Index == len(s.Images)-1 }

// Validate checks the aggregate invariants against layout. A rehydrated
// session that fails validation is discarded by the controller.
func (s Session) Validate(layout Layout) error {
	if !s.Phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", ErrCorruptSession, s.Phase)
	}
	for _, f := range DemographicFields {
		if v := s.Demographics.Get(f); v != "" && !isChoice(f, v) {
			return fmt.Errorf("%w: %s=%q", ErrCorruptSession, f, v)
		}
	}

	if s.Phase == PhaseStart {
		if s.Group != nil {
			return fmt.Errorf("%w: group assigned in START", ErrCorruptSession)
		}
		if len(s.Images) != 0 || len(s.Responses) != 0 {
			return fmt.Errorf("%w: items assigned in START", ErrCorruptSession)
		}
		return nil
	}

	if s.Group == nil {
		return fmt.Errorf("%w: no group in %s", ErrCorruptSession, s.Phase)
	}
	if !s.Demographics.Complete() {
		return fmt.Errorf("%w: incomplete demographics in %s", ErrCorruptSession, s.Phase)
	}
	want, err := layout.Items(*s.Group)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if !slices.Equal(want, s.Images) {
		return fmt.Errorf("%w: images do not match group %d", ErrCorruptSession, *s.Group)
	}
	if len(s.Responses) != len(s.Images) {
		return fmt.Errorf("%w: %d responses for %d images", ErrCorruptSession, len(s.Responses), len(s.Images))
	}
	for i, r := range s.Responses {
		if r.ImageID != s.Images[i] {
			return fmt.Errorf("%w: response %d is for image %q, want %q", ErrCorruptSession, i, r.ImageID, s.Images[i])
		}
		for _, f := range Fields {
			if v, ok := r.Rating(f); ok && !v.Valid() {
				return fmt.Errorf("%w: image %s %s=%d", ErrCorruptSession, r.ImageID, f, v)
			}
		}
	}
	if s.Phase == PhaseSurvey && (s.Index < 0 || s.Index > len(s.Images)-1) {
		return fmt.Errorf("%w: index %d outside [0,%d]", ErrCorruptSession, s.Index, len(s.Images)-1)
	}
	return nil
}
