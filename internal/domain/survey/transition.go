package survey

import "fmt"

// ActionKind enumerates the inputs of the session state machine.
type ActionKind int

const (
	// ActSetDemographic edits one demographic field (START only).
	ActSetDemographic ActionKind = iota
	// ActStartRequested begins group resolution.
	ActStartRequested
	// ActGroupResolved completes START → SURVEY with a resolved group.
	ActGroupResolved
	// ActGroupFailed releases the busy flag without leaving START.
	ActGroupFailed
	// ActAnswer sets one rating of the current image.
	ActAnswer
	// ActNext advances, or requests submission at the last image.
	ActNext
	// ActPrev moves back one image.
	ActPrev
	// ActSubmitSucceeded completes SURVEY → FINISH.
	ActSubmitSucceeded
	// ActSubmitFailed leaves the respondent where they were.
	ActSubmitFailed
)

var actionNames = map[ActionKind]string{
	ActSetDemographic:  "set_demographic",
	ActStartRequested:  "start_requested",
	ActGroupResolved:   "group_resolved",
	ActGroupFailed:     "group_failed",
	ActAnswer:          "answer",
	ActNext:            "next",
	ActPrev:            "prev",
	ActSubmitSucceeded: "submit_succeeded",
	ActSubmitFailed:    "submit_failed",
}

// String returns the action name.
func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one input to Reduce. Only the fields relevant to Kind are read.
type Action struct {
	Kind ActionKind

	Demographic DemographicField // ActSetDemographic
	Value       string           // ActSetDemographic: code, alias or label

	Field  Field // ActAnswer
	Rating int   // ActAnswer

	Group        int    // ActGroupResolved
	SubmissionID string // ActGroupResolved
}

// Effect tells the controller which I/O a transition requires next.
type Effect int

const (
	EffectNone Effect = iota
	// EffectResolveGroup: call the resolver, then dispatch ActGroupResolved.
	EffectResolveGroup
	// EffectSubmit: call the gateway, then dispatch ActSubmitSucceeded/Failed.
	EffectSubmit
)

// Reduce applies a to s and returns the next session and the effect the
// caller must perform. s is never modified; on error the returned session
// is s unchanged.
func Reduce(s Session, a Action, layout Layout) (Session, Effect, error) {
	next := s.Clone()
	eff, err := apply(&next, a, layout)
	if err != nil {
		return s, EffectNone, fmt.Errorf("%s: %w", a.Kind, err)
	}
	return next, eff, nil
}

func apply(s *Session, a Action, layout Layout) (Effect, error) {
	switch a.Kind {
	case ActSetDemographic:
		if err := expect(s, PhaseStart, false); err != nil {
			return EffectNone, err
		}
		v, err := ParseChoice(a.Demographic, a.Value)
		if err != nil {
			return EffectNone, err
		}
		s.Demographics.set(a.Demographic, v)
		return EffectNone, nil

	case ActStartRequested:
		if err := expect(s, PhaseStart, false); err != nil {
			return EffectNone, err
		}
		if !s.Demographics.Complete() {
			return EffectNone, ErrIncompleteDemographics
		}
		s.Busy = true
		return EffectResolveGroup, nil

	case ActGroupResolved:
		if err := expect(s, PhaseStart, true); err != nil {
			return EffectNone, err
		}
		items, err := layout.Items(a.Group)
		if err != nil {
			return EffectNone, err
		}
		g := a.Group
		s.Phase = PhaseSurvey
		s.Group = &g
		s.Images = items
		s.Responses = make([]Response, len(items))
		for i, id := range items {
			s.Responses[i] = NewResponse(id)
		}
		s.Index = 0
		s.Busy = false
		s.SubmissionID = a.SubmissionID
		return EffectNone, nil

	case ActGroupFailed:
		if err := expect(s, PhaseStart, true); err != nil {
			return EffectNone, err
		}
		s.Busy = false
		return EffectNone, nil

	case ActAnswer:
		if err := expect(s, PhaseSurvey, false); err != nil {
			return EffectNone, err
		}
		v, err := ParseLikert(a.Rating)
		if err != nil {
			return EffectNone, err
		}
		slot := s.Responses[s.Index].slot(a.Field)
		if slot == nil {
			return EffectNone, fmt.Errorf("%w: %q", ErrUnknownField, string(a.Field))
		}
		*slot = &v
		return EffectNone, nil

	case ActNext:
		if err := expect(s, PhaseSurvey, false); err != nil {
			return EffectNone, err
		}
		if !s.Responses[s.Index].Complete() {
			return EffectNone, ErrIncompleteResponse
		}
		if s.Index < len(s.Images)-1 {
			s.Index++
			return EffectNone, nil
		}
		s.Busy = true
		return EffectSubmit, nil

	case ActPrev:
		if err := expect(s, PhaseSurvey, false); err != nil {
			return EffectNone, err
		}
		if s.Index == 0 {
			return EffectNone, ErrAtFirstItem
		}
		s.Index--
		return EffectNone, nil

	case ActSubmitSucceeded:
		if err := expect(s, PhaseSurvey, true); err != nil {
			return EffectNone, err
		}
		s.Phase = PhaseFinish
		s.Busy = false
		return EffectNone, nil

	case ActSubmitFailed:
		if err := expect(s, PhaseSurvey, true); err != nil {
			return EffectNone, err
		}
		s.Busy = false
		return EffectNone, nil
	}
	return EffectNone, fmt.Errorf("unknown action %d", int(a.Kind))
}

// expect checks the phase and the busy flag. Completion actions require a
// request to be in flight; user actions require none.
func expect(s *Session, phase Phase, busy bool) error {
	if s.Phase != phase {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}
	if busy && !s.Busy {
		return fmt.Errorf("%w: no request in flight", ErrWrongPhase)
	}
	if !busy && s.Busy {
		return ErrBusy
	}
	if phase == PhaseSurvey && (s.Index < 0 || s.Index >= len(s.Responses)) {
		return fmt.Errorf("%w: index %d", ErrCorruptSession, s.Index)
	}
	return nil
}
