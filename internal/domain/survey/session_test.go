package survey

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FreshDefault(t *testing.T) {
	s := New()
	assert.Equal(t, PhaseStart, s.Phase)
	assert.Nil(t, s.Group)
	assert.Empty(t, s.Images)
	assert.Empty(t, s.Responses)
	assert.Equal(t, 0, s.Index)
	assert.NoError(t, s.Validate(DefaultLayout))
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := surveying(t, 7)
	s = answerAll(t, s, 1, 2, 3, 4, 5)
	s, _ = mustReduce(t, s, Action{Kind: ActNext})
	s, _ = mustReduce(t, s, Action{Kind: ActAnswer, Field: FieldDepression, Rating: 2})

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var loaded Session
	require.NoError(t, json.Unmarshal(b, &loaded))
	if diff := cmp.Diff(s, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, loaded.Validate(DefaultLayout))
}

func TestSession_JSONShape(t *testing.T) {
	b, err := json.Marshal(New())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"step": "START",
		"demographics": {"gender": "", "age": "", "job": ""},
		"assignedGroup": null,
		"images": [],
		"currentImageIndex": 0,
		"responses": [],
		"isSubmitting": false
	}`, string(b))
}

func TestSession_ValidateRejectsCorruption(t *testing.T) {
	base := surveying(t, 3)

	cases := map[string]func(s *Session){
		"unknown phase":      func(s *Session) { s.Phase = "DONE" },
		"index past end":     func(s *Session) { s.Index = 10 },
		"negative index":     func(s *Session) { s.Index = -1 },
		"missing response":   func(s *Session) { s.Responses = s.Responses[:9] },
		"wrong image order":  func(s *Session) { s.Images[0], s.Images[1] = s.Images[1], s.Images[0] },
		"group out of range": func(s *Session) { g := 99; s.Group = &g },
		"no group":           func(s *Session) { s.Group = nil },
		"bad rating": func(s *Session) {
			v := Likert(9)
			s.Responses[2].Boredom = &v
		},
		"bad demographic": func(s *Session) { s.Demographics.Job = "astronaut" },
	}
	for name, mutate := range cases {
		s := base.Clone()
		mutate(&s)
		assert.ErrorIs(t, s.Validate(DefaultLayout), ErrCorruptSession, name)
	}
}

func TestSession_ValidateStartWithGroup(t *testing.T) {
	s := New()
	g := 1
	s.Group = &g
	assert.ErrorIs(t, s.Validate(DefaultLayout), ErrCorruptSession)
}

func TestNewSubmission(t *testing.T) {
	s := surveying(t, 3)
	now := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("KST", 9*3600))

	p, err := NewSubmission(s, now)
	require.NoError(t, err)
	assert.Equal(t, "submit", p.Action)
	assert.Equal(t, 3, p.GroupID)
	assert.Equal(t, "sub-1", p.SubmissionID)
	assert.Equal(t, "2026-03-03T20:06:07.890Z", p.Timestamp)
	assert.Len(t, p.Responses, 10)
	assert.NoError(t, p.Validate(DefaultLayout))

	_, err = NewSubmission(New(), now)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestSubmission_ValidateRejects(t *testing.T) {
	s := surveying(t, 3)
	good, err := NewSubmission(s, time.Now())
	require.NoError(t, err)

	bad := good
	bad.Action = "assignGroup"
	assert.Error(t, bad.Validate(DefaultLayout))

	bad = good
	bad.GroupID = 4
	assert.Error(t, bad.Validate(DefaultLayout))

	bad = good
	bad.Responses = good.Responses[:3]
	assert.Error(t, bad.Validate(DefaultLayout))

	bad = good
	bad.Timestamp = "yesterday"
	assert.Error(t, bad.Validate(DefaultLayout))
}
