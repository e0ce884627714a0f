package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests run against a real database when SURVEY_TEST_DATABASE_URL is set.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SURVEY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SURVEY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.Reset(ctx))
	return s
}

func submission(id string) survey.Submission {
	return survey.Submission{
		Action:       survey.SubmitAction,
		SubmissionID: id,
		Demographics: survey.Demographics{Gender: "남성", Age: "40대", Job: "현장직"},
		GroupID:      7,
		Responses:    []survey.Response{survey.NewResponse("61")},
		Timestamp:    "2026-05-01T09:00:00.000Z",
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
	_, err = New(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}

func TestStore_RecordUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, submission("x")))
	require.NoError(t, s.Record(ctx, submission("x")))
	require.NoError(t, s.Record(ctx, submission("")))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	var found bool
	for _, rec := range all {
		if rec.Key == "x" {
			found = true
			assert.Equal(t, 2, rec.Attempts)
			assert.Equal(t, submission("x"), rec.Submission)
			assert.NotZero(t, rec.ReceivedAt)
		}
	}
	assert.True(t, found)
}

func TestStore_Allocations(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Increment("남성/40대", 2))
	require.NoError(t, s.Increment("남성/40대", 2))
	require.NoError(t, s.Increment("남성/40대", 5))

	counts, err := s.Counts("남성/40대")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{2: 2, 5: 1}, counts)

	counts, err = s.Counts("여성/10대")
	require.NoError(t, err)
	assert.Empty(t, counts)
}
