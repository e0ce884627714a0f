package allocation

import (
	"errors"
	"sync"
	"testing"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger is an in-memory AllocationLedger.
type memLedger struct {
	mu     sync.Mutex
	counts map[string]map[int]int
	err    error
}

func newMemLedger() *memLedger {
	return &memLedger{counts: make(map[string]map[int]int)}
}

func (m *memLedger) Counts(stratum string) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int]int)
	for g, n := range m.counts[stratum] {
		out[g] = n
	}
	return out, nil
}

func (m *memLedger) Increment(stratum string, group int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[stratum] == nil {
		m.counts[stratum] = make(map[int]int)
	}
	m.counts[stratum][group]++
	return nil
}

var (
	youngMale   = survey.Demographics{Gender: "남성", Age: "20대", Job: "학생"}
	youngMale2  = survey.Demographics{Gender: "남성", Age: "20대", Job: "무직"}
	olderFemale = survey.Demographics{Gender: "여성", Age: "60대 이상", Job: "기타"}
)

func TestPick(t *testing.T) {
	assert.Equal(t, 1, Pick(nil, 5))
	assert.Equal(t, 2, Pick(map[int]int{1: 1}, 5))
	assert.Equal(t, 3, Pick(map[int]int{1: 2, 2: 2, 3: 1, 4: 1}, 4))
	assert.Equal(t, 1, Pick(map[int]int{1: 1, 2: 1, 3: 1}, 3))
	assert.Equal(t, 1, Pick(map[int]int{0: 9, 99: 9}, 2), "out-of-range counts ignored")
}

func TestBalancer_RoundRobinWithinStratum(t *testing.T) {
	b, err := NewBalancer(newMemLedger(), survey.Layout{PoolSize: 30, GroupSize: 10})
	require.NoError(t, err)

	var got []int
	for i := 0; i < 7; i++ {
		g, err := b.Assign(youngMale)
		require.NoError(t, err)
		got = append(got, g)
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, got)
}

func TestBalancer_StrataIndependent(t *testing.T) {
	b, err := NewBalancer(newMemLedger(), survey.DefaultLayout)
	require.NoError(t, err)

	g, err := b.Assign(youngMale)
	require.NoError(t, err)
	assert.Equal(t, 1, g)

	// Job is not part of the stratum.
	g, err = b.Assign(youngMale2)
	require.NoError(t, err)
	assert.Equal(t, 2, g)

	g, err = b.Assign(olderFemale)
	require.NoError(t, err)
	assert.Equal(t, 1, g)
}

func TestBalancer_ConcurrentAssignmentsStayBalanced(t *testing.T) {
	ledger := newMemLedger()
	b, err := NewBalancer(ledger, survey.Layout{PoolSize: 50, GroupSize: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Assign(youngMale)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counts, err := ledger.Counts(youngMale.Stratum())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 10, 2: 10, 3: 10, 4: 10, 5: 10}, counts)
}

func TestBalancer_RejectsUnknownStratum(t *testing.T) {
	b, err := NewBalancer(newMemLedger(), survey.DefaultLayout)
	require.NoError(t, err)

	_, err = b.Assign(survey.Demographics{Gender: "남성", Age: "", Job: "학생"})
	assert.ErrorIs(t, err, survey.ErrInvalidDemographic)
	_, err = b.Assign(survey.Demographics{Gender: "other", Age: "20대"})
	assert.ErrorIs(t, err, survey.ErrInvalidDemographic)
}

func TestBalancer_LedgerError(t *testing.T) {
	ledger := newMemLedger()
	ledger.err = errors.New("disk full")
	b, err := NewBalancer(ledger, survey.DefaultLayout)
	require.NoError(t, err)

	_, err = b.Assign(youngMale)
	assert.ErrorContains(t, err, "disk full")
}

func TestNewBalancer_InvalidLayout(t *testing.T) {
	_, err := NewBalancer(newMemLedger(), survey.Layout{PoolSize: 10, GroupSize: 3})
	assert.ErrorIs(t, err, survey.ErrInvalidLayout)
}

func TestStratum_NormalizesCodes(t *testing.T) {
	s, err := Stratum(survey.Demographics{Gender: "f", Age: "60s"})
	require.NoError(t, err)
	assert.Equal(t, olderFemale.Stratum(), s)
}
