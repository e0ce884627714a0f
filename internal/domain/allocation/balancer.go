// Package allocation balances group assignment across respondents on the
// collection server. Within a stratum (gender × age) each request gets the
// group with the fewest prior assignments, lowest id first on ties.
package allocation

import (
	"fmt"
	"sync"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
)

// Balancer assigns groups from persisted per-stratum counts.
// Safe for concurrent use.
type Balancer struct {
	ledger ports.AllocationLedger
	groups int

	mu sync.Mutex // serializes read-pick-increment
}

// NewBalancer creates a balancer over layout's groups.
func NewBalancer(ledger ports.AllocationLedger, layout survey.Layout) (*Balancer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Balancer{ledger: ledger, groups: layout.Groups()}, nil
}

// Assign picks and records a group for d. Demographics must name a known
// gender and age; job does not participate in stratification.
func (b *Balancer) Assign(d survey.Demographics) (int, error) {
	stratum, err := Stratum(d)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	counts, err := b.ledger.Counts(stratum)
	if err != nil {
		return 0, fmt.Errorf("read counts for %s: %w", stratum, err)
	}
	g := Pick(counts, b.groups)
	if err := b.ledger.Increment(stratum, g); err != nil {
		return 0, fmt.Errorf("record assignment for %s: %w", stratum, err)
	}
	return g, nil
}

// Pick returns the least-assigned group in [1, groups], lowest id on ties.
// Counts for ids outside the range are ignored.
func Pick(counts map[int]int, groups int) int {
	best, bestN := 1, counts[1]
	for g := 2; g <= groups; g++ {
		if n := counts[g]; n < bestN {
			best, bestN = g, n
		}
	}
	return best
}

// Stratum validates gender and age and returns the stratum key. Codes and
// aliases are normalized to wire labels first.
func Stratum(d survey.Demographics) (string, error) {
	gender, err := survey.ParseChoice(survey.FieldGender, d.Gender)
	if err != nil {
		return "", err
	}
	age, err := survey.ParseChoice(survey.FieldAge, d.Age)
	if err != nil {
		return "", err
	}
	return survey.Demographics{Gender: gender, Age: age}.Stratum(), nil
}
