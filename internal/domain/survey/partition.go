package survey

import (
	"fmt"
	"strconv"
)

// Layout describes how the shared image pool is cut into groups.
// PoolSize must be a multiple of GroupSize.
type Layout struct {
	PoolSize  int `json:"pool_size" yaml:"pool_size"`
	GroupSize int `json:"group_size" yaml:"group_size"`
}

// DefaultLayout is the reference instance: 500 images, 10 per respondent, 50 groups.
var DefaultLayout = Layout{PoolSize: 500, GroupSize: 10}

// Validate checks that the pool divides evenly into non-empty groups.
func (l Layout) Validate() error {
	if l.GroupSize <= 0 || l.PoolSize <= 0 {
		return fmt.Errorf("%w: pool=%d group=%d", ErrInvalidLayout, l.PoolSize, l.GroupSize)
	}
	if l.PoolSize%l.GroupSize != 0 {
		return fmt.Errorf("%w: pool %d not divisible by group size %d", ErrInvalidLayout, l.PoolSize, l.GroupSize)
	}
	return nil
}

// Groups returns the number of groups (P/k), or 0 for an invalid layout.
func (l Layout) Groups() int {
	if l.Validate() != nil {
		return 0
	}
	return l.PoolSize / l.GroupSize
}

// Items returns the image identifiers of group g under this layout.
func (l Layout) Items(g int) ([]string, error) {
	return Partition(g, l.PoolSize, l.GroupSize)
}

// Partition maps 1-based group g to the contiguous block of image
// identifiers [(g-1)*k+1 .. g*k], as decimal strings in ascending order.
func Partition(g, poolSize, groupSize int) ([]string, error) {
	l := Layout{PoolSize: poolSize, GroupSize: groupSize}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if g < 1 || g > l.Groups() {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrGroupOutOfRange, g, l.Groups())
	}
	start := (g-1)*groupSize + 1
	items := make([]string, groupSize)
	for i := range items {
		items[i] = strconv.Itoa(start + i)
	}
	return items, nil
}
