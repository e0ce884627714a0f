package survey

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Group partitioner: contiguous, disjoint blocks covering the pool
// =============================================================================

func TestPartition_Group3(t *testing.T) {
	items, err := Partition(3, 500, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"21", "22", "23", "24", "25", "26", "27", "28", "29", "30"}, items)
}

func TestPartition_FirstAndLast(t *testing.T) {
	first, err := DefaultLayout.Items(1)
	require.NoError(t, err)
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "10", first[9])

	last, err := DefaultLayout.Items(50)
	require.NoError(t, err)
	assert.Equal(t, "491", last[0])
	assert.Equal(t, "500", last[9])
}

func TestPartition_CoversPoolWithoutOverlap(t *testing.T) {
	layouts := []Layout{
		{PoolSize: 500, GroupSize: 10},
		{PoolSize: 12, GroupSize: 3},
		{PoolSize: 7, GroupSize: 1},
		{PoolSize: 8, GroupSize: 8},
	}
	for _, l := range layouts {
		seen := make(map[string]int)
		for g := 1; g <= l.Groups(); g++ {
			items, err := l.Items(g)
			require.NoError(t, err)
			require.Len(t, items, l.GroupSize)
			for i, id := range items {
				n, err := strconv.Atoi(id)
				require.NoError(t, err)
				assert.Equal(t, (g-1)*l.GroupSize+1+i, n, "group %d item %d", g, i)
				seen[id]++
			}
		}
		assert.Len(t, seen, l.PoolSize, "layout %+v", l)
		for id, c := range seen {
			assert.Equal(t, 1, c, "image %s assigned %d times", id, c)
		}
	}
}

func TestPartition_OutOfRange(t *testing.T) {
	for _, g := range []int{0, -1, 51} {
		_, err := Partition(g, 500, 10)
		assert.ErrorIs(t, err, ErrGroupOutOfRange, "group %d", g)
	}
}

func TestPartition_InvalidLayout(t *testing.T) {
	_, err := Partition(1, 500, 7)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = Partition(1, 500, 0)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	assert.Equal(t, 0, Layout{PoolSize: 10, GroupSize: 3}.Groups())
}

func TestAssetLocator_PadsIdentifier(t *testing.T) {
	a := AssetLocator{BaseURL: "https://img.example/images/", Width: 3, Ext: ".jpg"}
	assert.Equal(t, "https://img.example/images/007.jpg", a.URL("7"))
	assert.Equal(t, "https://img.example/images/021.jpg", a.URL("21"))
	assert.Equal(t, "https://img.example/images/500.jpg", a.URL("500"))
	assert.Equal(t, "https://img.example/images/1234.jpg", a.URL("1234"))
}
