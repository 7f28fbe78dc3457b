package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gjayprakash/commerce-backend/internal/apperr"
)

func TestFilter(t *testing.T) {
	got := Filter([]int{1, 2, 3, 4, 5}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
}

func TestFlatMap(t *testing.T) {
	got := FlatMap([][]string{{"a", "b"}, nil, {"c"}}, func(v []string) []string { return v })
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestIndexBy_LaterWins(t *testing.T) {
	type kv struct {
		k string
		v int
	}
	got := IndexBy([]kv{{"a", 1}, {"b", 2}, {"a", 3}}, func(e kv) string { return e.k })
	assert.Equal(t, 3, got["a"].v)
	assert.Equal(t, 2, got["b"].v)
}

func TestGroupBy_FirstSeenKeyOrder(t *testing.T) {
	got := GroupBy([]string{"pear", "plum", "apple", "peach"}, func(s string) byte { return s[0] })
	require.Len(t, got, 2)
	assert.Equal(t, byte('p'), got[0].Key)
	assert.Equal(t, []string{"pear", "plum", "peach"}, got[0].Items)
	assert.Equal(t, byte('a'), got[1].Key)
}

func TestSortBy_StableAndNonDestructive(t *testing.T) {
	type row struct {
		rank int
		tag  string
	}
	in := []row{{2, "a"}, {1, "b"}, {2, "c"}, {1, "d"}}
	got := SortBy(in, func(a, b row) bool { return a.rank < b.rank })

	assert.Equal(t, []row{{1, "b"}, {1, "d"}, {2, "a"}, {2, "c"}}, got)
	// input untouched
	assert.Equal(t, row{2, "a"}, in[0])
}

func TestNormalizePaging(t *testing.T) {
	page, limit, err := NormalizePaging(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit, err = NormalizePaging(3, 25)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	var invalid *apperr.InvalidArgumentError
	_, _, err = NormalizePaging(-1, 10)
	require.ErrorAs(t, err, &invalid)
	_, _, err = NormalizePaging(1, -10)
	require.ErrorAs(t, err, &invalid)
}

func TestPaginate(t *testing.T) {
	in := []int{10, 20, 30, 40, 50}

	page, env := Paginate(in, 1, 2)
	assert.Equal(t, []int{10, 20}, page)
	assert.Equal(t, Pagination{Total: 5, Page: 1, Limit: 2, TotalPages: 3}, env)

	// partial last page
	page, env = Paginate(in, 3, 2)
	assert.Equal(t, []int{50}, page)
	assert.Equal(t, 3, env.TotalPages)

	// past the end: empty page, envelope intact
	page, env = Paginate(in, 9, 2)
	assert.Empty(t, page)
	assert.Equal(t, 5, env.Total)

	// exact division
	_, env = Paginate(in, 1, 5)
	assert.Equal(t, 1, env.TotalPages)
}
