package products

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryDefaults(t *testing.T) {
	q, err := BuildQuery(RawFilters{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Applied.Pagination.Page)
	assert.Equal(t, 10, q.Applied.Pagination.Limit)
	assert.Equal(t, 0, q.Applied.Pagination.Offset)
	assert.Empty(t, q.where)
	assert.Empty(t, q.args)

	sql, args := q.selectSQL()
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY m.id DESC")
	assert.Equal(t, []any{10, 0}, args)
}

func TestBuildQueryAccumulatesAllErrors(t *testing.T) {
	long := strings.Repeat("a", 101)
	_, err := BuildQuery(RawFilters{
		PriceMin: "expensive",
		Search:   long,
		Author:   long,
		Page:     "0",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 4)
	assert.Contains(t, verr.Errors, `Price filter error: Field "price_min" must be a valid number`)
	assert.Contains(t, verr.Errors, "Search filter error: Search term cannot exceed 100 characters")
	assert.Contains(t, verr.Errors, "Author filter error: author cannot exceed 100 characters")
	assert.Contains(t, verr.Errors, "Pagination error: page must be at least 1")
}

func TestBuildQueryPaginationBounds(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		limit   string
		wantErr string
	}{
		{name: "page zero", page: "0", wantErr: "Pagination error: page must be at least 1"},
		{name: "negative page", page: "-2", wantErr: "Pagination error: page must be at least 1"},
		{name: "limit zero", limit: "0", wantErr: "Pagination error: limit must be between 1 and 100"},
		{name: "limit above cap", limit: "101", wantErr: "Pagination error: limit must be between 1 and 100"},
		{name: "limit at cap", limit: "100"},
		{name: "non-numeric page", page: "two", wantErr: `Pagination error: Field "page" must be a valid number`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildQuery(RawFilters{Page: tt.page, Limit: tt.limit})
			if tt.wantErr != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Errors, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 100, q.Applied.Pagination.Limit)
		})
	}
}

func TestBuildQueryOffsetComputation(t *testing.T) {
	q, err := BuildQuery(RawFilters{Page: "3", Limit: "20"})
	require.NoError(t, err)
	assert.Equal(t, 40, q.Applied.Pagination.Offset)

	_, args := q.selectSQL()
	assert.Equal(t, []any{20, 40}, args)
}

func TestBuildQueryCategoryFilter(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		q, err := BuildQuery(RawFilters{Category: "7"})
		require.NoError(t, err)
		require.Len(t, q.where, 1)
		assert.Equal(t, "c.id = $1", q.where[0])
		assert.Equal(t, []any{int64(7)}, q.args)
	})

	t.Run("by name, case-insensitive", func(t *testing.T) {
		q, err := BuildQuery(RawFilters{Category: "Seinen"})
		require.NoError(t, err)
		require.Len(t, q.where, 1)
		assert.Equal(t, "LOWER(c.name) = $1", q.where[0])
		assert.Equal(t, []any{"seinen"}, q.args)
	})
}

func TestBuildQueryTagsAnyOf(t *testing.T) {
	q, err := BuildQuery(RawFilters{Tags: "1,2,9"})
	require.NoError(t, err)
	require.Len(t, q.where, 1)
	assert.Contains(t, q.where[0], "EXISTS")
	assert.Contains(t, q.where[0], "mt.tag_id IN ($1, $2, $3)")
	assert.Equal(t, []any{int64(1), int64(2), int64(9)}, q.args)
	assert.Equal(t, []int64{1, 2, 9}, q.Applied.Tags)
}

func TestBuildQuerySearchMatchesNameOrSeries(t *testing.T) {
	q, err := BuildQuery(RawFilters{Search: "Berserk"})
	require.NoError(t, err)
	require.Len(t, q.where, 1)
	assert.Equal(t, "(LOWER(m.name) LIKE $1 OR LOWER(m.series) LIKE $2)", q.where[0])
	assert.Equal(t, []any{"%berserk%", "%berserk%"}, q.args)
}

func TestBuildQueryExactMatchFilters(t *testing.T) {
	q, err := BuildQuery(RawFilters{
		Author:      "Kentaro Miura",
		Genre:       "dark fantasy",
		Illustrator: "Kentaro Miura",
		TomoNumber:  "12",
	})
	require.NoError(t, err)
	require.Len(t, q.where, 4)
	assert.Equal(t, "m.author = $1", q.where[0])
	assert.Equal(t, "m.genre = $2", q.where[1])
	assert.Equal(t, "m.illustrator = $3", q.where[2])
	assert.Equal(t, "m.tomo_number = $4", q.where[3])
}

func TestBuildQueryTomoNumberMustBePositive(t *testing.T) {
	_, err := BuildQuery(RawFilters{TomoNumber: "0"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "Tomo number filter error: tomoNumber must be greater than 0")
}

func TestBuildQueryPriceRange(t *testing.T) {
	q, err := BuildQuery(RawFilters{PriceMin: "5", PriceMax: "30"})
	require.NoError(t, err)
	require.Len(t, q.where, 2)
	assert.Equal(t, "m.price >= $1", q.where[0])
	assert.Equal(t, "m.price <= $2", q.where[1])
}

func TestBuildQueryCombinedPlaceholderNumbering(t *testing.T) {
	q, err := BuildQuery(RawFilters{
		Category: "3",
		Tags:     "4,5",
		PriceMin: "1",
		Search:   "naruto",
	})
	require.NoError(t, err)

	sql, args := q.selectSQL()
	assert.Len(t, args, 8) // 6 filter args + limit + offset
	assert.Contains(t, sql, "LIMIT $7 OFFSET $8")

	countSQL, countArgs := q.countSQL()
	assert.Len(t, countArgs, 6)
	assert.NotContains(t, countSQL, "LIMIT")
	assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(*)"))
}

// Building twice from the same input must yield identical queries; the
// builder keeps no state between calls.
func TestBuildQueryIsPure(t *testing.T) {
	raw := RawFilters{Category: "2", Tags: "1,2", Search: "bleach", Page: "2", Limit: "25"}

	q1, err := BuildQuery(raw)
	require.NoError(t, err)
	q2, err := BuildQuery(raw)
	require.NoError(t, err)

	sql1, args1 := q1.selectSQL()
	sql2, args2 := q2.selectSQL()
	assert.Equal(t, sql1, sql2)
	assert.Equal(t, args1, args2)
	assert.Equal(t, q1.Applied, q2.Applied)
}
