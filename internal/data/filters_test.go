package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookFiltersFreeTextSearchesAllFields(t *testing.T) {
	query, args, err := BookFilters{Search: "orwell"}.buildQuery()
	require.NoError(t, err)

	// One pattern per searched column, OR-combined.
	assert.Equal(t, []any{"%orwell%", "%orwell%", "%orwell%"}, args)
	assert.Contains(t, query, "ILIKE")
	assert.Contains(t, query, "OR")
	assert.Contains(t, query, `ORDER BY "title" ASC`)
}

func TestBookFiltersFreeTextWinsOverFieldFilters(t *testing.T) {
	query, args, err := BookFilters{Search: "orwell", Title: "ignored", Author: "ignored"}.buildQuery()
	require.NoError(t, err)

	assert.Equal(t, []any{"%orwell%", "%orwell%", "%orwell%"}, args)
	assert.NotContains(t, query, "ignored")
}

func TestBookFiltersPerFieldFiltersCombineWithAnd(t *testing.T) {
	query, args, err := BookFilters{Title: "farm", Category: "fiction"}.buildQuery()
	require.NoError(t, err)

	assert.Equal(t, []any{"%farm%", "%fiction%"}, args)
	assert.Contains(t, query, "AND")
	assert.NotContains(t, query, "OR")
}

func TestBookFiltersEmptyListsEverything(t *testing.T) {
	query, args, err := BookFilters{}.buildQuery()
	require.NoError(t, err)

	assert.Empty(t, args)
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, `ORDER BY "title" ASC`)
}

// Repeated builds of the same filter must be byte-identical so repeated
// catalog reads return the same ordered result set.
func TestBookFiltersDeterministic(t *testing.T) {
	filters := BookFilters{Search: "dystopia"}

	first, firstArgs, err := filters.buildQuery()
	require.NoError(t, err)
	second, secondArgs, err := filters.buildQuery()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstArgs, secondArgs)
}

func TestBookFiltersParameterizeUserInput(t *testing.T) {
	query, args, err := BookFilters{Title: `'; DROP TABLE books; --`}.buildQuery()
	require.NoError(t, err)

	// The hostile input must only ever appear as a bind argument.
	assert.NotContains(t, query, "DROP TABLE")
	assert.Equal(t, []any{`%'; DROP TABLE books; --%`}, args)
}
