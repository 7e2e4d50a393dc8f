package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexListSet(t *testing.T) {
	var list RegexList
	assert.False(t, list.IsDefined())

	require.NoError(t, list.Set("^members"))
	require.NoError(t, list.Set("pagination"))
	assert.True(t, list.IsDefined())
	assert.Equal(t, `"^members" or "pagination"`, list.String())

	assert.Error(t, list.Set("[unclosed"))
}

func TestRegexListAnyMatch(t *testing.T) {
	var list RegexList
	require.NoError(t, list.Set("^members"))

	assert.True(t, list.AnyMatch("members CRUD/create"))
	assert.False(t, list.AnyMatch("pagination/first page"))
}

func TestRegexFiltersAsFilter(t *testing.T) {
	id := func(path ...string) TestID { return TestID{Path: path} }

	t.Run("no patterns match everything", func(t *testing.T) {
		var filters RegexFilters
		assert.True(t, filters.AsFilter(id("anything")))
	})

	t.Run("must-match restricts", func(t *testing.T) {
		var filters RegexFilters
		require.NoError(t, filters.MustMatch.Set("rate limiting"))
		assert.True(t, filters.AsFilter(id("rate limiting", "single 429")))
		assert.False(t, filters.AsFilter(id("members CRUD", "create")))
	})

	t.Run("must-not-match excludes", func(t *testing.T) {
		var filters RegexFilters
		require.NoError(t, filters.MustNotMatch.Set("caching"))
		assert.False(t, filters.AsFilter(id("caching", "etag")))
		assert.True(t, filters.AsFilter(id("members CRUD", "create")))
	})

	t.Run("exclusion wins over inclusion", func(t *testing.T) {
		var filters RegexFilters
		require.NoError(t, filters.MustMatch.Set("members"))
		require.NoError(t, filters.MustNotMatch.Set("delete"))
		assert.True(t, filters.AsFilter(id("members CRUD", "create")))
		assert.False(t, filters.AsFilter(id("members CRUD", "delete then read")))
	})
}
