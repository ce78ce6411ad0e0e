package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	var nilString *string
	name := "harry"
	id := uuid.MustParse("4f1638da-861e-4a81-8cc7-e6847b6fdf9b")

	testCases := []struct {
		name     string
		query    Query
		expected string
	}{
		{name: "nil query", query: nil, expected: ""},
		{name: "empty query", query: Query{}, expected: ""},
		{name: "unset values are omitted", query: Query{"a": 1, "b": nil}, expected: "a=1"},
		{name: "typed nil pointer is omitted", query: Query{"a": nilString, "b": true}, expected: "b=true"},
		{name: "pointer is dereferenced", query: Query{"name": &name}, expected: "name=harry"},
		{name: "sorted keys", query: Query{"z": "1", "a": "2", "m": 3.5}, expected: "a=2&m=3.5&z=1"},
		{name: "slices are joined", query: Query{"ids": []int{1, 2, 3}}, expected: "ids=1%2C2%2C3"},
		{name: "spaces and reserved characters", query: Query{"q": "a b&c"}, expected: "q=a+b%26c"},
		{name: "stringer", query: Query{"id": id}, expected: "id=" + id.String()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.query.Encode())
		})
	}
}

func TestKeys(t *testing.T) {
	q := Query{"b": 1, "a": 2, "c": nil}
	assert.Equal(t, []string{"a", "b"}, q.Keys())
}

func TestCacheKey(t *testing.T) {
	q1 := Query{"b": 2, "a": 1}
	q2 := Query{"a": 1, "b": 2}
	assert.Equal(t, q1.CacheKey("list"), q2.CacheKey("list"))
	assert.Equal(t, `list-{"a":1,"b":2}`, q1.CacheKey("list"))
	assert.NotEqual(t, q1.CacheKey("list"), q1.CacheKey("show"))
	assert.Equal(t, "list-{}", Query(nil).CacheKey("list"))

	var unset *int
	q3 := Query{"a": 1, "b": 2, "c": nil, "d": unset}
	assert.Equal(t, q1.CacheKey("list"), q3.CacheKey("list"))
	assert.Equal(t, Query{}.CacheKey("list"), Query{"c": nil}.CacheKey("list"))
}

func TestParse(t *testing.T) {
	q, err := Parse("?a=1&b=x+y&a=2")
	require.NoError(t, err)
	assert.Equal(t, Query{"a": "2", "b": "x y"}, q)

	_, err = Parse("a=%zz")
	assert.Error(t, err)
}

func TestParsePairs(t *testing.T) {
	q, err := ParsePairs([]string{"author=Tolkien", "year=1954", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, Query{"author": "Tolkien", "year": "1954", "note": "a=b"}, q)

	_, err = ParsePairs([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParsePairs([]string{"=value"})
	assert.Error(t, err)
}
