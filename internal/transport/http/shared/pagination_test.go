package shared

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePaginationClampsAndDefaults(t *testing.T) {
	p := ParsePagination(httptest.NewRequest("GET", "/?limit=900&offset=-3", nil), 100, 500)
	require.Equal(t, Pagination{Limit: 500, Offset: 0}, p)

	p = ParsePagination(httptest.NewRequest("GET", "/", nil), 0, 1000)
	require.Equal(t, Pagination{}, p)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	require.Equal(t, items, Page(items, Pagination{}))
	require.Equal(t, []int{3, 4}, Page(items, Pagination{Limit: 2, Offset: 2}))
	require.Equal(t, []int{5}, Page(items, Pagination{Limit: 10, Offset: 4}))
	require.NotNil(t, Page(items, Pagination{Offset: 9}))
	require.Empty(t, Page(items, Pagination{Offset: 9}))
}
