package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		page   int
		offset int
	}{
		{"", DefaultLimit, 1, 0},
		{"limit=20&page=3", 20, 3, 40},
		{"limit=0", DefaultLimit, 1, 0},
		{"limit=500", MaxLimit, 1, 0},
		{"limit=abc&page=-2", DefaultLimit, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p := ParsePagination(q)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	p.ComputeMeta(25)

	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	p = Pagination{Limit: 10, Page: 3}
	p.ComputeMeta(25)
	assert.False(t, p.HasNext)
}
