package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Men's Shoes", "men-s-shoes"},
		{"  Summer   Sale 2024 ", "summer-sale-2024"},
		{"--Hello--World--", "hello-world"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestUniqueSlug(t *testing.T) {
	a := UniqueSlug("Cotton T-Shirt")
	b := UniqueSlug("Cotton T-Shirt")

	assert.True(t, strings.HasPrefix(a, "cotton-t-shirt-"))
	assert.NotEqual(t, a, b)
	assert.True(t, IsValidSlug(a))
	assert.Len(t, UniqueSlug("!!!"), 6)
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("abc-123"))
	assert.False(t, IsValidSlug("Abc"))
	assert.False(t, IsValidSlug("a--b"))
	assert.False(t, IsValidSlug("-a"))
	assert.False(t, IsValidSlug(""))
}
