package media

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url      string
		id       string
		resource string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/products/abc.jpg", "products/abc", "image"},
		{"https://res.cloudinary.com/demo/video/upload/clips/intro.mp4", "clips/intro", "video"},
		{"https://res.cloudinary.com/demo/image/upload/v2/logo.png", "logo", "image"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, rt, err := PublicIDFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.resource, rt)
		})
	}

	_, _, err := PublicIDFromURL("https://example.com/files/a.jpg")
	assert.Error(t, err)
}

func TestSniffMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000000000")
	r := bytes.NewReader(png)

	mime, err := SniffMIME(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.True(t, Allowed[mime])

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, rest, "reader is rewound")
}
