// Package media stores uploaded images and videos on an external host and
// hands back durable URLs. Binary content never touches the document store.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Uploader is the media host abstraction used by the HTTP layer.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Allowed lists the content types accepted for upload.
var Allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"video/mp4":  true,
	"video/webm": true,
}

// SniffMIME detects the content type from the first 512 bytes and rewinds the
// reader so the upload starts from byte 0.
func SniffMIME(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}
