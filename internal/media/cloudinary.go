package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds the adapter from a CLOUDINARY_URL style DSN.
func NewCloudinary(dsn, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload stores r under folder with a random public id and returns the secure URL.
func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, folder string) (string, error) {
	if folder == "" {
		folder = c.folder
	}
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		PublicID:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		ResourceType: "auto",
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, assetURL string) error {
	publicID, resourceType, err := PublicIDFromURL(assetURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset from Cloudinary: %w", err)
	}
	return nil
}

// PublicIDFromURL extracts the public id and resource type from a delivery URL
// such as https://res.cloudinary.com/demo/image/upload/v1712/products/abc.jpg.
func PublicIDFromURL(assetURL string) (publicID, resourceType string, err error) {
	parsed, err := url.Parse(assetURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		if i > 0 {
			resourceType = parts[i-1]
		}
		rest := parts[i+1:]
		if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		id = strings.TrimSuffix(id, path.Ext(id))
		if id == "" {
			break
		}
		return id, resourceType, nil
	}

	return "", "", errors.New("failed to extract public ID from URL")
}
