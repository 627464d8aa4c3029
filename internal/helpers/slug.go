package helpers

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	edgeDashes   = regexp.MustCompile(`^-+|-+$`)
	validSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lowercases name and collapses everything that is not a letter or
// digit into single dashes.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return edgeDashes.ReplaceAllString(slug, "")
}

// UniqueSlug appends a short random suffix so two products sharing a title
// still get distinct slugs.
func UniqueSlug(name string) string {
	base := Slugify(name)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func IsValidSlug(slug string) bool {
	return len(slug) <= 120 && validSlug.MatchString(slug)
}
