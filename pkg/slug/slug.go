package slug

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegexp = regexp.MustCompile(`\s+`)
	invalidRegexp    = regexp.MustCompile(`[^a-z0-9-]`)
)

// Generate creates a URL-friendly slug from the given name: lowercase,
// whitespace collapsed to single hyphens, anything outside [a-z0-9-]
// stripped. The derivation is deterministic so the same name always
// yields the same slug.
//
// Examples:
//   - "Summer   Sale" → "summer-sale"
//   - "50% Off Everything!" → "50-off-everything"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))

	slug = whitespaceRegexp.ReplaceAllString(slug, "-")
	slug = invalidRegexp.ReplaceAllString(slug, "")

	// Collapse consecutive hyphens left behind by stripped characters.
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return strings.Trim(slug, "-")
}
