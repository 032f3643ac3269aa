package course

import (
	"strings"
	"unicode"
)

const ext = ".md"

// NormalizeSlug turns a filename or user supplied slug into the bare slug a
// document is addressed by: surrounding whitespace, any ".md" suffixes, path
// separators and control characters are removed. It is idempotent.
func NormalizeSlug(slug string) string {
	s := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, slug)

	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ext) {
		s = strings.TrimSpace(strings.TrimSuffix(s, ext))
	}
	return s
}

// RouteSegment is a file or directory name as it appears in a route: no
// whitespace anywhere and no ".md" suffix.
func RouteSegment(filename string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, filename)
	return strings.TrimSuffix(s, ext)
}

func validSlug(slug string) bool {
	return slug != "" && slug != "." && slug != ".."
}

// MountPrefix normalizes the URL prefix routes are mounted under to
// "/segment" form, or "" for the site root.
func MountPrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
