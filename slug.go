package ageline

import (
	"regexp"
	"strings"
)

var (
	slugDropRe     = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugCollapseRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns a subject name into a stable file-system identifier:
// lowercase, ASCII alphanumerics, words joined by underscores.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugDropRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
