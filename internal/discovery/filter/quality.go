package filter

import (
	"regexp"
	"strings"

	"github.com/scopehound/scopehound/internal/discovery"
)

// Quality drops identifiers that are structurally worthless regardless of
// the search context: pure numbers, long hex blobs, local-only and
// documentation names.
type Quality struct {
	junk []*regexp.Regexp
}

// NewQuality compiles the junk patterns once.
func NewQuality() *Quality {
	return &Quality{
		junk: []*regexp.Regexp{
			regexp.MustCompile(`^\d+$`),
			regexp.MustCompile(`^[a-f0-9]{32,}$`),
			regexp.MustCompile(`\.local$`),
			regexp.MustCompile(`^localhost`),
			regexp.MustCompile(`example\.(com|org|net)$`),
			regexp.MustCompile(`^test\.`),
			regexp.MustCompile(`\.test$`),
		},
	}
}

func (f *Quality) Name() string { return "quality" }

// ShouldDrop votes drop when the identifier is out of the 3..253 length
// range or matches any junk pattern.
func (f *Quality) ShouldDrop(c *discovery.Candidate) bool {
	id := strings.ToLower(strings.TrimSpace(c.Identifier()))
	if len(id) < 3 || len(id) > 253 {
		return true
	}
	for _, p := range f.junk {
		if p.MatchString(id) {
			return true
		}
	}
	return false
}
