package filter

import (
	"regexp"
	"strings"

	"github.com/scopehound/scopehound/internal/discovery"
)

// Relevance drops candidates with no plausible connection to the target
// organization. With no search terms configured it keeps everything.
type Relevance struct {
	terms    []string
	minScore float64
	spam     []*regexp.Regexp
}

// NewRelevance lower-cases the target terms up front.
func NewRelevance(terms []string) *Relevance {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &Relevance{
		terms:    lowered,
		minScore: 0.1,
		spam: []*regexp.Regexp{
			regexp.MustCompile(`spam`),
			regexp.MustCompile(`phish`),
			regexp.MustCompile(`malware`),
			regexp.MustCompile(`temporary`),
			regexp.MustCompile(`temp\d*`),
		},
	}
}

func (f *Relevance) Name() string { return "relevance" }

// ShouldDrop scores the candidate as term-match fraction, plus 0.2 for
// multi-source corroboration, plus 0.3 weighted by current confidence, and
// drops below 0.1. Obvious abuse names are dropped outright.
func (f *Relevance) ShouldDrop(c *discovery.Candidate) bool {
	if len(f.terms) == 0 {
		return false
	}

	id := strings.ToLower(strings.TrimSpace(c.Identifier()))
	for _, p := range f.spam {
		if p.MatchString(id) {
			return true
		}
	}

	matches := 0
	for _, term := range f.terms {
		if strings.Contains(id, term) {
			matches++
		}
	}
	score := float64(matches) / float64(len(f.terms))
	if c.SourceCount() > 1 {
		score += 0.2
	}
	score += c.Confidence.Value() * 0.3

	return score < f.minScore
}
