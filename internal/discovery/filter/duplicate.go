package filter

import (
	"strings"

	"github.com/scopehound/scopehound/internal/discovery"
)

// Duplicate drops candidates whose case-insensitive identifier has already
// been seen this session. It is stateful and must be Reset between sessions.
type Duplicate struct {
	seen map[string]struct{}
}

// NewDuplicate creates an empty seen-set.
func NewDuplicate() *Duplicate {
	return &Duplicate{seen: make(map[string]struct{})}
}

func (f *Duplicate) Name() string { return "duplicate" }

// ShouldDrop records the identifier and votes drop on any repeat.
func (f *Duplicate) ShouldDrop(c *discovery.Candidate) bool {
	key := strings.ToLower(strings.TrimSpace(c.Identifier()))
	if _, ok := f.seen[key]; ok {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

// Reset clears the seen-set for a new session.
func (f *Duplicate) Reset() {
	f.seen = make(map[string]struct{})
}
