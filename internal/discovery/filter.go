package discovery

// Filter is a cheap predicate over candidates: no external I/O, no side
// effects beyond permitted confidence/metadata annotation. Returning true
// drops the candidate.
type Filter interface {
	Name() string
	ShouldDrop(c *Candidate) bool
}

// Resettable filters carry per-session state (seen-sets) that must be
// cleared between sessions.
type Resettable interface {
	Reset()
}

// Chain is an ordered filter list. A candidate survives only if every
// filter votes keep.
type Chain struct {
	filters []Filter
}

// NewChain builds a chain from filters applied in order.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Append adds a filter to the end of the chain.
func (ch *Chain) Append(f Filter) {
	ch.filters = append(ch.filters, f)
}

// Len returns the number of filters in the chain.
func (ch *Chain) Len() int { return len(ch.filters) }

// ShouldDrop runs the chain in order and returns the name of the first
// filter that votes drop.
func (ch *Chain) ShouldDrop(c *Candidate) (bool, string) {
	for _, f := range ch.filters {
		if f.ShouldDrop(c) {
			return true, f.Name()
		}
	}
	return false, ""
}

// Reset clears the per-session state of every resettable filter.
func (ch *Chain) Reset() {
	for _, f := range ch.filters {
		if r, ok := f.(Resettable); ok {
			r.Reset()
		}
	}
}
