package discovery

import (
	"time"

	"github.com/google/uuid"
)

// Result is the per-session output: finalized assets deduplicated by natural
// key, the full candidate audit trail, metrics, and the non-fatal errors and
// warnings accumulated along the way.
type Result[T any] struct {
	ScanID  string
	Context *Context

	Assets     []T
	Candidates []*Candidate
	Metrics    Metrics
	Errors     []string
	Warnings   []string

	StartedAt   time.Time
	CompletedAt time.Time

	keys map[string]int // natural key -> index into Assets
}

// NewResult creates an empty result for one session.
func NewResult[T any](ctx *Context) *Result[T] {
	return &Result[T]{
		ScanID:    uuid.New().String(),
		Context:   ctx,
		StartedAt: time.Now(),
		keys:      make(map[string]int),
	}
}

// AddAsset registers a finalized asset under its natural key. When the key
// is already present the merge function combines the two; a nil merge keeps
// the existing asset. Returns true if the key was new.
func (r *Result[T]) AddAsset(key string, asset T, merge func(existing, incoming T) T) bool {
	if i, ok := r.keys[key]; ok {
		if merge != nil {
			r.Assets[i] = merge(r.Assets[i], asset)
		}
		return false
	}
	r.keys[key] = len(r.Assets)
	r.Assets = append(r.Assets, asset)
	return true
}

// AddCandidate appends to the audit trail.
func (r *Result[T]) AddCandidate(c *Candidate) {
	r.Candidates = append(r.Candidates, c)
}

// AddError records a non-fatal session error.
func (r *Result[T]) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Metrics.Errors++
}

// AddWarning records a non-fatal warning.
func (r *Result[T]) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// SuccessRate is assets over candidates; 1.0 when the session saw no
// candidates at all.
func (r *Result[T]) SuccessRate() float64 {
	if len(r.Candidates) == 0 {
		if len(r.Assets) == 0 {
			return 1.0
		}
		return 0.0
	}
	return float64(len(r.Assets)) / float64(len(r.Candidates))
}
