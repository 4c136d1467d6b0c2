package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ProgressFunc receives percent-complete updates as a session advances.
// Updates are serialized and monotonically non-decreasing.
type ProgressFunc func(percent float64, message string)

// Pipeline is the generic engine for one asset type's discovery session.
// It runs four strictly ordered phases:
//
//  1. Collect:  query every source, merge corroborating findings (10-40%)
//  2. Filter:   run the filter chain, then the confidence threshold (40-70%)
//  3. Validate: drop invalid formats, enhance survivors concurrently (70-90%)
//  4. Finalize: convert candidates to typed assets, dedup by natural key (90-100%)
//
// No phase consumes a candidate rejected by an earlier phase. Per-source and
// per-candidate failures are recorded on the result and never abort the
// session; only invalid configuration is fatal.
type Pipeline[T any] struct {
	Config    *Config
	AssetType AssetType
	Sources   []Source
	Filters   *Chain

	// Validate is the authoritative format check; candidates failing it are
	// dropped without a warning.
	Validate func(identifier string) bool

	// Enhance enriches a surviving candidate in place (quality scoring, DNS
	// resolution). It may do I/O and runs concurrently under the session's
	// worker budget.
	Enhance func(ctx context.Context, c *Candidate) error

	// Finalize converts a candidate into a typed asset plus its natural key.
	Finalize func(c *Candidate) (T, string, error)

	// Merge combines two assets sharing a natural key. Nil keeps the first.
	Merge func(existing, incoming T) T

	// Commit registers a finalized asset in the cross-session scan state.
	Commit func(state *ScanState, asset T)

	// ThresholdAfterEnhance re-applies the confidence threshold after
	// enhancement, for sessions whose enhancement can penalize candidates
	// below viability (domain resolution).
	ThresholdAfterEnhance bool

	// CorroborationBoost is added when a second source reports an identifier
	// already seen. Zero means the default of 0.1.
	CorroborationBoost float64
}

// Run executes the session and always returns a result unless the
// configuration or context is invalid.
func (p *Pipeline[T]) Run(ctx context.Context, dctx *Context, state *ScanState, progress ProgressFunc) (*Result[T], error) {
	cfg := p.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if problems := dctx.Validate(); len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	result := NewResult[T](dctx)
	report := newProgressReporter(progress)
	start := time.Now()

	candidates := p.collect(ctx, cfg, dctx, state, result, report)
	kept := p.filter(cfg, candidates, result, report)
	validated := p.validateAndEnhance(ctx, cfg, kept, result, report)
	p.finalize(validated, state, result, report)

	result.CompletedAt = time.Now()
	result.Metrics.Duration = result.CompletedAt.Sub(start)
	report.report(100, fmt.Sprintf("discovery complete (%d assets)", len(result.Assets)))
	return result, nil
}

// collect queries every source and merges findings by case-insensitive
// identifier. A failing source becomes a warning, not a session failure.
func (p *Pipeline[T]) collect(ctx context.Context, cfg *Config, dctx *Context, state *ScanState, result *Result[T], report *progressReporter) []*Candidate {
	report.report(10, "collecting candidates from sources")

	query := Query{
		SearchTerms:   dctx.SearchTerms(),
		BaseDomains:   dctx.BaseDomains(),
		DiscoveredIPs: dctx.DiscoveredIPs(),
	}
	if state != nil {
		query.DiscoveredIPs = unionStrings(query.DiscoveredIPs, state.IPs())
	}

	boost := p.CorroborationBoost
	if boost == 0 {
		boost = 0.1
	}

	var (
		mu        sync.Mutex
		ordered   []*Candidate
		byID      = make(map[string]*Candidate)
		truncated bool
	)

	ingest := func(res *SourceResult) {
		mu.Lock()
		defer mu.Unlock()

		result.Metrics.APICalls += res.APICalls
		items := res.Items
		if len(items) > cfg.MaxCandidatesPerSource {
			result.AddWarning(fmt.Sprintf("%s returned %d candidates, keeping the first %d",
				res.SourceName, len(items), cfg.MaxCandidatesPerSource))
			items = items[:cfg.MaxCandidatesPerSource]
		}

		for _, item := range items {
			key := strings.ToLower(strings.TrimSpace(item.Identifier))
			if key == "" {
				continue
			}
			if existing, ok := byID[key]; ok {
				existing.AddSource(res.SourceName, boost)
				existing.MergeMetadata(item.Metadata)
				continue
			}
			if len(ordered) >= cfg.MaxTotalCandidates {
				if !truncated {
					result.AddWarning(fmt.Sprintf("candidate limit reached (%d), ignoring further findings",
						cfg.MaxTotalCandidates))
					truncated = true
				}
				continue
			}
			c := NewCandidate(item.Identifier, p.AssetType, res.Confidence,
				res.SourceName, "discovered via "+res.SourceName)
			c.Metadata = item.Metadata
			byID[key] = c
			ordered = append(ordered, c)
		}
	}

	total := len(p.Sources)
	runOne := func(i int, src Source) {
		res, err := src.Discover(ctx, query)
		if err != nil {
			srcErr := &SourceError{Source: src.Name(), Err: err}
			mu.Lock()
			result.AddWarning(srcErr.Error())
			result.Metrics.Errors++
			mu.Unlock()
			return
		}
		if res != nil {
			ingest(res)
		}
		report.report(10+30*float64(i+1)/float64(total), "collected from "+src.Name())
	}

	if cfg.ConcurrentSources && total > 1 {
		sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests))
		var wg sync.WaitGroup
		for i, src := range p.Sources {
			if err := sem.Acquire(ctx, 1); err != nil {
				result.AddWarning("collection interrupted, partial results kept: " + err.Error())
				break
			}
			wg.Add(1)
			go func(i int, src Source) {
				defer wg.Done()
				defer sem.Release(1)
				runOne(i, src)
			}(i, src)
		}
		wg.Wait()
	} else {
		for i, src := range p.Sources {
			if ctx.Err() != nil {
				result.AddWarning("collection interrupted, partial results kept: " + ctx.Err().Error())
				break
			}
			runOne(i, src)
		}
	}

	for _, c := range ordered {
		result.AddCandidate(c)
	}
	result.Metrics.CandidatesFound = len(ordered)
	report.report(40, fmt.Sprintf("collected %d candidates", len(ordered)))
	return ordered
}

// filter runs the chain in order (a candidate is dropped if any filter votes
// drop) and then the global confidence-threshold cut.
func (p *Pipeline[T]) filter(cfg *Config, candidates []*Candidate, result *Result[T], report *progressReporter) []*Candidate {
	kept := candidates

	if p.Filters != nil && p.Filters.Len() > 0 {
		surviving := make([]*Candidate, 0, len(kept))
		for _, c := range kept {
			if drop, _ := p.Filters.ShouldDrop(c); drop {
				result.Metrics.CandidatesFiltered++
				continue
			}
			surviving = append(surviving, c)
		}
		kept = surviving
		report.report(55, fmt.Sprintf("filter chain kept %d candidates", len(kept)))
	}

	surviving := make([]*Candidate, 0, len(kept))
	for _, c := range kept {
		if c.Confidence.Value() < cfg.MinConfidenceThreshold {
			result.Metrics.CandidatesFiltered++
			continue
		}
		surviving = append(surviving, c)
	}

	report.report(70, fmt.Sprintf("filtering complete (%d candidates remain)", len(surviving)))
	return surviving
}

// validateAndEnhance drops invalid-format candidates, then enhances the
// survivors concurrently up to the configured worker budget.
func (p *Pipeline[T]) validateAndEnhance(ctx context.Context, cfg *Config, candidates []*Candidate, result *Result[T], report *progressReporter) []*Candidate {
	valid := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if p.Validate != nil && !p.Validate(c.Identifier()) {
			continue
		}
		valid = append(valid, c)
	}

	if p.Enhance != nil && len(valid) > 0 {
		sem := semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests))
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			done int
		)
		total := len(valid)

		for _, c := range valid {
			if err := sem.Acquire(ctx, 1); err != nil {
				result.AddWarning("enhancement interrupted, partial results kept: " + err.Error())
				break
			}
			wg.Add(1)
			go func(c *Candidate) {
				defer wg.Done()
				defer sem.Release(1)
				if err := p.Enhance(ctx, c); err != nil {
					mu.Lock()
					result.AddWarning(fmt.Sprintf("enhancing %s: %v", c.Identifier(), err))
					mu.Unlock()
				}
				mu.Lock()
				done++
				n := done
				mu.Unlock()
				if n%10 == 0 || n == total {
					report.report(70+20*float64(n)/float64(total),
						fmt.Sprintf("enhanced %d/%d candidates", n, total))
				}
			}(c)
		}
		wg.Wait()
	}

	if p.ThresholdAfterEnhance {
		surviving := make([]*Candidate, 0, len(valid))
		for _, c := range valid {
			if c.Confidence.Value() >= cfg.MinConfidenceThreshold {
				surviving = append(surviving, c)
			}
		}
		valid = surviving
	}

	result.Metrics.CandidatesValidated = len(valid)
	report.report(90, fmt.Sprintf("validation complete (%d candidates)", len(valid)))
	return valid
}

// finalize converts surviving candidates into typed assets, deduplicated by
// natural key, and registers them in the shared scan state.
func (p *Pipeline[T]) finalize(candidates []*Candidate, state *ScanState, result *Result[T], report *progressReporter) {
	for _, c := range candidates {
		asset, key, err := p.Finalize(c)
		if err != nil {
			result.AddWarning(fmt.Sprintf("finalizing %s: %v", c.Identifier(), err))
			continue
		}
		result.AddAsset(key, asset, p.Merge)
		if p.Commit != nil && state != nil {
			p.Commit(state, asset)
		}
	}
}

// progressReporter serializes callbacks onto a single channel of updates and
// clamps them to be monotonically non-decreasing.
type progressReporter struct {
	mu   sync.Mutex
	last float64
	fn   ProgressFunc
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) report(percent float64, message string) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	p.fn(percent, message)
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
