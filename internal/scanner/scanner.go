// Package scanner runs complete scans: the domain session feeds resolved IPs
// into the scan state, the AS session consumes them, and the loop repeats
// until no iteration produces anything new. Results go to storage when a
// store is attached.
package scanner

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/asn"
	"github.com/scopehound/scopehound/internal/discovery/domain"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
	"github.com/scopehound/scopehound/internal/discovery/source"
	"github.com/scopehound/scopehound/internal/storage"
	"github.com/scopehound/scopehound/internal/types"
)

// Scanner owns the per-asset-type sessions and the shared rate limiter.
type Scanner struct {
	config  *discovery.Config
	limiter *ratelimit.Limiter
	domains *domain.Discovery
	asns    *asn.Discovery
	store   storage.Storage
}

// Summary is the outcome of one full scan.
type Summary struct {
	ScanID     string
	Target     string
	Iterations int

	State    *discovery.ScanState
	ASNs     []types.ASN
	Domains  []types.Domain
	Warnings []string

	StartedAt   time.Time
	CompletedAt time.Time
}

// New builds a scanner. Nil config gets defaults; nil store disables
// persistence; nil resolver uses the system resolver for domain enhancement.
func New(config *discovery.Config, store storage.Storage, resolver source.Resolver) *Scanner {
	if config == nil {
		config = discovery.DefaultConfig()
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	limiter := ratelimit.New()
	config.ApplyRateLimits(limiter)

	return &Scanner{
		config:  config,
		limiter: limiter,
		domains: domain.New(config, limiter, resolver),
		asns:    asn.New(config, limiter),
		store:   store,
	}
}

// NewWithSessions builds a scanner around pre-constructed sessions. Tests
// use this to inject stubbed sources.
func NewWithSessions(config *discovery.Config, store storage.Storage, domains *domain.Discovery, asns *asn.Discovery) *Scanner {
	if config == nil {
		config = discovery.DefaultConfig()
	}
	return &Scanner{
		config:  config,
		limiter: domains.Limiter(),
		domains: domains,
		asns:    asns,
		store:   store,
	}
}

// Limiter exposes the shared rate limiter for quota inspection.
func (s *Scanner) Limiter() *ratelimit.Limiter { return s.limiter }

// Run executes up to MaxIterations rounds of domain-then-AS discovery,
// stopping early once a round adds nothing. Partial results survive source
// failures; only invalid configuration aborts.
func (s *Scanner) Run(ctx context.Context, dctx *discovery.Context, progress discovery.ProgressFunc) (*Summary, error) {
	state := discovery.NewScanState()
	summary := &Summary{
		ScanID:    uuid.New().String(),
		Target:    dctx.TargetOrganization,
		State:     state,
		StartedAt: time.Now(),
	}

	maxIterations := s.config.MaxIterations
	if dctx.MaxIterations > 0 && dctx.MaxIterations < maxIterations {
		maxIterations = dctx.MaxIterations
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		dctx.Iteration = iteration
		beforeASNs, beforeDomains, beforeSubs, beforeIPs := state.Counts()

		domainResult, err := s.domains.Discover(ctx, dctx, state, phaseProgress(progress,
			fmt.Sprintf("iteration %d: domains", iteration)))
		if err != nil {
			return nil, err
		}
		summary.Warnings = append(summary.Warnings, domainResult.Warnings...)

		asnResult, err := s.asns.Discover(ctx, dctx, state, phaseProgress(progress,
			fmt.Sprintf("iteration %d: autonomous systems", iteration)))
		if err != nil {
			return nil, err
		}
		summary.Warnings = append(summary.Warnings, asnResult.Warnings...)

		summary.Iterations = iteration
		if ctx.Err() != nil {
			summary.Warnings = append(summary.Warnings, "scan interrupted: "+ctx.Err().Error())
			break
		}

		afterASNs, afterDomains, afterSubs, afterIPs := state.Counts()
		if afterASNs == beforeASNs && afterDomains == beforeDomains &&
			afterSubs == beforeSubs && afterIPs == beforeIPs {
			break
		}
	}

	summary.ASNs = state.ASNs()
	summary.Domains = state.Domains()
	summary.CompletedAt = time.Now()

	if s.store != nil {
		if err := s.persist(ctx, summary); err != nil {
			summary.Warnings = append(summary.Warnings, "persisting scan: "+err.Error())
		}
	}
	return summary, nil
}

func (s *Scanner) persist(ctx context.Context, summary *Summary) error {
	subdomains := 0
	for i := range summary.Domains {
		subdomains += summary.Domains[i].SubdomainCount()
	}

	scan := storage.Scan{
		ID:             summary.ScanID,
		Target:         summary.Target,
		StartedAt:      summary.StartedAt,
		CompletedAt:    summary.CompletedAt,
		ASNCount:       len(summary.ASNs),
		DomainCount:    len(summary.Domains),
		SubdomainCount: subdomains,
	}
	if err := s.store.SaveScan(ctx, scan); err != nil {
		return err
	}
	if err := s.store.SaveASNs(ctx, summary.ScanID, summary.ASNs); err != nil {
		return err
	}
	return s.store.SaveDomains(ctx, summary.ScanID, summary.Domains)
}

// phaseProgress prefixes session progress with the scan phase label.
func phaseProgress(progress discovery.ProgressFunc, label string) discovery.ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(percent float64, message string) {
		progress(percent, label+": "+message)
	}
}
