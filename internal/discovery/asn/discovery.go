// Package asn implements the autonomous-system discovery session: BGP search
// by organization name plus IP-to-ASN mapping of already-discovered
// addresses, scored against the session's search terms.
package asn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/filter"
	"github.com/scopehound/scopehound/internal/discovery/ratelimit"
	"github.com/scopehound/scopehound/internal/discovery/source"
	"github.com/scopehound/scopehound/internal/discovery/validate"
	"github.com/scopehound/scopehound/internal/types"
)

// Discovery runs AS discovery sessions. One Discovery is reusable across
// sessions; filter state is rebuilt per run.
type Discovery struct {
	config  *discovery.Config
	limiter *ratelimit.Limiter
	sources []discovery.Source
	desc    *validate.DescriptionValidator
}

// New builds a session runner. Nil config and limiter get defaults; passing
// explicit sources overrides the standard BGP and IP-to-ASN pair (tests do
// this).
func New(config *discovery.Config, limiter *ratelimit.Limiter, sources ...discovery.Source) *Discovery {
	if config == nil {
		config = discovery.DefaultConfig()
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	config.ApplyRateLimits(limiter)

	if len(sources) == 0 {
		opts := source.Options{
			Limiter:    limiter,
			Timeout:    config.RequestTimeout,
			MaxRetries: config.MaxRetries,
			RetryDelay: config.RateLimitDelay,
		}
		// Scraping tolerates far less pressure than the DNS interface.
		bgpOpts := opts
		bgpOpts.PaceDelay = 2 * time.Second
		dnsOpts := opts
		dnsOpts.PaceDelay = 500 * time.Millisecond
		sources = []discovery.Source{
			source.NewBGPHE(bgpOpts),
			source.NewIPToASN(nil, dnsOpts),
		}
	}

	return &Discovery{
		config:  config,
		limiter: limiter,
		sources: sources,
		desc:    validate.NewDescriptionValidator(),
	}
}

// Limiter exposes the shared rate limiter for quota inspection.
func (d *Discovery) Limiter() *ratelimit.Limiter { return d.limiter }

// Discover runs one AS session against the given context, committing
// finalized systems into the shared scan state.
func (d *Discovery) Discover(ctx context.Context, dctx *discovery.Context, state *discovery.ScanState, progress discovery.ProgressFunc) (*discovery.Result[types.ASN], error) {
	chainCfg := filter.DefaultASNChainConfig(dctx.SearchTerms())
	chainCfg.MinConfidence = d.config.MinConfidenceThreshold

	var filters *discovery.Chain
	if d.config.EnableQualityFiltering {
		filters = filter.NewASNChain(chainCfg)
	} else {
		filters = discovery.NewChain(
			filter.NewASNRange(chainCfg.AllowPrivate, chainCfg.Prefer16Bit),
			filter.NewASNDuplicate(),
		)
	}

	p := &discovery.Pipeline[types.ASN]{
		Config:    d.config,
		AssetType: discovery.AssetASN,
		Sources:   d.sources,
		Filters:   filters,
		Validate:  validate.ValidASN,
		Enhance:   d.enhance,
		Finalize:  d.finalize,
		Commit: func(state *discovery.ScanState, asset types.ASN) {
			state.AddASN(asset)
		},
	}
	return p.Run(ctx, dctx, state, progress)
}

// enhance extracts the organization from the registry description and folds
// description quality into confidence. Pure computation; no I/O.
func (d *Discovery) enhance(_ context.Context, c *discovery.Candidate) error {
	description := c.Metadata.Description
	if description == "" {
		description = c.Metadata.Name
	}
	if description == "" {
		return nil
	}

	if c.Metadata.Organization == "" {
		if org, ok := d.desc.OrganizationName(description); ok {
			c.Metadata.Organization = org
			c.Confidence.Adjust(0.1, "organization extracted from description")
		}
	}

	quality := d.desc.QualityScore(description)
	c.Metadata.QualityScore = quality
	c.Metadata.Scored = true
	switch {
	case quality > 0.7:
		c.Confidence.Adjust(0.1, "high-quality description")
	case quality < 0.3:
		c.Confidence.AdjustFloor(-0.1, 0.1, "low-quality description")
	}
	return nil
}

func (d *Discovery) finalize(c *discovery.Candidate) (types.ASN, string, error) {
	number, ok := validate.NormalizeASN(c.Identifier())
	if !ok {
		return types.ASN{}, "", fmt.Errorf("not a valid AS number: %s", c.Identifier())
	}
	asset := types.ASN{
		Number:      number,
		Name:        c.Metadata.Name,
		Description: c.Metadata.Description,
		Country:     c.Metadata.Country,
		DataSource:  strings.Join(c.Sources(), ","),
	}
	return asset, asset.Key(), nil
}
