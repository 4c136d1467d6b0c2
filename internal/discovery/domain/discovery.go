// Package domain implements the domain and subdomain discovery session:
// certificate transparency plus passive DNS, with live resolution as the
// enhancement step. Finalized subdomains are grouped under their registrable
// parent.
package domain

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

const (
	statusActive     = "active"
	statusUnresolved = "unresolved"
	statusDiscovered = "discovered"
)

// Discovery runs domain discovery sessions.
type Discovery struct {
	config   *discovery.Config
	limiter  *ratelimit.Limiter
	resolver source.Resolver
	sources  []discovery.Source
}

// New builds a session runner. Nil config, limiter and resolver get
// defaults; passing explicit sources overrides the standard pair.
func New(config *discovery.Config, limiter *ratelimit.Limiter, resolver source.Resolver, sources ...discovery.Source) *Discovery {
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
			PaceDelay:  config.RateLimitDelay,
		}
		sources = []discovery.Source{
			source.NewCrtSh(opts),
			source.NewHackerTarget(opts),
		}
	}

	return &Discovery{
		config:   config,
		limiter:  limiter,
		resolver: resolver,
		sources:  sources,
	}
}

// Limiter exposes the shared rate limiter for quota inspection.
func (d *Discovery) Limiter() *ratelimit.Limiter { return d.limiter }

// Discover runs one domain session. Resolution failures during enhancement
// penalize the candidate; the confidence threshold is re-applied afterwards
// so names that neither resolve nor corroborate drop out.
func (d *Discovery) Discover(ctx context.Context, dctx *discovery.Context, state *discovery.ScanState, progress discovery.ProgressFunc) (*discovery.Result[types.Domain], error) {
	var filters *discovery.Chain
	if d.config.EnableQualityFiltering {
		filters = filter.NewDomainChain(dctx.SearchTerms())
	} else {
		filters = discovery.NewChain(filter.NewDuplicate(), filter.NewSubdomain())
	}

	p := &discovery.Pipeline[types.Domain]{
		Config:                d.config,
		AssetType:             discovery.AssetDomain,
		Sources:               d.sources,
		Filters:               filters,
		Validate:              validate.ValidDomain,
		Enhance:               d.enhance,
		Finalize:              d.finalize,
		ThresholdAfterEnhance: true,
		Merge: func(existing, incoming types.Domain) types.Domain {
			existing.Merge(incoming)
			return existing
		},
		Commit: func(state *discovery.ScanState, asset types.Domain) {
			state.AddDomain(asset)
			for _, sub := range asset.Subdomains() {
				state.AddIPs(sub.ResolvedIPs...)
				if provider, ok := validate.CloudProvider(sub.FQDN); ok {
					state.AddCloudService(types.CloudService{
						Provider:   provider,
						Identifier: sub.FQDN,
						DataSource: sub.DataSource,
					})
				}
			}
		},
	}
	return p.Run(ctx, dctx, state, progress)
}

// enhance resolves the candidate. Success boosts confidence and records the
// addresses; failure is a strong negative signal but never an error, since
// unresolved names can still matter (decommissioned infrastructure).
func (d *Discovery) enhance(ctx context.Context, c *discovery.Candidate) error {
	if d.resolver == nil {
		return nil
	}
	if d.limiter != nil {
		// Defer rather than fail when the DNS quota is spent; the window
		// reopens on its own and the lookup is still worth making.
		if err := d.limiter.Wait(ctx, "dns"); err != nil {
			return err
		}
		d.limiter.Record("dns")
	}

	addrs, err := d.resolver.LookupHost(ctx, c.Identifier())
	if err != nil || len(addrs) == 0 {
		c.Confidence.AdjustFloor(-0.3, 0.1, "failed DNS resolution")
		d.setStatus(c, statusUnresolved)
		return nil
	}

	c.Metadata.ResolvedIPs = addrs
	c.Confidence.Adjust(0.1, "resolved via DNS")
	d.setStatus(c, statusActive)
	return nil
}

func (d *Discovery) setStatus(c *discovery.Candidate, status string) {
	if c.Metadata.Extra == nil {
		c.Metadata.Extra = make(map[string]string)
	}
	c.Metadata.Extra["status"] = status
}

// finalize wraps the FQDN in a subdomain record grouped under its
// registrable parent, which is the asset's natural key.
func (d *Discovery) finalize(c *discovery.Candidate) (types.Domain, string, error) {
	fqdn := strings.ToLower(strings.TrimSpace(c.Identifier()))
	if !validate.ValidDomain(fqdn) {
		return types.Domain{}, "", fmt.Errorf("not a valid domain: %s", c.Identifier())
	}
	parent := validate.ParentDomain(fqdn)

	status := c.Metadata.Extra["status"]
	if status == "" {
		if len(c.Metadata.ResolvedIPs) > 0 {
			status = statusActive
		} else {
			status = statusDiscovered
		}
	}

	dataSource := strings.Join(c.Sources(), ",")
	dom := types.Domain{
		Name:       parent,
		DataSource: dataSource,
	}
	dom.AddSubdomain(types.Subdomain{
		FQDN:        fqdn,
		Status:      status,
		ResolvedIPs: append([]string(nil), c.Metadata.ResolvedIPs...),
		DataSource:  dataSource,
		LastChecked: time.Now(),
	})
	return dom, parent, nil
}
