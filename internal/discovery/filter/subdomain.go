package filter

import (
	"regexp"
	"strings"

	"github.com/scopehound/scopehound/internal/discovery"
)

// Subdomain annotates confidence by subdomain shape. It never drops: service
// prefixes that attackers and admins actually use (vpn, api, sso) get a
// boost, machine-generated prefixes (cdn14, ssl3, hex blobs) get a penalty
// floored at 0.1 so the threshold cut can decide.
type Subdomain struct {
	highValue []*regexp.Regexp
	lowValue  []*regexp.Regexp
}

// NewSubdomain compiles the prefix patterns once.
func NewSubdomain() *Subdomain {
	return &Subdomain{
		highValue: []*regexp.Regexp{
			regexp.MustCompile(`^(www|mail|smtp|imap|pop3|ftp|sftp|ssh|vpn)\.`),
			regexp.MustCompile(`^(api|admin|portal|dashboard|console)\.`),
			regexp.MustCompile(`^(dev|staging|test|prod|production|beta|alpha)\.`),
			regexp.MustCompile(`^(app|apps|service|services|web|mobile)\.`),
			regexp.MustCompile(`^(secure|auth|sso|oauth|login|signin)\.`),
		},
		lowValue: []*regexp.Regexp{
			regexp.MustCompile(`^ssl\d+\.`),
			regexp.MustCompile(`^[a-f0-9]{8,}\.`),
			regexp.MustCompile(`^[0-9]{4,}\.`),
			regexp.MustCompile(`^cache[0-9]*\.`),
			regexp.MustCompile(`^cdn[0-9]*\.`),
			regexp.MustCompile(`^edge[0-9]*\.`),
		},
	}
}

func (f *Subdomain) Name() string { return "subdomain" }

// ShouldDrop always keeps the candidate, adjusting confidence by prefix
// value. Non-domain candidates pass through untouched.
func (f *Subdomain) ShouldDrop(c *discovery.Candidate) bool {
	if t := c.Type(); t != discovery.AssetDomain && t != discovery.AssetSubdomain {
		return false
	}
	id := strings.ToLower(c.Identifier())

	for _, p := range f.highValue {
		if p.MatchString(id) {
			c.Confidence.Adjust(0.1, "high-value subdomain prefix")
			return false
		}
	}
	for _, p := range f.lowValue {
		if p.MatchString(id) {
			c.Confidence.AdjustFloor(-0.2, 0.1, "low-value subdomain prefix")
			break
		}
	}
	return false
}
