package validate

import (
	"regexp"
	"strings"
)

var domainPattern = regexp.MustCompile(
	`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*` +
		`[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

var alphaOnly = regexp.MustCompile(`^[a-zA-Z]+$`)

// ValidDomain reports whether the name is an RFC-shaped domain: labels of at
// most 63 chars not starting or ending with a hyphen, total length at most
// 253, at least two labels, and an alphabetic TLD of at least two chars.
func ValidDomain(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(name))
	if !domainPattern.MatchString(domain) {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}

	tld := labels[len(labels)-1]
	return len(tld) >= 2 && alphaOnly.MatchString(tld)
}

// IsSubdomain reports whether the name is a valid domain with more than two
// labels.
func IsSubdomain(name string) bool {
	return ValidDomain(name) && strings.Count(name, ".") > 1
}

// ParentDomain returns the registrable parent (last two labels) of an FQDN.
// Non-subdomains are returned unchanged.
func ParentDomain(fqdn string) string {
	labels := strings.Split(strings.ToLower(strings.TrimSpace(fqdn)), ".")
	if len(labels) <= 2 {
		return strings.ToLower(strings.TrimSpace(fqdn))
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
