package validate

import "strings"

// Provider signatures checked in order; the first substring hit wins.
var cloudSignatures = []struct {
	provider   string
	substrings []string
}{
	{"aws", []string{"amazonaws", "cloudfront", "awsdns"}},
	{"azure", []string{"azure", "windows.net", "azurewebsites"}},
	{"gcp", []string{"googleusercontent", "appspot", "googleapis"}},
	{"cloudflare", []string{"cloudflare"}},
	{"akamai", []string{"akamai", "akamaized"}},
	{"fastly", []string{"fastly"}},
	{"heroku", []string{"herokuapp"}},
	{"digitalocean", []string{"digitalocean"}},
}

// ValidCloudIdentifier reports whether the identifier is plausible enough to
// record as a cloud service endpoint.
func ValidCloudIdentifier(identifier string) bool {
	return len(strings.TrimSpace(identifier)) >= 3
}

// CloudProvider identifies which provider hosts the identifier, if any.
func CloudProvider(identifier string) (string, bool) {
	lower := strings.ToLower(identifier)
	for _, sig := range cloudSignatures {
		for _, sub := range sig.substrings {
			if strings.Contains(lower, sub) {
				return sig.provider, true
			}
		}
	}
	return "", false
}
