package validate

import (
	"regexp"
	"strings"
)

// DescriptionValidator scores AS description strings for organizational
// quality and extracts probable organization names from them.
type DescriptionValidator struct {
	noise       []*regexp.Regexp
	indicators  []*regexp.Regexp
	suspicious  []*regexp.Regexp
	companyTail map[string]struct{}
}

// NewDescriptionValidator compiles the scoring patterns once.
func NewDescriptionValidator() *DescriptionValidator {
	return &DescriptionValidator{
		noise: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^UNALLOCATED`),
			regexp.MustCompile(`(?i)^RESERVED`),
			regexp.MustCompile(`(?i)^PRIVATE`),
			regexp.MustCompile(`(?i)^DOCUMENTATION`),
			regexp.MustCompile(`(?i)^RFC\d+`),
			regexp.MustCompile(`(?i)^TEST`),
		},
		indicators: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(NETWORKS?|TELECOMMUNICATIONS?|TELECOM|INTERNET|ISP)\b`),
			regexp.MustCompile(`(?i)\b(CORPORATION|CORP|COMPANY|ENTERPRISES?|LIMITED|LTD|INC|LLC)\b`),
			regexp.MustCompile(`(?i)\b(UNIVERSITY|COLLEGE|EDUCATION|RESEARCH)\b`),
			regexp.MustCompile(`(?i)\b(GOVERNMENT|GOV|FEDERAL|STATE|MUNICIPAL)\b`),
			regexp.MustCompile(`(?i)\b(CLOUD|HOSTING|DATACENTER|DATA\s*CENTER)\b`),
		},
		suspicious: []*regexp.Regexp{
			regexp.MustCompile(`^\d+$`),
			regexp.MustCompile(`^[A-Z]{1,3}\d+$`),
			regexp.MustCompile(`^[A-F0-9-]+$`),
		},
		companyTail: map[string]struct{}{
			"CORPORATION": {}, "CORP": {}, "COMPANY": {},
			"LIMITED": {}, "LTD": {}, "INC": {}, "LLC": {},
		},
	}
}

// Valid reports whether the description looks like a real organizational
// description rather than registry noise.
func (v *DescriptionValidator) Valid(description string) bool {
	desc := strings.TrimSpace(description)
	if len(desc) < 3 {
		return false
	}
	for _, p := range v.noise {
		if p.MatchString(desc) {
			return false
		}
	}
	for _, p := range v.suspicious {
		if p.MatchString(desc) {
			return false
		}
	}
	return true
}

// QualityScore rates the description in [0,1]. Invalid descriptions score 0.
// Scoring is additive from a 0.5 base: one organizational keyword hit +0.2,
// length 10..80 +0.1 (over 100 -0.1), 2..10 words +0.1 (over 15 -0.1),
// mixed case +0.1 (single case -0.1).
func (v *DescriptionValidator) QualityScore(description string) float64 {
	if !v.Valid(description) {
		return 0
	}
	desc := strings.TrimSpace(description)
	score := 0.5

	for _, p := range v.indicators {
		if p.MatchString(desc) {
			score += 0.2
			break
		}
	}

	switch n := len(desc); {
	case n >= 10 && n <= 80:
		score += 0.1
	case n > 100:
		score -= 0.1
	}

	switch words := len(strings.Fields(desc)); {
	case words >= 2 && words <= 10:
		score += 0.1
	case words > 15:
		score -= 0.1
	}

	if desc == strings.ToLower(desc) || desc == strings.ToUpper(desc) {
		score -= 0.1
	} else {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// OrganizationName extracts the likely organization name from a description.
// It cuts at the first company-form token ("... Inc") when one is present,
// otherwise takes the first two words.
func (v *DescriptionValidator) OrganizationName(description string) (string, bool) {
	if !v.Valid(description) {
		return "", false
	}
	cleaned := v.stripPrefixes(strings.TrimSpace(description))
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return "", false
	}

	for i, word := range words {
		if _, ok := v.companyTail[strings.ToUpper(strings.Trim(word, ".,"))]; ok {
			return strings.Join(words[:i+1], " "), true
		}
	}
	if len(words) >= 2 {
		return strings.Join(words[:2], " "), true
	}
	return words[0], true
}

var trailingCode = regexp.MustCompile(`\s+[A-Z0-9-]+$`)

func (v *DescriptionValidator) stripPrefixes(desc string) string {
	cleaned := desc
	for _, prefix := range []string{"AUTONOMOUS SYSTEM", "ASN", "AS", "THE ", "A ", "AN "} {
		if strings.HasPrefix(strings.ToUpper(cleaned), prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
		}
	}
	return strings.TrimSpace(trailingCode.ReplaceAllString(cleaned, ""))
}

// ASNRelevance scores how likely an AS belongs to the target organization
// given its registry attributes and the session's search terms.
type ASNRelevance struct {
	terms []string
	desc  *DescriptionValidator
}

// NewASNRelevance lower-cases the target terms up front.
func NewASNRelevance(terms []string) *ASNRelevance {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &ASNRelevance{terms: lowered, desc: NewDescriptionValidator()}
}

// Score combines description quality (x0.3), a description term hit (+0.4),
// a name term hit (+0.3) and 16-bit preference (+0.1) on a 0.3 base,
// clamped to [0,1].
func (r *ASNRelevance) Score(number int, name, description string) float64 {
	score := 0.3

	if description != "" {
		score += r.desc.QualityScore(description) * 0.3
		descLower := strings.ToLower(description)
		for _, term := range r.terms {
			if strings.Contains(descLower, term) {
				score += 0.4
				break
			}
		}
	}

	if name != "" {
		nameLower := strings.ToLower(name)
		for _, term := range r.terms {
			if strings.Contains(nameLower, term) {
				score += 0.3
				break
			}
		}
	}

	if Is16BitASN(number) {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
