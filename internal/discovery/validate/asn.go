// Package validate holds the authoritative format and quality checks for
// discovery candidates. Everything here is a pure function of its input: no
// network, no shared mutable state.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	minASN      = 1
	maxASN16Bit = 65535
	maxASN32Bit = 4294967295
)

var asnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^AS(\d+)$`),
	regexp.MustCompile(`^(\d+)$`),
}

// Reserved AS numbers and ranges per RFC 1930, 5398, 6996 and 7300.
var reservedASNRanges = [][2]int{
	{0, 0},
	{23456, 23456}, // AS_TRANS
	{64496, 64511}, // documentation
	{64512, 65534}, // private use
	{65535, 65535},
}

// ValidASN reports whether the identifier is a well-formed, non-reserved AS
// number in either "AS12345" or plain numeric form.
func ValidASN(identifier string) bool {
	n, ok := extractASNNumber(identifier)
	if !ok {
		return false
	}
	if n < minASN || n > maxASN32Bit {
		return false
	}
	return !isReservedASN(n)
}

// NormalizeASN converts a valid identifier to its numeric form.
func NormalizeASN(identifier string) (int, bool) {
	if !ValidASN(identifier) {
		return 0, false
	}
	return extractASNNumber(identifier)
}

// FormatASN renders an AS number in canonical "AS12345" form.
func FormatASN(number int) string {
	return fmt.Sprintf("AS%d", number)
}

// Is16BitASN reports whether the number fits the legacy 16-bit space.
// 16-bit assignments tend to be older, established networks.
func Is16BitASN(number int) bool {
	return number >= minASN && number <= maxASN16Bit
}

// IsPrivateASN reports whether the number falls in a private-use range
// (64512-65534 or 4200000000-4294967294).
func IsPrivateASN(number int) bool {
	return (number >= 64512 && number <= 65534) ||
		(number >= 4200000000 && number <= 4294967294)
}

func extractASNNumber(identifier string) (int, bool) {
	s := strings.TrimSpace(identifier)
	for _, pattern := range asnPatterns {
		m := pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

func isReservedASN(number int) bool {
	for _, r := range reservedASNRanges {
		if number >= r[0] && number <= r[1] {
			return true
		}
	}
	return false
}
