package validate

import "net/netip"

// ValidIP reports whether the string is an IP address or CIDR prefix.
func ValidIP(s string) bool {
	if _, err := netip.ParseAddr(s); err == nil {
		return true
	}
	_, err := netip.ParsePrefix(s)
	return err == nil
}

// IsPrivateIP reports whether the address is in private address space.
func IsPrivateIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.IsPrivate()
}

// IsPublicIP reports whether the address is globally routable: not private,
// loopback, link-local, multicast or unspecified.
func IsPublicIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return !(addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsMulticast() || addr.IsUnspecified())
}
