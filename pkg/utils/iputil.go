package utils

import (
	"strings"
)

// AnonymizeIP zeroes the last IPv4 octet or the last IPv6 group of an
// address before it is persisted. The transformation is one-way; the
// original address is never recoverable from the stored value. Empty input
// stays empty, and values that are not dotted/colon-separated addresses are
// returned unchanged.
func AnonymizeIP(ip string) string {
	if ip == "" {
		return ""
	}

	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		parts[len(parts)-1] = "0"
		return strings.Join(parts, ":")
	}

	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	parts[3] = "0"
	return strings.Join(parts, ".")
}
