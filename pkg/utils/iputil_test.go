package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAnonymizeIP tests the address anonymization rules.
func TestAnonymizeIP(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4", "203.0.113.42", "203.0.113.0"},
		{"ipv4 already zero", "10.0.0.0", "10.0.0.0"},
		{"ipv6", "2001:db8:85a3:0:0:8a2e:370:7334", "2001:db8:85a3:0:0:8a2e:370:0"},
		{"ipv6 shorthand", "::1", "::0"},
		{"empty", "", ""},
		{"not an address", "localhost", "localhost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, AnonymizeIP(tc.input))
		})
	}
}
