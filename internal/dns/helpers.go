package dns

import (
	"strings"
)

// SplitHostname splits an FQDN into subdomain and domain parts.
// e.g. "app.example.com" → ("app", "example.com")
// e.g. "sub.app.example.com" → ("sub", "app.example.com")
func SplitHostname(fqdn string) (hostname, domain string) {
	fqdn = strings.TrimSuffix(fqdn, ".")
	parts := strings.SplitN(fqdn, ".", 2)
	if len(parts) < 2 {
		return fqdn, ""
	}
	return parts[0], parts[1]
}

// ParentDomain drops the leftmost label of name.
// e.g. "svc.example.com" → "example.com"
func ParentDomain(name string) string {
	_, domain := SplitHostname(name)
	return domain
}

// Canonical lower-cases name and strips the trailing root dot so names from
// different APIs compare equal.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
}
