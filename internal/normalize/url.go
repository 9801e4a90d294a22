package normalize

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ProfileURL canonicalizes a profile URL so that cosmetic variants compare
// equal: scheme forced to https, host lowercased and IDNA-encoded, leading
// every leading "www." dropped, query, fragment and trailing slash removed. Paths on
// linkedin.com are lowercased because profile slugs are case-insensitive.
// Empty input returns "".
func ProfileURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.TrimSpace(raw), "/")
	}

	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	if host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com") {
		path = strings.ToLower(path)
	}

	return "https://" + host + path
}
