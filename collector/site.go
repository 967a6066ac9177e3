package collector

import (
	"net"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// SiteFromURL returns the registrable domain of rawURL, e.g.
// "https://blog.example.co.uk/post" -> "example.co.uk". Hosts that are IPs or
// have no dot are returned as-is; unparseable URLs yield "".
func SiteFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}

	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}

	return domain
}

// resolveURL resolves href against base. Without a base, href is returned
// unchanged.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
