package bot

import (
	"net/url"
	"regexp"
	"strings"
)

var defaultAllowedDomains = []string{
	"t.me",
	"telegram.org",
	"github.com",
	"linkedin.com",
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// hasDisallowedLink reports whether text carries a hyperlink whose host is
// outside the allow-list. Unparseable URLs count as disallowed.
func hasDisallowedLink(text string, allowed []string) bool {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		parsed, err := url.Parse(strings.TrimRight(raw, ".,)!?"))
		if err != nil || parsed.Hostname() == "" {
			return true
		}
		if !hostAllowed(parsed.Hostname(), allowed) {
			return true
		}
	}
	return false
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, domain := range allowed {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
