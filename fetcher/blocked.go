package fetcher

import "regexp"

// The site can answer 200 OK while serving a login wall or Cloudflare
// challenge, so status codes alone are not trusted. False positives are
// acceptable: an ambiguous page becomes a retryable blocked error.
var blockedMarkers = regexp.MustCompile(`(?i)login|sign\s*in|__cf_chl|cf-browser-verification|captcha`)

// IsBlockedContent reports whether html looks like an auth wall or a
// bot challenge rather than real content.
func IsBlockedContent(html string) bool {
	return blockedMarkers.MatchString(html)
}
