package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bannerPolicyOnce sync.Once
	bannerPolicy     *bluemonday.Policy
)

// SanitizeBanner strips the banner markup the form builder stores down to a
// safe formatting subset. Banners are authored by form administrators and
// rendered to respondents, so script-capable markup never survives.
func SanitizeBanner(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(bannerSanitizer().Sanitize(trimmed))
}

func bannerSanitizer() *bluemonday.Policy {
	bannerPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"p", "br", "b", "strong", "i", "em", "u", "ul", "ol", "li",
			"h1", "h2", "h3", "h4", "h5", "h6", "span", "img", "a",
		)
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		bannerPolicy = policy
	})
	return bannerPolicy
}
