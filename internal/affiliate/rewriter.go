// Package affiliate rewrites product links so clicks are attributed to
// the operator's affiliate code. Rewriting is pure string
// transformation; it never follows redirects or validates the target.
package affiliate

import (
	"net/url"

	"ofertasbr/promofeeds/internal/catalog"
)

// blockedParams are affiliate parameter names commonly present on
// source pages. They are stripped before tagging so the rewritten link
// never carries a conflicting attribution.
var blockedParams = []string{"tag", "ref", "affiliate", "afiliado", "partner"}

// Rewrite injects the site's affiliate parameter into link. Sites
// without a configured code get the link back unchanged, as do links
// that fail to parse. Rewriting is idempotent: rewriting an already
// rewritten link yields the same URL.
func Rewrite(link string, site catalog.SiteDefinition) string {
	if site.AffiliateCode == "" {
		return link
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	query := u.Query()
	for _, key := range blockedParams {
		query.Del(key)
	}

	query.Set(site.AffiliateType.ParamKey(site.AffiliateParam), site.AffiliateCode)

	u.RawQuery = query.Encode()
	return u.String()
}
