package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"ofertasbr/promofeeds/internal/catalog"
)

// Selector is an ordered list of CSS match rules. Rules are applied in
// order and the first one yielding at least one match wins. A site
// override and the built-in generic rules are two instances of the
// same capability.
type Selector struct {
	rules []string
}

// NewSelector builds a selector from site rules, falling back to the
// generic rules when the site supplies none.
func NewSelector(siteRules, genericRules []string) Selector {
	if len(siteRules) > 0 {
		return Selector{rules: siteRules}
	}
	return Selector{rules: genericRules}
}

// Resolve returns the first non-empty match within the fragment, or
// nil when no rule matches.
func (s Selector) Resolve(sel *goquery.Selection) *goquery.Selection {
	for _, rule := range s.rules {
		if found := sel.Find(rule); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// ResolveAll returns every match of the first rule that yields at
// least one, preserving document order.
func (s Selector) ResolveAll(doc *goquery.Document) *goquery.Selection {
	for _, rule := range s.rules {
		if found := doc.Find(rule); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// Generic fallback rules, applied when a site definition leaves a
// field's rule list empty. Order is significant.
var (
	genericProductRules = []string{
		".product", ".item", ".card", "[data-product]",
		".prateleira", ".vitrine", ".listagem-item",
		"article", ".produto", ".product-item",
	}
	genericTitleRules = []string{
		"h2", "h3", "h4", ".product-name", ".productTitle",
		".title", ".nome-produto", "[data-name]",
	}
	genericLinkRules = []string{
		"a", ".product-link", ".link-produto",
	}
	genericPriceRules = []string{
		".price", ".product-price", ".valor", ".current-price",
		".preco", "[data-price]",
	}
	genericImageRules = []string{
		"img", ".product-image", ".imagem-produto",
	}
)

// siteSelectors bundles the resolved selectors for one site.
type siteSelectors struct {
	product Selector
	title   Selector
	link    Selector
	price   Selector
	image   Selector
}

// resolveSelectors picks site-specific rules where present and generic
// rules everywhere else.
func resolveSelectors(site catalog.SiteDefinition) siteSelectors {
	return siteSelectors{
		product: NewSelector(site.Selectors.Product, genericProductRules),
		title:   NewSelector(site.Selectors.Title, genericTitleRules),
		link:    NewSelector(site.Selectors.Link, genericLinkRules),
		price:   NewSelector(site.Selectors.Price, genericPriceRules),
		image:   NewSelector(site.Selectors.Image, genericImageRules),
	}
}
