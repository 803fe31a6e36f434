// Package ranking assigns categories and deterministic scores to raw
// products, applies the operator's filters and merges the survivors
// into one ranked list per run.
package ranking

import (
	"sort"
	"strings"

	"ofertasbr/promofeeds/internal/catalog"
)

// DefaultCategory is used when neither the keyword table nor the site
// declares a category.
const DefaultCategory = "General"

// keywordCategory maps one title keyword to its category. Table order
// is significant: the first matching keyword wins.
type keywordCategory struct {
	keyword  string
	category string
}

var categoryKeywords = []keywordCategory{
	{"smartphone", "Smartphones"},
	{"iphone", "Smartphones"},
	{"celular", "Smartphones"},
	{"headphone", "Electronics"},
	{"fone", "Electronics"},
	{"notebook", "Electronics"},
	{"laptop", "Electronics"},
	{"monitor", "Electronics"},
	{"tv", "Electronics"},
	{"console", "Electronics"},
	{"camera", "Electronics"},
	{"shirt", "Clothing"},
	{"camiseta", "Clothing"},
	{"dress", "Clothing"},
	{"vestido", "Clothing"},
	{"sneaker", "Clothing"},
	{"tenis", "Clothing"},
	{"shoe", "Clothing"},
	{"sofa", "Home"},
	{"mesa", "Home"},
	{"cama", "Home"},
	{"geladeira", "Appliances"},
	{"fogao", "Appliances"},
	{"microwave", "Appliances"},
	{"book", "Books"},
	{"livro", "Books"},
	{"perfume", "Beauty"},
	{"creme", "Beauty"},
	{"bola", "Sports"},
	{"bike", "Sports"},
	{"racket", "Sports"},
}

// promoKeywords each contribute the promo bonus at most once,
// regardless of how many times they occur in the title.
var promoKeywords = []string{
	"sale", "discount", "clearance", "deal",
	"promoção", "oferta", "desconto", "liquidação",
	"black friday", "cyber monday",
}

var popularCategories = map[string]bool{
	"Electronics": true,
	"Clothing":    true,
	"Smartphones": true,
}

const (
	promoBonus     = 10
	cheapBonus     = 5 // price below cheapThreshold
	midBonus       = 3 // price below midThreshold
	popularBonus   = 2
	cheapThreshold = 100.0
	midThreshold   = 500.0
)

// Filters holds the operator-configured drop criteria. Filtering
// happens after scoring, so scores stay deterministic on retained
// items.
type Filters struct {
	MinPrice   float64
	MaxPrice   float64
	Categories []string
}

// Classify resolves the category and score for one raw product and
// applies the filters. The second return value is false when the
// product is dropped.
func Classify(p catalog.RawProduct, site catalog.SiteDefinition, f Filters) (catalog.RankedProduct, bool) {
	category := detectCategory(p.Title, site.Categories)
	price, priceOK := ParsePrice(p.Price)

	ranked := catalog.RankedProduct{
		RawProduct: p,
		Category:   category,
		Score:      score(p.Title, price, priceOK, category),
	}

	// Price bounds only apply when the price actually parsed; an
	// unparsable price is not a reason to drop by itself.
	if priceOK {
		if price < f.MinPrice {
			return ranked, false
		}
		if f.MaxPrice > 0 && price > f.MaxPrice {
			return ranked, false
		}
	}

	if len(f.Categories) > 0 && !containsFold(f.Categories, category) {
		return ranked, false
	}

	return ranked, true
}

// detectCategory resolves a category from the title keywords, then the
// site's declared categories, then the default.
func detectCategory(title string, siteCategories []string) string {
	lower := strings.ToLower(title)
	for _, kc := range categoryKeywords {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}
	if len(siteCategories) > 0 {
		return siteCategories[0]
	}
	return DefaultCategory
}

// score is purely additive and deterministic given (title, price, category).
func score(title string, price float64, priceOK bool, category string) int {
	total := 0

	lower := strings.ToLower(title)
	for _, keyword := range promoKeywords {
		if strings.Contains(lower, keyword) {
			total += promoBonus
		}
	}

	if priceOK {
		if price < cheapThreshold {
			total += cheapBonus
		} else if price < midThreshold {
			total += midBonus
		}
	}

	if popularCategories[category] {
		total += popularBonus
	}

	return total
}

// Rank sorts products by score descending and truncates the merged
// list to max (when max > 0). The sort is stable: equal-score products
// keep the relative order they arrived in.
func Rank(products []catalog.RankedProduct, max int) []catalog.RankedProduct {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Score > products[j].Score
	})
	if max > 0 && len(products) > max {
		products = products[:max]
	}
	return products
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
