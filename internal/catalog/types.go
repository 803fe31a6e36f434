package catalog

import "time"

// AffiliateType selects which query parameter carries the affiliate code.
type AffiliateType string

const (
	AffiliateTag     AffiliateType = "tag"
	AffiliateRef     AffiliateType = "ref"
	AffiliateID      AffiliateType = "affiliate"
	AffiliatePartner AffiliateType = "partner"
	AffiliateCustom  AffiliateType = "custom"
)

// ParamKey returns the query key implied by the affiliate type.
// The custom type reads the key name from the site definition, falling
// back to "ref" when the operator did not name one.
func (t AffiliateType) ParamKey(customParam string) string {
	switch t {
	case AffiliateTag:
		return "tag"
	case AffiliateRef:
		return "ref"
	case AffiliateID:
		return "affiliate"
	case AffiliatePartner:
		return "partner"
	case AffiliateCustom:
		if customParam != "" {
			return customParam
		}
		return "ref"
	default:
		return "tag"
	}
}

// SelectorRules holds the prioritized CSS match rules for locating a
// product and its fields within a page. Empty lists fall back to the
// built-in generic rules.
type SelectorRules struct {
	Product []string `json:"product,omitempty"`
	Title   []string `json:"title,omitempty"`
	Link    []string `json:"link,omitempty"`
	Price   []string `json:"price,omitempty"`
	Image   []string `json:"image,omitempty"`
}

// SiteDefinition describes one target page to scrape and how to
// attribute its links. Operator-configured; read-only during a run.
type SiteDefinition struct {
	Name           string        `json:"name"`
	URL            string        `json:"url"`
	AffiliateType  AffiliateType `json:"affiliate_type"`
	AffiliateCode  string        `json:"affiliate_code"`
	AffiliateParam string        `json:"affiliate_param,omitempty"`
	Categories     []string      `json:"categories,omitempty"`
	Selectors      SelectorRules `json:"selectors"`
	Enabled        bool          `json:"enabled"`
}

// RawProduct is one extracted product, before classification.
// Ephemeral; exists only within one pipeline run.
type RawProduct struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Price       string    `json:"price"`
	Image       string    `json:"image,omitempty"`
	Site        string    `json:"site"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// RankedProduct is a RawProduct with its resolved category, score and
// affiliate-rewritten link.
type RankedProduct struct {
	RawProduct
	Category      string `json:"category"`
	Score         int    `json:"score"`
	AffiliateLink string `json:"affiliate_link"`
}
