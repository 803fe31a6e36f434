package catalog

// PresetSites returns ready-made definitions for well known stores.
// They ship disabled and without affiliate codes; the operator enables
// the ones they have a code for during setup. Selector overrides are
// only provided where the generic rules are known to miss.
func PresetSites() []SiteDefinition {
	return []SiteDefinition{
		{
			Name:          "amazon",
			URL:           "https://www.amazon.com.br/gp/goldbox",
			AffiliateType: AffiliateTag,
			Categories:    []string{"Electronics", "Books", "Home"},
			Selectors: SelectorRules{
				Product: []string{`[data-component-type="s-search-result"]`, ".deal-tile", ".a-carousel-card", ".s-result-item"},
				Title:   []string{"h2 a span", ".a-text-normal", ".deal-title"},
				Link:    []string{"h2 a", "a.a-link-normal", "a.deal-link"},
				Price:   []string{".a-price-whole", ".a-price", ".deal-price-text"},
				Image:   []string{".s-image", ".deal-image"},
			},
		},
		{
			Name:          "mercadolivre",
			URL:           "https://www.mercadolivre.com.br/ofertas",
			AffiliateType: AffiliateRef,
			Categories:    []string{"Electronics", "Home"},
		},
		{
			Name:          "magazineluiza",
			URL:           "https://www.magazineluiza.com.br/",
			AffiliateType: AffiliatePartner,
			Categories:    []string{"Electronics", "Appliances"},
		},
		{
			Name:          "kabum",
			URL:           "https://www.kabum.com.br/",
			AffiliateType: AffiliateRef,
			Categories:    []string{"Electronics", "Smartphones"},
		},
		{
			Name:          "netshoes",
			URL:           "https://www.netshoes.com.br/",
			AffiliateType: AffiliateRef,
			Categories:    []string{"Sports", "Clothing"},
		},
	}
}
