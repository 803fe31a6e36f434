// Package feed assembles per-site syndication documents from the
// ranked product list and publishes them as XML files.
package feed

import (
	"fmt"
	"strings"
	"time"

	"ofertasbr/promofeeds/internal/catalog"
)

const (
	// maxEntries bounds each document
	maxEntries = 20

	// entryTitleLength bounds the rendered entry title
	entryTitleLength = 80

	// attentionMarker prefixes every entry title
	attentionMarker = "🔥 "
)

// Entry is one rendered feed item.
type Entry struct {
	Title       string
	Link        string
	Description string
	PubDate     time.Time
	GUID        string
}

// Document is one per-site syndication document, regenerated wholesale
// on each run that produces products for the site.
type Document struct {
	Site        string
	Title       string
	Link        string
	Description string
	Language    string
	Entries     []Entry
}

// Assemble groups the ranked products by originating site and builds
// one document per site. Sites without a configured affiliate code and
// sites with no surviving products produce no document; any previously
// published file stays untouched.
func Assemble(products []catalog.RankedProduct, sites []catalog.SiteDefinition, now time.Time) []Document {
	bySite := make(map[string][]catalog.RankedProduct)
	var order []string
	for _, p := range products {
		if _, seen := bySite[p.Site]; !seen {
			order = append(order, p.Site)
		}
		bySite[p.Site] = append(bySite[p.Site], p)
	}

	siteDefs := make(map[string]catalog.SiteDefinition, len(sites))
	for _, s := range sites {
		siteDefs[s.Name] = s
	}

	var docs []Document
	for _, name := range order {
		site, ok := siteDefs[name]
		if !ok || site.AffiliateCode == "" {
			continue
		}

		siteProducts := bySite[name]
		if len(siteProducts) > maxEntries {
			siteProducts = siteProducts[:maxEntries]
		}

		doc := Document{
			Site:        name,
			Title:       fmt.Sprintf("Promoções %s", name),
			Link:        site.URL,
			Description: fmt.Sprintf("Ofertas coletadas automaticamente do %s", name),
			Language:    "pt-br",
		}
		for _, p := range siteProducts {
			doc.Entries = append(doc.Entries, buildEntry(p, now))
		}
		docs = append(docs, doc)
	}
	return docs
}

func buildEntry(p catalog.RankedProduct, now time.Time) Entry {
	title := p.Title
	if runes := []rune(title); len(runes) > entryTitleLength {
		title = string(runes[:entryTitleLength])
	}

	return Entry{
		Title:       attentionMarker + title,
		Link:        p.AffiliateLink,
		Description: renderDescription(p),
		PubDate:     now,
		// Link plus timestamp keeps identifiers unique across runs that
		// surface the same product.
		GUID: fmt.Sprintf("%s#%d", p.AffiliateLink, now.Unix()),
	}
}

func renderDescription(p catalog.RankedProduct) string {
	var sb strings.Builder
	sb.WriteString(`<div style="font-family: Arial, sans-serif;">`)
	sb.WriteString(fmt.Sprintf("<h3>%s</h3>", p.Title))
	sb.WriteString(fmt.Sprintf("<p><strong>Preço:</strong> %s</p>", p.Price))
	sb.WriteString(fmt.Sprintf("<p><strong>Categoria:</strong> %s</p>", p.Category))
	sb.WriteString(fmt.Sprintf(`<p><a href="%s">Ver Oferta</a></p>`, p.AffiliateLink))
	if p.Image != "" {
		sb.WriteString(fmt.Sprintf(`<img src="%s" width="300" style="max-width:100%%;">`, p.Image))
	}
	sb.WriteString("</div>")
	return sb.String()
}
