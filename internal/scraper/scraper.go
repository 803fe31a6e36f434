package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ofertasbr/promofeeds/helpers"
	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/logger"
	perrors "ofertasbr/promofeeds/pkg/errors"
	"ofertasbr/promofeeds/services/cache"
)

const (
	// maxContainers bounds the work done on pathological pages
	maxContainers = 30

	// maxTitleLength truncates absurdly long product titles
	maxTitleLength = 150

	// PriceUnavailable marks a container whose price text carried no digits
	PriceUnavailable = "Preço indisponível"
)

// Fetcher retrieves the raw page for a URL.
type Fetcher func(url string) (io.Reader, error)

// Scraper turns a site definition into raw products. Fetches are rate
// limited through the cache service: while a site's key is present, no
// further requests go out.
type Scraper struct {
	fetch     Fetcher
	cacheSvc  cache.CacheService
	blockTime time.Duration
	now       func() time.Time
}

// New creates a scraper backed by the default HTTP fetcher.
func New(cacheSvc cache.CacheService) *Scraper {
	return &Scraper{
		fetch:     helpers.FetchWithRandomHeaders,
		cacheSvc:  cacheSvc,
		blockTime: 5 * time.Minute,
		now:       time.Now,
	}
}

// NewWithFetcher creates a scraper with a custom fetch function.
func NewWithFetcher(cacheSvc cache.CacheService, fetch Fetcher) *Scraper {
	s := New(cacheSvc)
	s.fetch = fetch
	return s
}

// Scrape fetches the site's page and extracts its products. Failures
// degrade to an empty result with an error describing the cause; the
// caller isolates them per site.
func (s *Scraper) Scrape(site catalog.SiteDefinition) ([]catalog.RawProduct, error) {
	body, err := s.fetchWithRateLimit(site)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, perrors.NewParsing(site.Name, "failed to parse page", err)
	}

	return s.Extract(site, doc), nil
}

// fetchWithRateLimit fetches the site's page unless it is currently blocked.
func (s *Scraper) fetchWithRateLimit(site catalog.SiteDefinition) (io.Reader, error) {
	cacheKey := "site:" + site.Name

	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(cacheKey); err == nil {
			return nil, perrors.NewRateLimit(site.Name, s.blockTime)
		}
	}

	body, err := s.fetch(site.URL)
	if err != nil {
		if s.cacheSvc != nil && strings.Contains(err.Error(), "rate limited") {
			s.cacheSvc.Set(cacheKey, []byte(fmt.Sprintf("%d", s.blockTime/time.Second)), s.blockTime)
		}
		return nil, perrors.NewNetwork(site.Name, "failed to fetch page", err)
	}

	return body, nil
}

// Extract walks the product containers of a parsed page and collects
// raw products. A container without both a resolvable title and link
// is silently dropped; that is the expected page/template mismatch of
// scraping, not an error.
func (s *Scraper) Extract(site catalog.SiteDefinition, doc *goquery.Document) []catalog.RawProduct {
	sels := resolveSelectors(site)

	containers := sels.product.ResolveAll(doc)
	if containers == nil {
		logger.ForSite(site.Name).Debug().Msg("No product containers matched")
		return nil
	}

	extractedAt := s.now()

	var products []catalog.RawProduct
	containers.EachWithBreak(func(i int, c *goquery.Selection) bool {
		if i >= maxContainers {
			return false
		}

		title := extractTitle(sels.title, c)
		link := extractLink(sels.link, c, site.URL)
		if title == "" || link == "" {
			return true
		}

		products = append(products, catalog.RawProduct{
			Title:       title,
			Link:        link,
			Price:       extractPrice(sels.price, c),
			Image:       extractImage(sels.image, c),
			Site:        site.Name,
			ExtractedAt: extractedAt,
		})
		return true
	})

	return products
}

func extractTitle(sel Selector, c *goquery.Selection) string {
	found := sel.Resolve(c)
	if found == nil {
		return ""
	}

	title := strings.TrimSpace(found.Text())
	if title == "" {
		if attr, exists := found.Attr("title"); exists {
			title = strings.TrimSpace(attr)
		}
	}

	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title
}

func extractLink(sel Selector, c *goquery.Selection, baseURL string) string {
	found := sel.Resolve(c)
	if found == nil {
		return ""
	}

	href, exists := found.Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return ""
	}

	return resolveURL(baseURL, strings.TrimSpace(href))
}

func extractPrice(sel Selector, c *goquery.Selection) string {
	found := sel.Resolve(c)
	if found == nil {
		return PriceUnavailable
	}

	price := strings.TrimSpace(found.Text())
	if !strings.ContainsAny(price, "0123456789") {
		return PriceUnavailable
	}
	return price
}

func extractImage(sel Selector, c *goquery.Selection) string {
	found := sel.Resolve(c)
	if found == nil {
		return ""
	}

	if src, exists := found.Attr("src"); exists && src != "" {
		return src
	}
	if src, exists := found.Attr("data-src"); exists && src != "" {
		return src
	}
	return ""
}

// resolveURL resolves href against the page URL, returning href
// unchanged when either side fails to parse.
func resolveURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
