// Package dispatch delivers top-ranked products to the configured
// recipients under the daily quota, through a primary channel with an
// optional fallback.
package dispatch

import (
	"context"
	"strings"

	"ofertasbr/promofeeds/internal/catalog"
)

// Channel is one outbound messaging transport.
type Channel interface {
	// Name identifies the channel in logs and reports
	Name() string

	// Send delivers one message to one recipient
	Send(ctx context.Context, recipient, message string) error
}

// DeliveryResult describes how a single delivery ended. Failure is
// data here, not a swallowed error.
type DeliveryResult int

const (
	// DeliveryFailed means both channels failed (or the only channel did)
	DeliveryFailed DeliveryResult = iota
	// Delivered means the primary channel succeeded
	Delivered
	// DeliveredFallback means the primary failed and the fallback succeeded
	DeliveredFallback
)

// categoryMarkers prefix messages with decorative markers. Order is
// significant: the first matching category wins.
var categoryMarkers = []struct {
	category string
	marker   string
}{
	{"Smartphones", "📱"},
	{"Electronics", "📱💻🎮"},
	{"Clothing", "👕👖👗"},
	{"Home", "🏠🛋️"},
	{"Appliances", "🍳"},
	{"Sports", "⚽🏀🎾"},
	{"Beauty", "💄🧴"},
	{"Books", "📚📖"},
}

// RenderMessage substitutes product fields into the operator's
// template and prefixes the category marker.
func RenderMessage(template string, p catalog.RankedProduct) string {
	message := strings.NewReplacer(
		"{title}", p.Title,
		"{price}", p.Price,
		"{category}", p.Category,
		"{site}", p.Site,
		"{link}", p.AffiliateLink,
	).Replace(template)

	for _, cm := range categoryMarkers {
		if strings.EqualFold(cm.category, p.Category) {
			return cm.marker + " " + message
		}
	}
	return message
}
