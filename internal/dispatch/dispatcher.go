package dispatch

import (
	"context"
	"time"

	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/internal/state"
	"ofertasbr/promofeeds/logger"
	perrors "ofertasbr/promofeeds/pkg/errors"
)

// Outcome summarizes a dispatch round.
type Outcome string

const (
	OutcomeDisabled       Outcome = "disabled"
	OutcomeNoRecipients   Outcome = "no_recipients"
	OutcomeQuotaExhausted Outcome = "quota_exhausted"
	OutcomeCompleted      Outcome = "completed"
)

// Report is what a dispatch round produced.
type Report struct {
	Outcome  Outcome `json:"outcome"`
	Selected int     `json:"selected"`
	Sent     int     `json:"sent"`
	Fallback int     `json:"fallback"`
	Failed   int     `json:"failed"`
}

// Dispatcher fans ranked products out to the configured recipients.
// Quota accounting lives in state; the dispatcher re-checks it before
// every single delivery so the daily limit is never exceeded, however
// many recipients are configured.
type Dispatcher struct {
	state    *state.State
	primary  Channel
	fallback Channel
	delay    time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// New builds a dispatcher. fallback may be nil.
func New(st *state.State, primary, fallback Channel) *Dispatcher {
	return &Dispatcher{
		state:    st,
		primary:  primary,
		fallback: fallback,
		delay:    2 * time.Second,
		now:      time.Now,
		log:      logger.ForComponent("dispatcher"),
	}
}

// Dispatch sends the top products to every recipient, newest quota
// first. products must already be ranked; the quota decides how many
// of them are selected.
func (d *Dispatcher) Dispatch(ctx context.Context, products []catalog.RankedProduct) Report {
	cfg := d.state.Config().Distribution

	if !cfg.Enabled {
		return Report{Outcome: OutcomeDisabled}
	}
	if len(cfg.Recipients) == 0 {
		d.log.Warn().Msg("Distribution enabled but no recipients configured")
		return Report{Outcome: OutcomeNoRecipients}
	}

	if err := d.checkQuota(); perrors.IsQuota(err) {
		d.log.Info().Err(err).Msg("Daily quota exhausted, skipping dispatch")
		return Report{Outcome: OutcomeQuotaExhausted}
	}

	quota := d.state.QuotaRemaining()
	batch := cfg.ProductsPerInterval
	if batch > quota {
		batch = quota
	}
	if batch > len(products) {
		batch = len(products)
	}
	selected := products[:batch]

	report := Report{Outcome: OutcomeCompleted, Selected: len(selected)}
	for _, recipient := range cfg.Recipients {
		for _, product := range selected {
			// Each delivery consumes quota on its own, so the check has
			// to happen here and not once per batch.
			if err := d.checkQuota(); perrors.IsQuota(err) {
				d.log.Info().Err(err).Msg("Daily quota reached mid-dispatch, stopping")
				return report
			}

			message := RenderMessage(cfg.MessageTemplate, product)
			switch d.deliver(ctx, cfg, recipient, message) {
			case Delivered:
				d.state.RecordSent(d.now())
				report.Sent++
			case DeliveredFallback:
				d.state.RecordSent(d.now())
				report.Sent++
				report.Fallback++
			case DeliveryFailed:
				d.state.RecordFailed()
				report.Failed++
			}

			if d.delay > 0 {
				select {
				case <-ctx.Done():
					return report
				case <-time.After(d.delay):
				}
			}
		}
	}
	return report
}

// checkQuota returns a typed quota marker when today's limit is spent,
// nil while deliveries are still allowed.
func (d *Dispatcher) checkQuota() error {
	if d.state.QuotaRemaining() > 0 {
		return nil
	}
	stats := d.state.Stats()
	return perrors.NewQuota(stats.Distribution.SentToday, d.state.Config().Distribution.DailyLimit)
}

// deliver tries the primary channel, then the fallback when it is
// enabled and configured. A failure on one product never aborts the
// rest of the round.
func (d *Dispatcher) deliver(ctx context.Context, cfg state.DistributionSettings, recipient, message string) DeliveryResult {
	err := d.primary.Send(ctx, recipient, message)
	if err == nil {
		return Delivered
	}
	d.log.Warn().Err(err).
		Str("channel", d.primary.Name()).
		Str("recipient", recipient).
		Msg("Primary delivery failed")

	if !cfg.UseFallback || d.fallback == nil {
		return DeliveryFailed
	}

	if err := d.fallback.Send(ctx, recipient, message); err != nil {
		d.log.Error().Err(err).
			Str("channel", d.fallback.Name()).
			Str("recipient", recipient).
			Msg("Fallback delivery failed")
		return DeliveryFailed
	}
	return DeliveredFallback
}
