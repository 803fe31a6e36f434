package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ofertasbr/promofeeds/pkg/errors"
)

// DefaultWhatsAppEndpoint is the Cloud API message endpoint. The phone
// number id is appended by the caller when building the channel.
const DefaultWhatsAppEndpoint = "https://graph.facebook.com/v19.0/me/messages"

// WhatsAppChannel is the primary delivery channel. It posts text
// messages to a Cloud API shaped endpoint.
type WhatsAppChannel struct {
	endpoint string
	apiKey   func() string
	client   *http.Client
}

// NewWhatsAppChannel builds the channel. apiKey is read on every send
// so operator updates take effect without a restart.
func NewWhatsAppChannel(endpoint string, apiKey func() string) *WhatsAppChannel {
	if endpoint == "" {
		endpoint = DefaultWhatsAppEndpoint
	}
	return &WhatsAppChannel{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *WhatsAppChannel) Name() string {
	return "whatsapp"
}

func (c *WhatsAppChannel) Send(ctx context.Context, recipient, message string) error {
	key := c.apiKey()
	if key == "" {
		return errors.NewConfiguration("whatsapp api key is not configured", nil)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                recipient,
		"type":              "text",
		"text":              map[string]string{"body": message},
	})
	if err != nil {
		return errors.NewDelivery(recipient, "failed to encode whatsapp payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NewDelivery(recipient, "failed to build whatsapp request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewDelivery(recipient, "whatsapp request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewDelivery(recipient,
			fmt.Sprintf("whatsapp returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body)), nil)
	}
	return nil
}
