package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ofertasbr/promofeeds/pkg/errors"
)

// TelegramChannel is the fallback delivery channel. Recipients are
// chat ids; the bot token comes from the distribution settings.
type TelegramChannel struct {
	baseURL string
	token   func() string
	client  *http.Client
}

// NewTelegramChannel builds the channel. token is read on every send.
func NewTelegramChannel(token func() string) *TelegramChannel {
	return &TelegramChannel{
		baseURL: "https://api.telegram.org",
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

func (c *TelegramChannel) Send(ctx context.Context, recipient, message string) error {
	token := c.token()
	if token == "" {
		return errors.NewConfiguration("telegram bot token is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, token)
	form := url.Values{
		"chat_id": {recipient},
		"text":    {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.NewDelivery(recipient, "failed to build telegram request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewDelivery(recipient, "telegram request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewDelivery(recipient, fmt.Sprintf("telegram returned status %d", resp.StatusCode), nil)
	}
	return nil
}
