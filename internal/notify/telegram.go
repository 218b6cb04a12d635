// Package notify delivers notification messages to Telegram. Delivery is
// best-effort: callers log failures and move on, a failed send never stops
// monitoring.
package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crouswatch/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends messages through the Bot API. Credentials come in per call
// so that a settings change takes effect on the next send.
type Telegram struct {
	client  *http.Client
	apiBase string
}

func NewTelegram(timeout time.Duration) *Telegram {
	return &Telegram{
		client:  &http.Client{Timeout: timeout},
		apiBase: defaultAPIBase,
	}
}

// NewTelegramWithBase points the notifier at a different API base URL.
// Used by tests to target a local fake.
func NewTelegramWithBase(apiBase string, timeout time.Duration) *Telegram {
	return &Telegram{
		client:  &http.Client{Timeout: timeout},
		apiBase: apiBase,
	}
}

// Send posts one HTML-formatted message. Transport failures and non-2xx
// responses surface as *domain.NotifyError.
func (t *Telegram) Send(ctx context.Context, creds domain.Credentials, text string) error {
	endpoint := t.apiBase + "/bot" + creds.BotToken + "/sendMessage"
	form := url.Values{
		"chat_id":    {creds.ChatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &domain.NotifyError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return &domain.NotifyError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.NotifyError{StatusCode: resp.StatusCode}
	}
	return nil
}
