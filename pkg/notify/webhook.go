package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultWebhookTimeout = 10 * time.Second

// Webhook posts a JSON document with the rendered text and the raw event
// to a URL.
type Webhook struct {
	url    string
	tpl    *template.Template
	client *http.Client
}

type webhookPayload struct {
	Text  string `json:"text"`
	Event Event  `json:"event"`
}

func NewWebhook(url, tpl string, timeout time.Duration) (*Webhook, error) {
	t, err := parseTemplate(url, tpl)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook template: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	return &Webhook{
		url:    url,
		tpl:    t,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	text, err := render(w.tpl, ev)
	if err != nil {
		return fmt.Errorf("could not render webhook text: %w", err)
	}

	body, err := json.Marshal(webhookPayload{Text: text, Event: ev})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("webhook %s returned status %d", w.url, res.StatusCode)
	}

	log.WithFields(log.Fields{"kind": "notify", "name": "webhook", "check": ev.Check, "url": w.url}).Debug("event delivered")
	return nil
}
