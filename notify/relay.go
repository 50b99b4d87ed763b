package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

const (
	RelayMailto  = "mailto"
	RelayEmailJS = "emailjs"
	RelaySlack   = "slack"

	defaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
	relayTimeout           = 30 * time.Second
)

// Relay is the external send primitive. Send is called at most once per alert.
type Relay interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// MailtoRelay sends nothing. The caller hands the mailto link to the user's mail client.
type MailtoRelay struct{}

func (MailtoRelay) Name() string                        { return RelayMailto }
func (MailtoRelay) Send(context.Context, Message) error { return nil }

// EmailJSRelay posts a templated message to the EmailJS REST API. The template
// receives to_email, subject and message.
type EmailJSRelay struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Client     *http.Client
}

func (EmailJSRelay) Name() string { return RelayEmailJS }

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (r EmailJSRelay) Send(ctx context.Context, m Message) error {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:   r.ServiceID,
		TemplateID:  r.TemplateID,
		UserID:      r.PublicKey,
		AccessToken: r.PrivateKey,
		TemplateParams: map[string]string{
			"to_email": m.To,
			"subject":  m.Subject,
			"message":  m.Body,
		},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = defaultEmailJSEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: relayTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// SlackRelay posts the alert to an operations channel through an incoming webhook.
type SlackRelay struct {
	WebhookURL string
	Channel    string
}

func (SlackRelay) Name() string { return RelaySlack }

func (r SlackRelay) Send(ctx context.Context, m Message) error {
	header := slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(m.Subject, 150), false, false))
	routed := slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType,
		fmt.Sprintf("*%s District* → %s", m.District, m.To), false, false))
	detail := slack.NewSectionBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(m.Body, 3000), false, false), nil, nil)

	msg := &slack.WebhookMessage{
		Channel: r.Channel,
		Text:    m.Subject,
		Blocks:  &slack.Blocks{BlockSet: []slack.Block{header, routed, detail}},
	}
	if err := slack.PostWebhookContext(ctx, r.WebhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RelayConfig selects and configures a relay.
type RelayConfig struct {
	Kind              string
	EmailJSEndpoint   string
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string
	SlackWebhookURL   string
	SlackChannel      string
}

func NewRelay(cfg RelayConfig) (Relay, error) {
	switch cfg.Kind {
	case "", RelayMailto:
		return MailtoRelay{}, nil
	case RelayEmailJS:
		if cfg.EmailJSServiceID == "" || cfg.EmailJSTemplateID == "" || cfg.EmailJSPublicKey == "" {
			return nil, fmt.Errorf("emailjs relay needs service id, template id and public key")
		}
		return EmailJSRelay{
			Endpoint:   cfg.EmailJSEndpoint,
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
			Client:     &http.Client{Timeout: relayTimeout},
		}, nil
	case RelaySlack:
		if cfg.SlackWebhookURL == "" {
			return nil, fmt.Errorf("slack relay needs a webhook url")
		}
		return SlackRelay{WebhookURL: cfg.SlackWebhookURL, Channel: cfg.SlackChannel}, nil
	}
	return nil, fmt.Errorf("unknown notification relay %q", cfg.Kind)
}
