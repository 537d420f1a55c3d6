package senders

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/signalhub-dev/signalhub/internal/models"
	"github.com/signalhub-dev/signalhub/internal/types"
	"gorm.io/datatypes"
)

// EmailSender delivers events via Resend using the channel's stored API key
// and from/to addresses.
type EmailSender struct{}

func NewEmailSender() *EmailSender {
	return &EmailSender{}
}

func (s *EmailSender) Kind() string {
	return models.ChannelKindEmail
}

func (s *EmailSender) Send(ctx context.Context, config datatypes.JSON, event models.Event) error {
	var cfg types.EmailConfig

	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("invalid email channel config: %w", err)
	}

	client := resend.NewClient(cfg.ApiKey)

	params := &resend.SendEmailRequest{
		From:    cfg.FromEmail,
		To:      []string{cfg.ToEmail},
		Subject: EmailSubject(event),
		Html:    EmailBody(event),
	}

	if _, err := client.Emails.SendWithContext(ctx, params); err != nil {
		return err
	}

	return nil
}

func EmailSubject(event models.Event) string {
	return fmt.Sprintf("[%s] %s", event.Category, event.Title)
}

func EmailBody(event models.Event) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family:sans-serif;max-width:600px">`)
	b.WriteString(fmt.Sprintf(`<h2 style="margin:0 0 8px">%s</h2>`, html.EscapeString(event.Title)))
	b.WriteString(fmt.Sprintf(
		`<p style="color:#71717a;margin:0 0 4px;font-size:13px">%s &middot; %s</p>`,
		html.EscapeString(event.Category),
		event.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
	))

	if event.Description != "" {
		b.WriteString(fmt.Sprintf(`<p style="margin:16px 0">%s</p>`, html.EscapeString(event.Description)))
	}

	if metadata := prettyMetadata(event.Metadata); metadata != "" {
		b.WriteString(fmt.Sprintf(
			`<pre style="background:#f4f4f5;padding:12px;border-radius:6px;font-size:13px;overflow-x:auto">%s</pre>`,
			html.EscapeString(metadata),
		))
	}

	b.WriteString(`</div>`)

	return b.String()
}

// prettyMetadata renders the event's metadata payload as indented JSON,
// or "" when the payload is empty or unreadable.
func prettyMetadata(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}

	var metadata map[string]interface{}

	if err := json.Unmarshal(raw, &metadata); err != nil || len(metadata) == 0 {
		return ""
	}

	pretty, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return ""
	}

	return string(pretty)
}
