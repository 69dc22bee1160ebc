// Package sendgrid wraps the SendGrid mail API for newsletter and alert
// delivery. Outside production the send is skipped and logged so development
// runs never email real users.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	From    string
	Subject string
	HTML    string
}

// Sender delivers email messages. Satisfied by Client and by test fakes.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client is a SendGrid-backed Sender.
type Client struct {
	sg         *sg.Client
	production bool
	log        zerolog.Logger
}

// NewClient creates a new email client. When production is false, Send
// becomes a logged no-op.
func NewClient(apiKey string, production bool, log zerolog.Logger) *Client {
	return &Client{
		sg:         sg.NewSendClient(apiKey),
		production: production,
		log:        log.With().Str("client", "sendgrid").Logger(),
	}
}

// Send delivers one email. Non-2xx SendGrid responses surface as errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.production {
		c.log.Info().
			Str("to", msg.To).
			Str("subject", msg.Subject).
			Msg("Skipping email send outside production")
		return nil
	}

	from := mail.NewEmail("", msg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	resp, err := c.sg.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}

	c.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}
