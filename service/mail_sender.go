package service

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"enviroagent/platform"

	"github.com/jordan-wright/email"
	"github.com/resend/resend-go/v2"
)

// ResendSender sends through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (s *ResendSender) Send(ctx context.Context, e *Envelope) (string, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPSender{addr: fmt.Sprintf("%s:%d", host, port), auth: auth}
}

func (s *SMTPSender) Send(ctx context.Context, e *Envelope) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg := email.NewEmail()
	msg.From = e.From
	msg.To = e.To
	msg.Subject = e.Subject
	msg.HTML = []byte(e.HTML)
	msg.Text = []byte(e.Text)
	if err := msg.Send(s.addr, s.auth); err != nil {
		return "", fmt.Errorf("smtp %s: %w", s.addr, err)
	}
	// SMTP gives no message id
	return "", nil
}

// NewSender picks the provider named in cfg.Provider.
func NewSender(cfg platform.MailConfig) (Sender, error) {
	switch cfg.Provider {
	case "resend", "":
		if cfg.APIKey == "" {
			logger.Warnf("[mail] RESEND_API_KEY is empty, every send will fail")
		}
		return NewResendSender(cfg.APIKey), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("SMTP_HOST is required for the smtp mail provider")
		}
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}
