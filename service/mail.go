package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"enviroagent/platform"
)

var logger = platform.Logger

// Envelope is one outbound email as handed to a Sender.
type Envelope struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers an Envelope and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, e *Envelope) (string, error)
}

// SendResult reports the outcome of one send.
type SendResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failed(err error) SendResult {
	return SendResult{Success: false, Error: err.Error()}
}

type MailSettings struct {
	From          string
	SupportEmail  string
	TestMode      bool
	TestRecipient string
	BaseURL       string
	ResetValidFor time.Duration
}

// Mailer builds and sends the transactional emails.
type Mailer struct {
	sender    Sender
	settings  MailSettings
	templates *mailTemplates
}

func NewMailer(sender Sender, settings MailSettings) *Mailer {
	if settings.ResetValidFor == 0 {
		settings.ResetValidFor = resetTokenTTL
	}
	return &Mailer{sender: sender, settings: settings, templates: newMailTemplates()}
}

// route applies test mode: the recipient becomes the verified test address and
// the subject names the real one.
func (m *Mailer) route(recipient, subject string) (string, string) {
	if !m.settings.TestMode {
		return recipient, subject
	}
	return m.settings.TestRecipient, fmt.Sprintf("[TEST] %s (Original: %s)", subject, recipient)
}

func (m *Mailer) deliver(ctx context.Context, kind, to, subject, html, text string) SendResult {
	id, err := m.sender.Send(ctx, &Envelope{
		From:    m.settings.From,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		logger.Warnf("[mail] %s email to %s failed, %s", kind, to, err)
		return failed(err)
	}
	logger.Infof("[mail] %s email sent to %s, id %s", kind, to, id)
	return SendResult{Success: true, ID: id}
}

func (m *Mailer) dashboardURL() string {
	return m.settings.BaseURL + "/dashboard"
}

func (m *Mailer) SendWelcome(ctx context.Context, email, name string) SendResult {
	page := newPage("Welcome to "+appName, appName, "The Agent That Shapes Your World for Success",
		"You received this email because you signed up for "+appName+".")
	page.Name = name
	page.DashboardURL = m.dashboardURL()

	html, text, err := m.templates.render(m.templates.welcome, page)
	if err != nil {
		return failed(err)
	}
	to, subject := m.route(email, "Welcome to "+appName+"!")
	return m.deliver(ctx, "welcome", to, subject, html, text)
}

// SendContact notifies the support address; it is never redirected in test mode.
func (m *Mailer) SendContact(ctx context.Context, name, email, subject, message string) SendResult {
	page := newPage("New Contact Form Submission", "New Contact Form Submission", "",
		"This email was sent from the "+appName+" contact form.")
	page.Name = name
	page.Email = email
	page.Subject = subject
	page.Date = time.Now().Format(time.RFC1123)
	body, err := m.templates.markdownBody(message)
	if err != nil {
		return failed(err)
	}
	page.Body = body

	html, text, err := m.templates.render(m.templates.contact, page)
	if err != nil {
		return failed(err)
	}
	title := "New Contact Form Submission: " + subject
	if m.settings.TestMode {
		title = fmt.Sprintf("[TEST] %s (From: %s)", title, email)
	}
	return m.deliver(ctx, "contact", m.settings.SupportEmail, title, html, text)
}

func (m *Mailer) SendNewsletter(ctx context.Context, email string) SendResult {
	page := newPage("Newsletter Subscription Confirmed", "Newsletter Confirmed!", "You're now part of our AI community",
		"You received this email because you subscribed to our newsletter.")
	page.DashboardURL = m.dashboardURL()

	html, text, err := m.templates.render(m.templates.newsletter, page)
	if err != nil {
		return failed(err)
	}
	to, subject := m.route(email, "Welcome to our Newsletter!")
	return m.deliver(ctx, "newsletter", to, subject, html, text)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string) SendResult {
	page := newPage("Password Reset Request", "Password Reset", "Secure your "+appName+" account",
		"This is an automated security email from "+appName+".")
	page.Accent = "linear-gradient(135deg, #ef4444 0%, #dc2626 100%)"
	page.ResetURL = m.settings.BaseURL + "/auth/reset-password?token=" + url.QueryEscape(token)
	page.ValidFor = formatValidFor(m.settings.ResetValidFor)

	html, text, err := m.templates.render(m.templates.reset, page)
	if err != nil {
		return failed(err)
	}
	to, subject := m.route(email, "Reset Your Password - "+appName)
	return m.deliver(ctx, "password reset", to, subject, html, text)
}

func formatValidFor(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int64(d/time.Hour), "hour")
	}
	return plural(int64(d.Round(time.Minute)/time.Minute), "minute")
}
