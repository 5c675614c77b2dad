package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
)

const appName = "EnviroAgent"

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f8fafc;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden;">
    <div style="background: {{.Accent}}; padding: 40px 30px; text-align: center;">
      <h1 style="color: #ffffff; margin: 0; font-size: 28px; font-weight: 700;">{{.Heading}}</h1>
      {{if .Tagline}}<p style="color: #e0e7ff; margin: 10px 0 0 0; font-size: 16px;">{{.Tagline}}</p>{{end}}
    </div>
    <div style="padding: 40px 30px; color: #4b5563; font-size: 16px; line-height: 1.6;">
      {{template "content" .}}
    </div>
    <div style="background-color: #f9fafb; padding: 30px; text-align: center; border-top: 1px solid #e5e7eb;">
      <p style="color: #6b7280; font-size: 14px; margin: 0 0 10px 0;">&copy; {{.Year}} {{.App}}. All rights reserved.</p>
      <p style="color: #9ca3af; font-size: 12px; margin: 0;">{{.Footer}}</p>
    </div>
  </div>
</body>
</html>{{end}}`

const welcomeContent = `{{define "content"}}
<h2 style="color: #1f2937;">Welcome, {{.Name}}!</h2>
<p>Thank you for joining {{.App}}! You're now part of the future where AI agents actively shape your environment to help you achieve your goals.</p>
<h3 style="color: #1f2937;">What's Next?</h3>
<ul>
  <li>Access your personalized dashboard</li>
  <li>Set goals and let AI shape your environment</li>
  <li>Experience adaptive environment control</li>
  <li>Track progress with intelligent insights</li>
</ul>
<p style="text-align: center;"><a href="{{.DashboardURL}}">Get Started</a></p>
<p>If you have any questions, feel free to reach out to our support team.</p>
{{end}}`

const contactContent = `{{define "content"}}
<h3 style="color: #1f2937;">Contact Details</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<h3 style="color: #1f2937;">Message</h3>
<div style="border: 1px solid #e5e7eb; padding: 20px; border-radius: 8px;">{{.Body}}</div>
<p style="text-align: center;"><a href="mailto:{{.Email}}">Reply to {{.Name}}</a></p>
{{end}}`

const newsletterContent = `{{define "content"}}
<h2 style="color: #1f2937;">Thank you for subscribing!</h2>
<p>You've successfully subscribed to the {{.App}} newsletter. You'll now receive:</p>
<ul>
  <li>Latest AI agent developments and updates</li>
  <li>Exclusive tips for maximizing your AI interactions</li>
  <li>Early access to new features and capabilities</li>
  <li>Industry insights and real-world use cases</li>
</ul>
<p style="text-align: center;"><a href="{{.DashboardURL}}">Explore Your Dashboard</a></p>
<p>You can unsubscribe at any time from the link in our emails.</p>
{{end}}`

const resetContent = `{{define "content"}}
<h2 style="color: #1f2937;">Reset Your Password</h2>
<p>We received a request to reset the password for your {{.App}} account. Click the link below to create a new password:</p>
<p style="text-align: center;"><a href="{{.ResetURL}}">Reset Password</a></p>
<p><strong>This link will expire in {{.ValidFor}}.</strong></p>
<p>If you didn't request this password reset, please ignore this email. Your password will remain unchanged.</p>
{{end}}`

type mailTemplates struct {
	welcome    *template.Template
	contact    *template.Template
	newsletter *template.Template
	reset      *template.Template
	markdown   goldmark.Markdown
}

func newMailTemplates() *mailTemplates {
	parse := func(name, content string) *template.Template {
		return template.Must(template.Must(template.New(name).Parse(layoutTemplate)).Parse(content))
	}
	return &mailTemplates{
		welcome:    parse("welcome", welcomeContent),
		contact:    parse("contact", contactContent),
		newsletter: parse("newsletter", newsletterContent),
		reset:      parse("reset", resetContent),
		markdown:   goldmark.New(),
	}
}

// mailPage is the data every template sees.
type mailPage struct {
	App     string
	Title   string
	Heading string
	Tagline string
	Accent  template.CSS
	Footer  string
	Year    int

	Name         string
	Email        string
	Subject      string
	Date         string
	Body         template.HTML
	DashboardURL string
	ResetURL     string
	ValidFor     string
}

func newPage(title, heading, tagline, footer string) mailPage {
	return mailPage{
		App:     appName,
		Title:   title,
		Heading: heading,
		Tagline: tagline,
		Accent:  "linear-gradient(135deg, #3b82f6 0%, #8b5cf6 100%)",
		Footer:  footer,
		Year:    time.Now().Year(),
	}
}

// render returns the HTML document and a plain-text alternative derived from it.
func (t *mailTemplates) render(tmpl *template.Template, page mailPage) (string, string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return "", "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	html := buf.String()
	text, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", "", fmt.Errorf("convert %s to text: %w", tmpl.Name(), err)
	}
	return html, text, nil
}

// markdownBody renders user-authored markdown; goldmark drops raw HTML by default.
func (t *mailTemplates) markdownBody(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
