package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
)

//go:embed templates/action.html
var templates embed.FS

// Message is a rendered email ready for a Sender.
type Message struct {
	Subject string
	HTML    string
}

type actionData struct {
	Link      string
	Username  string
	Action    string
	ExpiresIn string
}

// Composer renders the transactional emails that carry one-time links.
type Composer struct {
	frontendURL string
	tmpl        *template.Template
}

// NewComposer parses the embedded template. frontendURL must not end with a slash.
func NewComposer(frontendURL string) (*Composer, error) {
	tmpl, err := template.ParseFS(templates, "templates/action.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Composer{frontendURL: frontendURL, tmpl: tmpl}, nil
}

// VerificationLink is the front-end page that confirms an email address.
func (c *Composer) VerificationLink(token string) string {
	return c.frontendURL + "/auth/email-verify?token=" + url.QueryEscape(token)
}

// ResetPasswordLink is the front-end page that sets a new password.
func (c *Composer) ResetPasswordLink(token string) string {
	return c.frontendURL + "/auth/reset-password?token=" + url.QueryEscape(token)
}

// VerificationEmail renders the registration email. The link is valid for 24 hours.
func (c *Composer) VerificationEmail(username, token string) (Message, error) {
	return c.render("Verifikasi Email Registrasi Akun", actionData{
		Link:      c.VerificationLink(token),
		Username:  username,
		Action:    "Registrasi Akun",
		ExpiresIn: "24 jam",
	})
}

// ResetPasswordEmail renders the password reset email. The link is valid for 15 minutes.
func (c *Composer) ResetPasswordEmail(username, token string) (Message, error) {
	return c.render("Reset Password Akun", actionData{
		Link:      c.ResetPasswordLink(token),
		Username:  username,
		Action:    "Reset Password",
		ExpiresIn: "15 menit",
	})
}

func (c *Composer) render(subject string, data actionData) (Message, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %q: %w", subject, err)
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}
