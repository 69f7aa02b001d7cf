// Package mail composes and delivers transactional email.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"jualapa/internal/config"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPSender sends through an authenticated SMTP relay. A gomail.Client
// keeps its connection in unsynchronised fields, so every Send builds its
// own client from the stored options.
type SMTPSender struct {
	host string
	opts []gomail.Option
	from string
}

// NewSMTPSender builds a sender for cfg. Port 465 uses implicit TLS,
// every other port requires STARTTLS.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	return newSMTPSender(cfg.Host, cfg.From, opts...)
}

func newSMTPSender(host, from string, opts ...gomail.Option) (*SMTPSender, error) {
	// Build once so a bad host or option fails at startup.
	if _, err := gomail.NewClient(host, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{host: host, opts: opts, from: from}, nil
}

// Send delivers html to a single recipient over a fresh connection.
func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	msg, err := newMessage(s.from, to, subject, html)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func newMessage(from, to, subject, html string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat("JualApa", from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)
	return msg, nil
}

// LogSender writes emails to the log instead of delivering them. It is used
// when no SMTP credentials are configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the email.
func (s *LogSender) Send(_ context.Context, to, subject, html string) error {
	s.log.Info("email not delivered, smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("bytes", len(html)),
	)
	return nil
}
