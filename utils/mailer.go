package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

var (
	// ErrMailTransportNotConfigured means neither a Resend API key nor an
	// SMTP host was provided.
	ErrMailTransportNotConfigured = errors.New("mail transport not configured: set RESEND_API_KEY or SMTP_HOST")

	ErrNoRecipient = errors.New("email must have at least one recipient")
	ErrNoSubject   = errors.New("email must have a subject")
)

// OutgoingEmail is a fully rendered message ready for a MailTransport.
type OutgoingEmail struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

func (e *OutgoingEmail) Validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipient
	}
	if e.Subject == "" {
		return ErrNoSubject
	}
	return nil
}

// MailTransport delivers one email. Implementations do not retry.
type MailTransport interface {
	Send(ctx context.Context, email *OutgoingEmail) error
}

// MailTransportConfig selects and configures a transport. Resend wins when
// both are set.
type MailTransportConfig struct {
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// NewMailTransport builds the configured transport or returns
// ErrMailTransportNotConfigured.
func NewMailTransport(cfg MailTransportConfig) (MailTransport, error) {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResendTransport(cfg.ResendAPIKey), nil
	case cfg.SMTPHost != "":
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword), nil
	}
	return nil, ErrMailTransportNotConfigured
}

// FormatSender renders the From header as "Name <email>".
func FormatSender(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// ResendTransport sends through the Resend HTTP API.
type ResendTransport struct {
	client *resend.Client
}

func NewResendTransport(apiKey string) *ResendTransport {
	return &ResendTransport{client: resend.NewClient(apiKey)}
}

func (t *ResendTransport) Send(ctx context.Context, email *OutgoingEmail) error {
	if err := email.Validate(); err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
	}

	if _, err := t.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

// SMTPTransport sends through an SMTP relay, one connection per message.
type SMTPTransport struct {
	dialer *gomail.Dialer
}

func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	return &SMTPTransport{dialer: gomail.NewDialer(host, port, username, password)}
}

func (t *SMTPTransport) Send(ctx context.Context, email *OutgoingEmail) error {
	if err := email.Validate(); err != nil {
		return err
	}
	// gomail has no context support; at least do not dial for a cancelled run.
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", email.From)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTML)

	if err := t.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: failed to send email: %w", err)
	}
	return nil
}
