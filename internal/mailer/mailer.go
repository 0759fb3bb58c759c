package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/wneessen/go-mail"

	"sellit/internal/config"
)

const verificationSubject = "Verify your SellIt email"

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("mailer not configured: SMTP_USER and SMTP_PASS are required")

// Sender delivers transactional email.
type Sender interface {
	SendVerification(ctx context.Context, to, token string) error
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg            config.SMTPConfig
	frontendOrigin string
}

// NewSMTPMailer creates a mailer. Credentials are checked on send, not here.
func NewSMTPMailer(cfg config.SMTPConfig, frontendOrigin string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, frontendOrigin: frontendOrigin}
}

// SendVerification emails the verification link for token to the given address.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, token string) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return ErrNotConfigured
	}

	msg, err := BuildVerificationMessage(m.cfg.From, to, VerificationURL(m.frontendOrigin, token))
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// VerificationURL builds the frontend link a user follows to verify their email.
func VerificationURL(frontendOrigin, token string) string {
	return strings.TrimSuffix(frontendOrigin, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

var verificationHTML = template.Must(template.New("verify").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;line-height:1.5">
  <h2>Welcome to SellIt</h2>
  <p>Verify your email by clicking the button below:</p>
  <p>
    <a href="{{.}}" style="display:inline-block;padding:12px 18px;background:#ff7a00;color:#111;text-decoration:none;border-radius:8px;font-weight:700">Verify email</a>
  </p>
  <p style="color:#666;font-size:12px">If you didn't create an account, you can ignore this email.</p>
</div>
`))

// BuildVerificationMessage renders the plain text and HTML verification email.
func BuildVerificationMessage(from, to, verifyURL string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(verificationSubject)

	text := "Welcome to SellIt!\n\nVerify your email by clicking this link:\n" + verifyURL +
		"\n\nIf you didn't create an account, you can ignore this email."
	msg.SetBodyString(mail.TypeTextPlain, text)

	var html bytes.Buffer
	if err := verificationHTML.Execute(&html, verifyURL); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html.String())
	return msg, nil
}
