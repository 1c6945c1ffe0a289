package mailer

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPDriver sends email through a plain SMTP relay. Used in development
// against Mailpit; delivery webhooks never arrive for this driver, so records
// stay in the "sent" state.
type SMTPDriver struct {
	dialer *gomail.Dialer
	from   string
}

// SMTPConfig collects connection parameters for the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// AllowInsecureTLS skips certificate verification. Mailpit and other dev
	// relays present self-signed certificates; production relays never get
	// this flag.
	AllowInsecureTLS bool
}

// NewSMTPDriver constructs an SMTP driver.
func NewSMTPDriver(cfg SMTPConfig) *SMTPDriver {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.AllowInsecureTLS,
	}
	return &SMTPDriver{dialer: dialer, from: cfg.From}
}

// Send delivers the message and synthesizes a provider id so history records
// stay correlatable even without a hosted provider.
func (d *SMTPDriver) Send(ctx context.Context, out Outbound) (string, error) {
	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetHeader("From", d.from)
	msg.SetHeader("To", out.To)
	msg.SetHeader("Subject", out.Subject)
	msg.SetBody("text/html", out.HTML)

	if err := d.dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("mailer: smtp send: %w", err)
	}
	return "smtp-" + uuid.NewString(), nil
}

var _ Driver = (*SMTPDriver)(nil)
