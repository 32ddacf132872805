package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"gopkg.in/mail.v2"
)

// SMTPConfig holds the configuration for SMTP connections.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// DialTimeout bounds connection setup. Zero means 30s.
	DialTimeout time.Duration
}

// SMTPMailer sends mail through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one message. Relay rejections come back as *DeliveryError
// carrying the SMTP reply code and text.
//
// The message is composed with gopkg.in/mail.v2 but the SMTP conversation
// stays on net/smtp: mail.v2's Dialer does not surface the *textproto.Error
// for a rejected RCPT, and ClassifyFailure needs that reply code.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := m.send(ctx, msg.To, newMessage(m.cfg.From, m.cfg.FromName, msg)); err != nil {
		return toDeliveryError(err)
	}
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to string, body *mail.Message) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("SMTP connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP client: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := body.WriteTo(w); err != nil {
		return fmt.Errorf("SMTP write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP end of data: %w", err)
	}

	return c.Quit()
}

// toDeliveryError lifts the SMTP reply out of a wrapped textproto error.
func toDeliveryError(err error) *DeliveryError {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &DeliveryError{Code: tpErr.Code, Message: tpErr.Msg, Err: err}
	}
	return &DeliveryError{Message: err.Error(), Err: err}
}

// newMessage composes a multipart/alternative message with text and HTML
// parts. A message with only one body is sent as a single part.
func newMessage(from, fromName string, msg Message) *mail.Message {
	mm := mail.NewMessage()
	mm.SetAddressHeader("From", from, fromName)
	mm.SetHeader("To", msg.To)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetDateHeader("Date", time.Now())

	switch {
	case msg.Text != "" && msg.HTML != "":
		mm.SetBody("text/plain", msg.Text)
		mm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		mm.SetBody("text/html", msg.HTML)
	default:
		mm.SetBody("text/plain", msg.Text)
	}
	return mm
}
