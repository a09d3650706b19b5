// Package mail provides a fluent SMTP mailer.
//
// Usage:
//
//	mailer := mail.New(cfg.Mail)
//	msg := mail.To("user@example.com").
//	    Subject("Your order").
//	    Text("Thanks!")
//	err := mailer.Send(ctx, msg)
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/shashiranjanraj/carby/config"
)

// ErrNoRecipients is returned when a message has nobody to deliver to.
var ErrNoRecipients = errors.New("mail: no recipients")

// ------------------- Message -------------------

// Message is a fluent builder for an email.
type Message struct {
	to      []string
	subject string
	body    string
}

// To sets the primary recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses}
}

// Subject sets the email subject.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	return m
}

// Recipients returns every envelope recipient.
func (m *Message) Recipients() []string {
	return append([]string(nil), m.to...)
}

// SubjectLine returns the subject as set.
func (m *Message) SubjectLine() string { return m.subject }

// BodyText returns the body as set.
func (m *Message) BodyText() string { return m.body }

// ------------------- Mailer -------------------

// Sender delivers messages. *Mailer is the SMTP implementation; tests swap
// in fakes.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Mailer sends messages over SMTP.
type Mailer struct {
	cfg config.Mail
}

// New creates a Mailer from the mail settings.
func New(cfg config.Mail) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers msg. The whole exchange is bounded by the earlier of ctx's
// deadline and the configured timeout. Port 465 (or UseSSL) dials implicit
// TLS; otherwise STARTTLS is used when the server offers it.
func (s *Mailer) Send(ctx context.Context, msg *Message) error {
	rcpts := msg.Recipients()
	if len(rcpts) == 0 {
		return ErrNoRecipients
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	implicitTLS := s.cfg.UseSSL || s.cfg.Port == "465"
	if implicitTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.cfg.Host})
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(s.buildRaw(msg, time.Now())); err != nil {
		w.Close()
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: data close: %w", err)
	}
	return client.Quit()
}

func (s *Mailer) buildRaw(m *Message, now time.Time) []byte {
	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", headerSafe(s.cfg.FromName), s.cfg.From)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + headerSafe(strings.Join(m.to, ", ")) + "\r\n")
	b.WriteString("Subject: " + headerSafe(m.subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// headerSafe strips CR/LF so user data cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}
