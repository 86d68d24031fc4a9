// Package mailer renders and delivers the transactional emails sent by
// the worker: verification, password reset, welcome and project
// invitations.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/finnh/taskdeck/pkg/config"
)

// Message is a fully rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message. The worker treats any returned
// error as retryable.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer turns job payloads into messages and hands them to a Sender.
type Mailer struct {
	sender      Sender
	frontendURL string
}

func New(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: frontendURL}
}

// SendTemplate renders the named template with data and delivers it.
func (m *Mailer) SendTemplate(ctx context.Context, to, name string, data map[string]string) error {
	rendered, err := Render(name, m.frontendURL, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	})
}

// SendRaw delivers a pre-composed message.
func (m *Mailer) SendRaw(ctx context.Context, msg Message) error {
	return m.sender.Send(ctx, msg)
}

// SMTPSender delivers over plain SMTP with optional auth. It is the
// only delivery implementation; tests substitute their own Sender.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	body := buildMIME(s.cfg.From, msg)
	if err := smtp.SendMail(s.cfg.Addr(), auth, s.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}

const mimeBoundary = "taskdeck-alt-boundary"

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Text)
		return []byte(b.String())
	}

	b.WriteString("Content-Type: multipart/alternative; boundary=" + mimeBoundary + "\r\n\r\n")
	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")
	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML + "\r\n")
	b.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(b.String())
}
