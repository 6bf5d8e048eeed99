package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"rotorcharter/internal/config"
)

const smtpTimeout = 15 * time.Second

// Message is a single outbound email.
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer sends mail through an SMTP relay.
type Mailer struct {
	cfg *config.EmailConfig
	log *slog.Logger
}

// NewMailer creates a new SMTP mailer
func NewMailer(cfg *config.EmailConfig, log *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// IsEnabled returns whether mail is actually delivered
func (m *Mailer) IsEnabled() bool {
	return m.cfg.Enabled
}

// Send delivers msg, giving up when ctx is done or smtpTimeout passes. With
// email disabled the message is only logged.
//
// A message is never handed to the relay once Send has given up. If the
// deadline fires while the relay is already receiving it, the mail may still
// arrive after Send has returned an error.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		m.log.Info("email disabled, message not sent", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	if m.cfg.SMTPHost == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	gm, err := m.build(msg)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.Username, m.cfg.Password)
	d.SSL = m.cfg.UseSSL
	if m.cfg.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: m.cfg.SMTPHost}
	}

	ctx, cancel := context.WithTimeout(ctx, smtpTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		sc, err := d.Dial()
		if err != nil {
			done <- err
			return
		}
		defer sc.Close()
		if err := ctx.Err(); err != nil {
			m.log.Warn("smtp connected after deadline, message dropped", "to", msg.To)
			done <- err
			return
		}
		done <- gomail.Send(sc, gm)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) build(msg Message) (*gomail.Message, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	gm := gomail.NewMessage()
	if m.cfg.FromName != "" {
		gm.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	} else {
		gm.SetHeader("From", m.cfg.FromEmail)
	}
	gm.SetHeader("To", to)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		gm.SetBody("text/plain", msg.TextBody)
		gm.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		gm.SetBody("text/html", msg.HTMLBody)
	case msg.TextBody != "":
		gm.SetBody("text/plain", msg.TextBody)
	default:
		return nil, fmt.Errorf("message body is required")
	}
	return gm, nil
}
