package notify

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

type Message struct {
	To          string
	Subject     string
	Body        string
	HTML        bool
	Attachments []string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Distribute sends one message per recipient. Failures are logged and never
// retried; the count of successful sends is returned.
func Distribute(ctx context.Context, n Notifier, logger log.FieldLogger, recipients []string, msg Message) int {
	sent := 0
	for _, recipient := range recipients {
		m := msg
		m.To = recipient

		if err := n.Send(ctx, m); err != nil {
			logger.WithField("recipient", recipient).WithError(err).Error("Failed to send notification")
			continue
		}
		logger.WithField("recipient", recipient).Info("Notification sent")
		sent++
	}
	return sent
}

// SMTP delivers messages through a mail submission server.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// TLS is one of "mandatory", "opportunistic", "none" or "ssl".
	TLS string
}

func (s *SMTP) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.Port)}

	switch s.TLS {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	return opts
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)

	if msg.HTML {
		m.SetBodyString(mail.TypeTextHTML, msg.Body)
	} else {
		m.SetBodyString(mail.TypeTextPlain, msg.Body)
	}
	for _, attachment := range msg.Attachments {
		m.AttachFile(attachment)
	}

	client, err := mail.NewClient(s.Host, s.options()...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

// Log writes messages to the log instead of sending them. It is used when no
// mail server is configured.
type Log struct {
	Logger log.FieldLogger
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	l.Logger.WithFields(log.Fields{
		"recipient":   msg.To,
		"attachments": len(msg.Attachments),
	}).Infof("Notification: %s", msg.Subject)
	return nil
}
