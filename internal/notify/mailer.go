package notify

import (
	"context"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// Message is one outbound plain-text e-mail
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers a single message. Implementations make one attempt only.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an authenticated SMTP relay
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	return m.dialer.DialAndSend(gm)
}

// LogMailer only logs messages. Used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("mail (not sent, no SMTP host) to=%s subject=%q", strings.Join(msg.To, ","), msg.Subject)
	return nil
}
