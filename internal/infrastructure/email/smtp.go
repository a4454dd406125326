package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"vendorflow/internal/application/outreach/emailsender"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPSender sends outreach email over SMTP. SMTP has no provider email id, so
// each send is given a random one that the mapping table keys on.
type SMTPSender struct {
	dialer *gomail.Dialer
}

var _ emailsender.EmailSender = (*SMTPSender)(nil)

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg emailsender.Message) (*emailsender.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.dialer.DialAndSend(buildMessage(msg)); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	return &emailsender.SendResult{EmailID: uuid.NewString()}, nil
}

func buildMessage(msg emailsender.Message) *gomail.Message {
	m := gomail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	} else {
		m.SetHeader("From", msg.FromAddress)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	if msg.MessageID != "" {
		m.SetHeader("Message-ID", msg.MessageID)
	}
	if msg.InReplyTo != "" {
		m.SetHeader("In-Reply-To", msg.InReplyTo)
	}
	if len(msg.References) > 0 {
		m.SetHeader("References", strings.Join(msg.References, " "))
	}

	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}
