// Package emailsender defines the outbound email port.
package emailsender

import "context"

// Message is one outbound email. MessageID, InReplyTo and References are full
// header values including angle brackets.
type Message struct {
	FromAddress    string
	FromName       string
	To             string
	ReplyTo        string
	Subject        string
	HTML           string
	Text           string
	MessageID      string
	InReplyTo      string
	References     []string
	IdempotencyKey string
}

// SendResult carries the provider-assigned email id used by delivery webhooks.
type SendResult struct {
	EmailID string
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}
