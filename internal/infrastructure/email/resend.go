package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vendorflow/internal/application/outreach/emailsender"
	"vendorflow/internal/infrastructure/httpclient"
)

type ResendConfig struct {
	APIKey  string
	BaseURL string
}

type resendSendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

// ResendSender sends email through the Resend HTTP API.
type ResendSender struct {
	http *httpclient.Client
}

var _ emailsender.EmailSender = (*ResendSender)(nil)

func NewResendSender(config ResendConfig) *ResendSender {
	return &ResendSender{
		http: httpclient.New(httpclient.Options{
			Name:    "resend",
			BaseURL: config.BaseURL,
			APIKey:  config.APIKey,
		}),
	}
}

func (s *ResendSender) Send(ctx context.Context, msg emailsender.Message) (*emailsender.SendResult, error) {
	from := msg.FromAddress
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromAddress)
	}

	headers := map[string]string{}
	if msg.MessageID != "" {
		headers["Message-ID"] = msg.MessageID
	}
	if msg.InReplyTo != "" {
		headers["In-Reply-To"] = msg.InReplyTo
	}
	if len(msg.References) > 0 {
		headers["References"] = strings.Join(msg.References, " ")
	}

	req := resendSendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
		Headers: headers,
	}

	var requestHeaders map[string]string
	if msg.IdempotencyKey != "" {
		requestHeaders = map[string]string{"Idempotency-Key": msg.IdempotencyKey}
	}

	var resp resendSendResponse
	if err := s.http.Do(ctx, http.MethodPost, "/emails", req, &resp, requestHeaders); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("failed to send email: resend returned no email id")
	}
	return &emailsender.SendResult{EmailID: resp.ID}, nil
}
