package email

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vendorflow/internal/application/common/correlation"
	"vendorflow/internal/application/common/emailevent"
)

const (
	eventDelivered  = "email.delivered"
	eventBounced    = "email.bounced"
	eventComplained = "email.complained"
	eventOpened     = "email.opened"
	eventClicked    = "email.clicked"
	eventReceived   = "email.received"
)

var deliveryTypes = map[string]emailevent.DeliveryType{
	eventDelivered:  emailevent.DeliveryDelivered,
	eventBounced:    emailevent.DeliveryBounced,
	eventComplained: emailevent.DeliveryComplained,
	eventOpened:     emailevent.DeliveryOpened,
	eventClicked:    emailevent.DeliveryClicked,
}

type webhookPayload struct {
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

type webhookHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type webhookData struct {
	EmailID    string          `json:"email_id"`
	CreatedAt  string          `json:"created_at"`
	From       string          `json:"from"`
	To         json.RawMessage `json:"to"`
	Subject    string          `json:"subject"`
	Text       string          `json:"text"`
	HTML       string          `json:"html"`
	MessageID  string          `json:"message_id"`
	InReplyTo  string          `json:"in_reply_to"`
	References json.RawMessage `json:"references"`
	Headers    json.RawMessage `json:"headers"`
	Bounce     *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"bounce"`
}

// ParseWebhook converts a provider webhook body into an emailevent.Event.
// deliveryID is the provider's delivery id header. Types we do not act on,
// and bodies missing the fields a known type needs, come back unrecognized.
func ParseWebhook(deliveryID string, body []byte) (emailevent.Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return emailevent.Event{}, fmt.Errorf("invalid webhook payload: %w", err)
	}

	var data webhookData
	if len(payload.Data) > 0 && payload.Data[0] == '{' {
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return emailevent.NewUnrecognizedEvent(deliveryID, payload.Type), nil
		}
	}

	if deliveryType, ok := deliveryTypes[payload.Type]; ok {
		if data.EmailID == "" {
			return emailevent.NewUnrecognizedEvent(deliveryID, payload.Type), nil
		}
		d := emailevent.Delivery{
			Type:       deliveryType,
			EmailID:    data.EmailID,
			OccurredAt: firstTime(payload.CreatedAt, data.CreatedAt),
		}
		if data.Bounce != nil {
			d.Reason = strings.TrimSpace(data.Bounce.Message)
		}
		return emailevent.NewDeliveryEvent(deliveryID, payload.Type, d), nil
	}

	if payload.Type == eventReceived {
		if data.From == "" {
			return emailevent.NewUnrecognizedEvent(deliveryID, payload.Type), nil
		}
		return emailevent.NewInboundEvent(deliveryID, payload.Type, data.toInbound(payload.CreatedAt)), nil
	}

	return emailevent.NewUnrecognizedEvent(deliveryID, payload.Type), nil
}

func (d webhookData) toInbound(createdAt string) emailevent.InboundEmail {
	headers := decodeHeaders(d.Headers)

	in := emailevent.InboundEmail{
		EmailID:    d.EmailID,
		From:       d.From,
		To:         decodeStrings(d.To),
		Subject:    d.Subject,
		Text:       d.Text,
		HTML:       d.HTML,
		MessageID:  firstNonEmpty(d.MessageID, headers["message-id"]),
		InReplyTo:  firstNonEmpty(d.InReplyTo, headers["in-reply-to"]),
		ReceivedAt: firstTime(d.CreatedAt, createdAt),
	}

	refs := decodeStrings(d.References)
	if len(refs) == 0 && headers["references"] != "" {
		refs = []string{headers["references"]}
	}
	for _, r := range refs {
		in.References = append(in.References, correlation.SplitMessageIDs(r)...)
	}
	return in
}

// decodeHeaders accepts a name/value list or an object and lowercases names.
func decodeHeaders(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}

	var list []webhookHeader
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, h := range list {
			out[strings.ToLower(h.Name)] = h.Value
		}
		return out
	}

	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k, v := range obj {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

// decodeStrings accepts a string or a list of strings.
func decodeStrings(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// firstTime returns the first parsable RFC 3339 value, or the zero time.
func firstTime(values ...string) time.Time {
	for _, v := range values {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
