// Package emailevent is the provider-neutral form of email webhooks.
// A webhook is either a delivery receipt, an inbound email, or a shape the
// provider adapter did not recognize.
package emailevent

import "time"

type Kind string

const (
	KindDelivery     Kind = "delivery"
	KindInbound      Kind = "inbound"
	KindUnrecognized Kind = "unrecognized"
)

type DeliveryType string

const (
	DeliveryDelivered  DeliveryType = "delivered"
	DeliveryBounced    DeliveryType = "bounced"
	DeliveryComplained DeliveryType = "complained"
	DeliveryOpened     DeliveryType = "opened"
	DeliveryClicked    DeliveryType = "clicked"
)

func (t DeliveryType) IsValid() bool {
	switch t {
	case DeliveryDelivered, DeliveryBounced, DeliveryComplained, DeliveryOpened, DeliveryClicked:
		return true
	}
	return false
}

// Delivery is a status receipt for an email we sent, keyed by the provider email id.
type Delivery struct {
	Type       DeliveryType
	EmailID    string
	OccurredAt time.Time
	Reason     string
}

// InboundEmail is an email received on the reply domain.
type InboundEmail struct {
	EmailID    string
	From       string
	To         []string
	Subject    string
	Text       string
	HTML       string
	MessageID  string
	InReplyTo  string
	References []string
	ReceivedAt time.Time
}

// Event is one webhook delivery. ID is the provider's delivery id and is used
// to drop redelivered webhooks.
type Event struct {
	ID       string
	Kind     Kind
	RawType  string
	Delivery *Delivery
	Inbound  *InboundEmail
}

func NewDeliveryEvent(id, rawType string, d Delivery) Event {
	return Event{ID: id, Kind: KindDelivery, RawType: rawType, Delivery: &d}
}

func NewInboundEvent(id, rawType string, in InboundEmail) Event {
	return Event{ID: id, Kind: KindInbound, RawType: rawType, Inbound: &in}
}

func NewUnrecognizedEvent(id, rawType string) Event {
	return Event{ID: id, Kind: KindUnrecognized, RawType: rawType}
}
