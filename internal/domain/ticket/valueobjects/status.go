package valueobjects

import "fmt"

type TicketStatus string

const (
	StatusPending                 TicketStatus = "pending"
	StatusAnalyzed                TicketStatus = "analyzed"
	StatusFindVendors             TicketStatus = "find_vendors"
	StatusRequestedForInformation TicketStatus = "requested_for_information"
	StatusQuotesReceived          TicketStatus = "quotes_received"
	StatusQuotesAvailable         TicketStatus = "quotes_available"
	StatusScheduled               TicketStatus = "scheduled"
	StatusFixed                   TicketStatus = "fixed"
	StatusClosed                  TicketStatus = "closed"
	StatusAwaitingVendor          TicketStatus = "awaiting_vendor"
)

var validTicketStatuses = map[TicketStatus]bool{
	StatusPending:                 true,
	StatusAnalyzed:                true,
	StatusFindVendors:             true,
	StatusRequestedForInformation: true,
	StatusQuotesReceived:          true,
	StatusQuotesAvailable:         true,
	StatusScheduled:               true,
	StatusFixed:                   true,
	StatusClosed:                  true,
	StatusAwaitingVendor:          true,
}

// awaiting_vendor is the side path entered on bounce or complaint. It is
// reachable from every status before fixed, and leads back to any of them.
var ticketStatusTransitions = map[TicketStatus][]TicketStatus{
	StatusPending: {
		StatusAnalyzed,
		StatusFindVendors,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusAnalyzed: {
		StatusFindVendors,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusFindVendors: {
		StatusRequestedForInformation,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusRequestedForInformation: {
		StatusFindVendors,
		StatusQuotesReceived,
		StatusQuotesAvailable,
		StatusScheduled,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusQuotesReceived: {
		StatusRequestedForInformation,
		StatusQuotesAvailable,
		StatusScheduled,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusQuotesAvailable: {
		StatusScheduled,
		StatusFixed,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusScheduled: {
		StatusQuotesAvailable,
		StatusFixed,
		StatusAwaitingVendor,
		StatusClosed,
	},
	StatusFixed: {
		StatusClosed,
	},
	StatusClosed: {},
	StatusAwaitingVendor: {
		StatusFindVendors,
		StatusRequestedForInformation,
		StatusQuotesReceived,
		StatusQuotesAvailable,
		StatusScheduled,
		StatusFixed,
		StatusClosed,
	},
}

func (ts TicketStatus) String() string {
	return string(ts)
}

func (ts TicketStatus) IsValid() bool {
	return validTicketStatuses[ts]
}

func (ts TicketStatus) CanTransitionTo(newStatus TicketStatus) bool {
	for _, allowed := range ticketStatusTransitions[ts] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

func (ts TicketStatus) IsTerminal() bool {
	return ts == StatusClosed
}

// IsFinished reports whether the repair is done, so delivery problems no longer matter.
func (ts TicketStatus) IsFinished() bool {
	return ts == StatusFixed || ts == StatusClosed
}

func NewTicketStatus(s string) (TicketStatus, error) {
	ts := TicketStatus(s)
	if !ts.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return ts, nil
}

// QuoteStatus summarizes the quote progress of a ticket.
type QuoteStatus string

const (
	QuoteStatusNone     QuoteStatus = ""
	QuoteStatusAwaiting QuoteStatus = "awaiting"
	QuoteStatusReceived QuoteStatus = "received"
	QuoteStatusSelected QuoteStatus = "selected"
)

func (qs QuoteStatus) String() string {
	return string(qs)
}

func (qs QuoteStatus) IsValid() bool {
	switch qs {
	case QuoteStatusNone, QuoteStatusAwaiting, QuoteStatusReceived, QuoteStatusSelected:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) String() string {
	return string(u)
}

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}
