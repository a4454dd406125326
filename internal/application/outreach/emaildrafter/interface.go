// Package emaildrafter defines the port that writes email bodies. Drafts are
// markdown or HTML; callers normalize them before sending.
package emaildrafter

import "context"

// SolicitationRequest describes the quote request sent to one vendor.
type SolicitationRequest struct {
	TicketID    string
	Title       string
	Description string
	Specialty   string
	Urgency     string
	Location    string
	Tags        []string
	VendorName  string
}

// ReplyRequest describes an acknowledgement of a vendor reply.
type ReplyRequest struct {
	TicketTitle  string
	VendorName   string
	InboundBody  string
	QuoteCreated bool
	Declined     bool
}

type EmailDrafter interface {
	DraftSolicitation(ctx context.Context, req SolicitationRequest) (string, error)
	DraftReply(ctx context.Context, req ReplyRequest) (string, error)
}
