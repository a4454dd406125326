package llm

import (
	"context"
	"fmt"
	"strings"

	"vendorflow/internal/application/outreach/emaildrafter"
)

const solicitationSystemPrompt = `You write short, professional emails asking a maintenance vendor for a quote.
Write the body only, in markdown, without a subject line.
Ask for a price, the earliest date they can come, how long the work takes and anything they need to know.
Do not invent details that are not in the job description.`

const replySystemPrompt = `You write short, polite replies to maintenance vendors on behalf of a property manager.
Write the body only, in markdown, without a subject line. Do not commit to hiring the vendor.`

// EmailDrafter implements emaildrafter.EmailDrafter.
type EmailDrafter struct {
	client *Client
}

var _ emaildrafter.EmailDrafter = (*EmailDrafter)(nil)

func NewEmailDrafter(client *Client) *EmailDrafter {
	return &EmailDrafter{client: client}
}

func (d *EmailDrafter) DraftSolicitation(ctx context.Context, req emaildrafter.SolicitationRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Vendor: %s\n", req.VendorName)
	fmt.Fprintf(&b, "Job: %s\n", req.Title)
	if req.Specialty != "" {
		fmt.Fprintf(&b, "Trade: %s\n", req.Specialty)
	}
	if req.Urgency != "" {
		fmt.Fprintf(&b, "Urgency: %s\n", req.Urgency)
	}
	if req.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.Location)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", req.Description)

	return d.client.complete(ctx, solicitationSystemPrompt, b.String(), nil)
}

func (d *EmailDrafter) DraftReply(ctx context.Context, req emaildrafter.ReplyRequest) (string, error) {
	var intent string
	switch {
	case req.Declined:
		intent = "The vendor declined. Thank them and close politely."
	case req.QuoteCreated:
		intent = "The vendor sent a complete quote. Confirm receipt and say we will follow up once quotes are compared."
	default:
		intent = "The vendor replied without a complete quote. Ask for the missing price and timing."
	}

	user := fmt.Sprintf("Job: %s\nVendor: %s\nInstruction: %s\n\nVendor message:\n%s",
		req.TicketTitle, req.VendorName, intent, req.InboundBody)
	return d.client.complete(ctx, replySystemPrompt, user, nil)
}
