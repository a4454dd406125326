package testutil

import (
	"testing"
	"time"

	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/id"
)

// NewTestTicket returns a pending plumbing ticket.
func NewTestTicket(tb testing.TB) *ticket.Ticket {
	tb.Helper()

	t, err := ticket.NewTicket(
		"owner@example.com",
		"Leaking kitchen sink",
		"Water pooling under the sink cabinet since Monday.",
		"plumbing",
		[]string{"leak", "sink"},
		vo.UrgencyHigh,
		"Newark, NJ",
	)
	if err != nil {
		tb.Fatalf("new ticket: %v", err)
	}
	return t
}

// NewTestTicketWithStatus returns a plumbing ticket already in status.
func NewTestTicketWithStatus(tb testing.TB, status vo.TicketStatus, quoteStatus vo.QuoteStatus) *ticket.Ticket {
	tb.Helper()

	now := time.Now().UTC()
	t, err := ticket.ReconstructTicket(
		id.New(),
		"owner@example.com",
		"Leaking kitchen sink",
		"Water pooling under the sink cabinet since Monday.",
		"plumbing",
		[]string{"leak", "sink"},
		vo.UrgencyHigh,
		"Newark, NJ",
		status,
		"",
		"",
		"",
		quoteStatus,
		nil,
		nil,
		now,
		now,
	)
	if err != nil {
		tb.Fatalf("reconstruct ticket: %v", err)
	}
	return t
}

// NewTestVendor returns a vendor with a valid email status.
func NewTestVendor(tb testing.TB, name, email, phone string) *vendor.Vendor {
	tb.Helper()

	v, err := vendor.NewVendor(name, email, phone, "plumbing", "1 Main St, Newark, NJ", nil)
	if err != nil {
		tb.Fatalf("new vendor: %v", err)
	}
	return v
}
