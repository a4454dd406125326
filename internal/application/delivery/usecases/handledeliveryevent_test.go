package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/application/common/emailevent"
	"vendorflow/internal/application/testutil"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	apperrors "vendorflow/internal/shared/errors"
)

type deliveryFixture struct {
	mappings *testutil.MockEmailMappingRepository
	vendors  *testutil.MockVendorRepository
	tickets  *testutil.MockTicketRepository
	log      *testutil.MockLogger
	uc       *HandleDeliveryEventUseCase

	ticket  *ticket.Ticket
	vendor  *vendor.Vendor
	emailID string
	sentAt  time.Time
}

func newDeliveryFixture(t *testing.T, status vo.TicketStatus, quoteStatus vo.QuoteStatus) *deliveryFixture {
	t.Helper()

	f := &deliveryFixture{
		mappings: testutil.NewMockEmailMappingRepository(),
		vendors:  testutil.NewMockVendorRepository(),
		tickets:  testutil.NewMockTicketRepository(),
		log:      testutil.NewMockLogger(),
		emailID:  "email-1",
		sentAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.ticket = testutil.NewTestTicketWithStatus(t, status, quoteStatus)
	f.tickets.AddTicket(f.ticket)
	f.vendor = testutil.NewTestVendor(t, "Ace Plumbing", "office@aceplumbing.com", "")
	f.vendors.AddVendor(f.vendor)

	mapping, err := outreach.NewEmailMapping(f.emailID, f.ticket.ID(), f.vendor.ID(), "<m1@vendorflow.local>", f.sentAt)
	require.NoError(t, err)
	require.NoError(t, f.mappings.Save(context.Background(), mapping))

	advance := ticketusecases.NewAdvanceStatusUseCase(f.tickets, f.log)
	f.uc = NewHandleDeliveryEventUseCase(f.mappings, f.vendors, f.tickets, advance, f.log)
	return f
}

func (f *deliveryFixture) event(kind emailevent.DeliveryType, offset time.Duration, reason string) emailevent.Delivery {
	return emailevent.Delivery{
		Type:       kind,
		EmailID:    f.emailID,
		OccurredAt: f.sentAt.Add(offset),
		Reason:     reason,
	}
}

func TestHandleDeliveryEvent_Bounce(t *testing.T) {
	ctx := context.Background()

	t.Run("bounce suppresses vendor and demotes waiting ticket", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)

		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryBounced, time.Minute, "mailbox does not exist"))
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, result.Outcome)
		assert.Equal(t, outreach.DeliveryBounced, result.MappingStatus)
		assert.Equal(t, vendor.EmailStatusBounced, result.VendorStatus)
		assert.Equal(t, vo.StatusAwaitingVendor, result.TicketStatus)

		mapping, _ := f.mappings.GetByEmailID(ctx, f.emailID)
		assert.Equal(t, "mailbox does not exist", mapping.BounceReason())
		assert.Equal(t, "mailbox does not exist", f.vendor.LastEmailError())
		assert.False(t, f.vendor.CanReceiveEmail())
	})

	t.Run("bounce after quotes leaves ticket alone", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusQuotesReceived, vo.QuoteStatusReceived)

		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryBounced, time.Minute, ""))
		require.NoError(t, err)
		assert.Equal(t, vo.StatusQuotesReceived, result.TicketStatus)
		assert.Equal(t, vendor.EmailStatusBounced, f.vendor.EmailStatus())
		assert.Equal(t, "email bounced", f.vendor.LastEmailError())
		assert.Equal(t, 0, f.tickets.UpdateCount())
	})

	t.Run("replayed bounce changes nothing", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)
		event := f.event(emailevent.DeliveryBounced, time.Minute, "mailbox full")

		first, err := f.uc.Execute(ctx, event)
		require.NoError(t, err)
		updatedAt := f.vendor.UpdatedAt()
		updates := f.tickets.UpdateCount()

		second, err := f.uc.Execute(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, first.VendorStatus, second.VendorStatus)
		assert.Equal(t, first.MappingStatus, second.MappingStatus)
		assert.Equal(t, first.TicketStatus, second.TicketStatus)
		assert.Equal(t, updatedAt, f.vendor.UpdatedAt())
		assert.Equal(t, updates, f.tickets.UpdateCount())
	})
}

func TestHandleDeliveryEvent_Complaint(t *testing.T) {
	ctx := context.Background()

	t.Run("complaint marks vendor do not email", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusQuotesReceived, vo.QuoteStatusReceived)

		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryComplained, time.Hour, ""))
		require.NoError(t, err)
		assert.Equal(t, outreach.DeliveryComplained, result.MappingStatus)
		assert.Equal(t, vendor.EmailStatusDoNotEmail, result.VendorStatus)
		assert.Equal(t, vo.StatusAwaitingVendor, result.TicketStatus)
	})

	for _, status := range []vo.TicketStatus{vo.StatusQuotesAvailable, vo.StatusScheduled} {
		t.Run("complaint after selection demotes "+string(status), func(t *testing.T) {
			f := newDeliveryFixture(t, status, vo.QuoteStatusSelected)

			result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryComplained, time.Hour, ""))
			require.NoError(t, err)
			assert.Equal(t, vo.StatusAwaitingVendor, result.TicketStatus)
			assert.Equal(t, vendor.EmailStatusDoNotEmail, result.VendorStatus)
			assert.False(t, f.log.HasMessage("WARN", "ticket transition rejected, keeping status"))
		})
	}

	t.Run("complaint on finished ticket only touches vendor", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusFixed, vo.QuoteStatusSelected)

		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryComplained, time.Hour, ""))
		require.NoError(t, err)
		assert.Equal(t, vo.StatusFixed, result.TicketStatus)
		assert.Equal(t, vendor.EmailStatusDoNotEmail, result.VendorStatus)
		assert.False(t, f.log.HasMessage("WARN", "ticket transition rejected, keeping status"))
	})
}

func TestHandleDeliveryEvent_Engagement(t *testing.T) {
	ctx := context.Background()

	t.Run("out of order engagement never regresses", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)

		_, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryClicked, 3*time.Hour, ""))
		require.NoError(t, err)
		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryDelivered, time.Minute, ""))
		require.NoError(t, err)

		assert.Equal(t, outreach.DeliveryClicked, result.MappingStatus)
		mapping, _ := f.mappings.GetByEmailID(ctx, f.emailID)
		assert.Equal(t, f.sentAt.Add(3*time.Hour), mapping.LastEventAt())
		assert.Equal(t, vo.StatusRequestedForInformation, f.ticket.Status())
	})

	t.Run("engagement after bounce keeps the failure", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)

		_, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryBounced, time.Minute, "no such user"))
		require.NoError(t, err)
		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryOpened, time.Hour, ""))
		require.NoError(t, err)

		assert.Equal(t, outreach.DeliveryBounced, result.MappingStatus)
		assert.Equal(t, vendor.EmailStatusBounced, f.vendor.EmailStatus())
	})

	t.Run("delivery promotes invalid vendor to valid", func(t *testing.T) {
		f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)
		invalid, err := vendor.ReconstructVendor(f.vendor.ID(), "Ace Plumbing", "office@aceplumbing.com", "", "plumbing", "",
			nil, vendor.EmailStatusInvalid, "mx lookup failed", f.sentAt, f.sentAt)
		require.NoError(t, err)
		f.vendors.AddVendor(invalid)

		result, err := f.uc.Execute(ctx, f.event(emailevent.DeliveryDelivered, time.Minute, ""))
		require.NoError(t, err)
		assert.Equal(t, vendor.EmailStatusValid, result.VendorStatus)
		assert.Empty(t, invalid.LastEmailError())
	})
}

func TestHandleDeliveryEvent_UnknownEmail(t *testing.T) {
	f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)

	event := f.event(emailevent.DeliveryBounced, time.Minute, "")
	event.EmailID = "email-unknown"
	result, err := f.uc.Execute(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownEmail, result.Outcome)
	assert.Equal(t, vendor.EmailStatusValid, f.vendor.EmailStatus())
	assert.True(t, f.log.HasMessage("WARN", "delivery event for unknown email, dropping"))
}

func TestHandleDeliveryEvent_InvalidEvent(t *testing.T) {
	f := newDeliveryFixture(t, vo.StatusRequestedForInformation, vo.QuoteStatusAwaiting)

	_, err := f.uc.Execute(context.Background(), emailevent.Delivery{Type: "deferred", EmailID: f.emailID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}
