package ticket

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "vendorflow/internal/domain/ticket/valueobjects"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newValidTicket(t *testing.T) *Ticket {
	t.Helper()
	tk, err := NewTicket("owner@example.com", "Leaking kitchen sink", "Water under the cabinet",
		"plumbing", []string{"Leak", "kitchen", "leak"}, vo.UrgencyHigh, "Newark, NJ")
	require.NoError(t, err)
	return tk
}

func reconstructedTicket(t *testing.T, status vo.TicketStatus) *Ticket {
	t.Helper()
	now := time.Now().UTC()
	tk, err := ReconstructTicket(
		"tk000000000001", "owner@example.com",
		"Persisted", "desc", "hvac", nil, vo.UrgencyLow, "Edison, NJ",
		status,
		"", "", "", vo.QuoteStatusNone,
		nil, // scheduledDate
		nil, // embedding
		now, now,
	)
	require.NoError(t, err)
	return tk
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewTicket(t *testing.T) {
	tk := newValidTicket(t)

	assert.Len(t, tk.ID(), 16)
	assert.Equal(t, vo.StatusPending, tk.Status())
	assert.Equal(t, []string{"leak", "kitchen"}, tk.Tags())
	assert.Equal(t, vo.QuoteStatusNone, tk.QuoteStatus())
	assert.Contains(t, tk.SearchText(), "plumbing")
	assert.Contains(t, tk.SearchText(), "Newark, NJ")
}

func TestNewTicket_Validation(t *testing.T) {
	_, err := NewTicket("", "title", "", "", nil, "", "")
	assert.Error(t, err)

	_, err = NewTicket("o@example.com", " ", "", "", nil, "", "")
	assert.Error(t, err)

	_, err = NewTicket("o@example.com", "t", "", "", nil, vo.Urgency("whenever"), "")
	assert.Error(t, err)

	tk, err := NewTicket("o@example.com", "t", "", "", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, vo.UrgencyMedium, tk.Urgency())
}

func TestReconstructTicket_RejectsUnknownStatus(t *testing.T) {
	now := time.Now()
	_, err := ReconstructTicket("tk1", "", "", "", "", nil, "", "", vo.TicketStatus("sent"),
		"", "", "", vo.QuoteStatusNone, nil, nil, now, now)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Status Tests
// ---------------------------------------------------------------------------

func TestAdvanceTo_IsIdempotent(t *testing.T) {
	tk := reconstructedTicket(t, vo.StatusFindVendors)

	changed, err := tk.AdvanceTo(vo.StatusRequestedForInformation)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = tk.AdvanceTo(vo.StatusRequestedForInformation)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())
}

func TestAdvanceTo_RejectedTransitionKeepsStatus(t *testing.T) {
	tk := reconstructedTicket(t, vo.StatusClosed)

	changed, err := tk.AdvanceTo(vo.StatusAwaitingVendor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, changed)
	assert.Equal(t, vo.StatusClosed, tk.Status())
}

func TestMarkAwaitingQuotes(t *testing.T) {
	tk := reconstructedTicket(t, vo.StatusFindVendors)

	changed, err := tk.MarkAwaitingQuotes()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, vo.QuoteStatusAwaiting, tk.QuoteStatus())
}

func TestMarkQuoteReceived(t *testing.T) {
	tk := reconstructedTicket(t, vo.StatusRequestedForInformation)

	_, err := tk.MarkQuoteReceived()
	require.NoError(t, err)
	assert.Equal(t, vo.StatusQuotesReceived, tk.Status())
	assert.Equal(t, vo.QuoteStatusReceived, tk.QuoteStatus())
}

func TestRecordSelection(t *testing.T) {
	t.Run("without date becomes quotes_available", func(t *testing.T) {
		tk := reconstructedTicket(t, vo.StatusQuotesReceived)
		require.NoError(t, tk.RecordSelection("v1", "q1", nil))

		assert.Equal(t, vo.StatusQuotesAvailable, tk.Status())
		assert.Equal(t, "v1", tk.SelectedVendorID())
		assert.Equal(t, "q1", tk.SelectedVendorQuoteID())
		assert.Equal(t, vo.QuoteStatusSelected, tk.QuoteStatus())
		assert.Nil(t, tk.ScheduledDate())
	})

	t.Run("with date becomes scheduled", func(t *testing.T) {
		tk := reconstructedTicket(t, vo.StatusQuotesReceived)
		date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
		require.NoError(t, tk.RecordSelection("v1", "q1", &date))

		assert.Equal(t, vo.StatusScheduled, tk.Status())
		require.NotNil(t, tk.ScheduledDate())
		assert.True(t, date.Equal(*tk.ScheduledDate()))
	})

	t.Run("late quote stays selected", func(t *testing.T) {
		tk := reconstructedTicket(t, vo.StatusQuotesReceived)
		require.NoError(t, tk.RecordSelection("v1", "q1", nil))

		_, err := tk.MarkQuoteReceived()
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, vo.QuoteStatusSelected, tk.QuoteStatus())
		assert.Equal(t, vo.StatusQuotesAvailable, tk.Status())
	})

	t.Run("closed ticket rejects selection", func(t *testing.T) {
		tk := reconstructedTicket(t, vo.StatusClosed)
		assert.ErrorIs(t, tk.RecordSelection("v1", "q1", nil), ErrInvalidTransition)
		assert.Empty(t, tk.SelectedVendorID())
	})
}

func TestCacheEmbedding_Copies(t *testing.T) {
	tk := newValidTicket(t)
	vec := []float32{0.1, 0.2}
	tk.CacheEmbedding(vec)
	vec[0] = 9

	assert.Equal(t, []float32{0.1, 0.2}, tk.Embedding())
}

func TestNewConversationMessage(t *testing.T) {
	msg, err := NewConversationMessage("tk1", "v1", DirectionInbound, "sales@acme.com", "quotes@vf.local",
		"Re: [Ticket #tk1]", "We can do it for $500", "")
	require.NoError(t, err)
	assert.Equal(t, DirectionInbound, msg.Direction())
	assert.NotEmpty(t, msg.ID())

	_, err = NewConversationMessage("tk1", "", Direction("sideways"), "", "", "s", "b", "")
	assert.Error(t, err)

	_, err = NewConversationMessage("tk1", "", DirectionOutbound, "", "", "", "", "")
	assert.Error(t, err)
}
