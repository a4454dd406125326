package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/application/testutil"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
)

func TestExpireOutreachUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMockOutreachRepository()
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stale, err := outreach.NewVendorOutreach("Tk8Hq2LmZr0pXa1B", "Vn000000000000001", "email-1", sentAt, 72*time.Hour)
	require.NoError(t, err)
	fresh, err := outreach.NewVendorOutreach("Tk8Hq2LmZr0pXa1B", "Vn000000000000002", "email-2", sentAt.Add(48*time.Hour), 72*time.Hour)
	require.NoError(t, err)
	answered, err := outreach.NewVendorOutreach("Tk8Hq2LmZr0pXa1B", "Vn000000000000003", "email-3", sentAt, 72*time.Hour)
	require.NoError(t, err)
	answered.MarkResponded(sentAt.Add(time.Hour))

	for _, o := range []*outreach.VendorOutreach{stale, fresh, answered} {
		require.NoError(t, repo.Save(ctx, o))
	}

	uc := NewExpireOutreachUseCase(repo, nil, 0, testutil.NewMockLogger())
	result, err := uc.Execute(ctx, sentAt.Add(80*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, outreach.StatusExpired, stale.Status())
	assert.Equal(t, outreach.StatusSent, fresh.Status())
	assert.Equal(t, outreach.StatusResponded, answered.Status())

	again, err := uc.Execute(ctx, sentAt.Add(80*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Expired)
}

func TestExpireOutreachUseCase_ExpiresStaleQuotes(t *testing.T) {
	ctx := context.Background()
	outreachRepo := testutil.NewMockOutreachRepository()
	quotes := testutil.NewMockQuoteRepository()
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	validity := 30 * 24 * time.Hour

	newQuote := func(vendorID string, at time.Time) *quote.VendorQuote {
		q, err := quote.NewVendorQuote("Tk8Hq2LmZr0pXa1B", vendorID, "o-"+vendorID, quote.Terms{Price: 50000, EstimatedDeliveryTime: 48}, "", at)
		require.NoError(t, err)
		require.NoError(t, quotes.Save(ctx, q))
		return q
	}
	stale := newQuote("Vn000000000000001", receivedAt)
	fresh := newQuote("Vn000000000000002", receivedAt.Add(20*24*time.Hour))
	selected := newQuote("Vn000000000000003", receivedAt)
	require.NoError(t, selected.Select())

	uc := NewExpireOutreachUseCase(outreachRepo, quotes, validity, testutil.NewMockLogger())
	result, err := uc.Execute(ctx, receivedAt.Add(31*24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ExpiredQuotes)
	assert.Equal(t, quote.StatusExpired, stale.Status())
	assert.Equal(t, quote.StatusReceived, fresh.Status())
	assert.Equal(t, quote.StatusSelected, selected.Status())

	again, err := uc.Execute(ctx, receivedAt.Add(31*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, again.ExpiredQuotes)
}

func TestExpireOutreachUseCase_QuoteValidityDisabled(t *testing.T) {
	ctx := context.Background()
	quotes := testutil.NewMockQuoteRepository()
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q, err := quote.NewVendorQuote("Tk8Hq2LmZr0pXa1B", "Vn000000000000001", "o1", quote.Terms{Price: 1}, "", receivedAt)
	require.NoError(t, err)
	require.NoError(t, quotes.Save(ctx, q))

	uc := NewExpireOutreachUseCase(testutil.NewMockOutreachRepository(), quotes, 0, testutil.NewMockLogger())
	result, err := uc.Execute(ctx, receivedAt.Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExpiredQuotes)
	assert.Equal(t, quote.StatusReceived, q.Status())
}
