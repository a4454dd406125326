package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// Each connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return gdb
}

func newTicket(t *testing.T) *ticket.Ticket {
	t.Helper()
	tk, err := ticket.NewTicket("owner@example.com", "Leaking kitchen sink", "Water under the sink",
		"plumbing", []string{"leak", "sink"}, vo.UrgencyHigh, "Newark, NJ")
	require.NoError(t, err)
	return tk
}

func TestTicketRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(setupTestDB(t))

	t.Run("missing ticket is nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "doesnotexist")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("round trip keeps tags and embedding", func(t *testing.T) {
		tk := newTicket(t)
		tk.CacheEmbedding([]float32{0.25, -0.5})
		require.NoError(t, repo.Save(ctx, tk))

		got, err := repo.GetByID(ctx, tk.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, tk.Title(), got.Title())
		assert.Equal(t, []string{"leak", "sink"}, got.Tags())
		assert.Equal(t, []float32{0.25, -0.5}, got.Embedding())
		assert.Equal(t, vo.StatusPending, got.Status())
		assert.Equal(t, vo.QuoteStatusNone, got.QuoteStatus())
	})

	t.Run("update persists status and selection", func(t *testing.T) {
		tk := newTicket(t)
		require.NoError(t, repo.Save(ctx, tk))

		_, err := tk.AdvanceTo(vo.StatusFindVendors)
		require.NoError(t, err)
		_, err = tk.AdvanceTo(vo.StatusRequestedForInformation)
		require.NoError(t, err)
		scheduled := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
		require.NoError(t, tk.RecordSelection("vendor1234", "quote12345", &scheduled))
		require.NoError(t, repo.Update(ctx, tk))

		got, err := repo.GetByID(ctx, tk.ID())
		require.NoError(t, err)
		assert.Equal(t, vo.StatusScheduled, got.Status())
		assert.Equal(t, vo.QuoteStatusSelected, got.QuoteStatus())
		assert.Equal(t, "quote12345", got.SelectedVendorQuoteID())
		require.NotNil(t, got.ScheduledDate())
		assert.True(t, scheduled.Equal(*got.ScheduledDate()))
	})
}

func TestConversationRepository_ListByTicket(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepository(setupTestDB(t))

	first, err := ticket.NewConversationMessage("ticket1234", "vendor1234", ticket.DirectionOutbound,
		"quotes@vendorflow.local", "sales@acme.example", "Quote request", "Please quote", "email-1")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, first))
	time.Sleep(time.Millisecond)
	second, err := ticket.NewConversationMessage("ticket1234", "vendor1234", ticket.DirectionInbound,
		"sales@acme.example", "quotes@vendorflow.local", "Re: Quote request", "$500", "inbound-1")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, second))

	messages, err := repo.ListByTicket(ctx, "ticket1234")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, ticket.DirectionOutbound, messages[0].Direction())
	assert.Equal(t, ticket.DirectionInbound, messages[1].Direction())
}

func TestVendorRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewVendorRepository(setupTestDB(t))

	rating := 4.5
	v, err := vendor.NewVendor("Acme Plumbing", "Sales@Acme.example", "732-733-2541", "plumbing", "", &rating)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, v))

	got, err := repo.GetByEmail(ctx, "SALES@acme.example ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, v.ID(), got.ID())
	require.NotNil(t, got.Rating())
	assert.InDelta(t, 4.5, *got.Rating(), 1e-9)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup, err := vendor.NewVendor("Acme Again", "sales@acme.example", "", "plumbing", "", nil)
		require.NoError(t, err)
		assert.Error(t, repo.Save(ctx, dup))
	})

	t.Run("suppression survives a round trip", func(t *testing.T) {
		require.True(t, got.MarkBounced("mailbox does not exist"))
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.GetByID(ctx, v.ID())
		require.NoError(t, err)
		assert.Equal(t, vendor.EmailStatusBounced, again.EmailStatus())
		assert.Equal(t, "mailbox does not exist", again.LastEmailError())
		assert.False(t, again.CanReceiveEmail())
	})

	t.Run("get by ids skips unknown ids", func(t *testing.T) {
		found, err := repo.GetByIDs(ctx, []string{v.ID(), "unknown123"})
		require.NoError(t, err)
		assert.Len(t, found, 1)
		assert.Contains(t, found, v.ID())
	})
}

func TestDiscoveryResultRepository_Candidates(t *testing.T) {
	ctx := context.Background()
	repo := NewDiscoveryResultRepository(setupTestDB(t))

	result, err := discovery.NewDiscoveryResult("ticket1234", discovery.SourceWeb)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, result))

	require.NoError(t, result.AppendCandidate(discovery.Candidate{BusinessName: "Acme Plumbing", Email: "sales@acme.example", Position: 1}))
	require.NoError(t, result.AppendCandidate(discovery.Candidate{BusinessName: "Directory", Degraded: true, Position: 2}))
	result.TimeOut("soft deadline reached after 2 candidates")
	require.NoError(t, repo.Update(ctx, result))

	got, err := repo.GetByID(ctx, result.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, discovery.StatusTimedOut, got.Status())
	assert.Equal(t, "soft deadline reached after 2 candidates", got.TimeoutNote())
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "Acme Plumbing", got.Candidates()[0].BusinessName)
	assert.True(t, got.Candidates()[1].Degraded)
}

func TestOutreachRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOutreachRepository(setupTestDB(t))
	sentAt := time.Now().UTC().Add(-96 * time.Hour)

	old, err := outreach.NewVendorOutreach("ticket1234", "vendor1234", "email-1", sentAt, 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, old))
	fresh, err := outreach.NewVendorOutreach("ticket1234", "vendor1234", "email-2", time.Now().UTC(), 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, fresh))

	t.Run("find active returns the newest open record", func(t *testing.T) {
		active, err := repo.FindActive(ctx, "ticket1234", "vendor1234")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, fresh.ID(), active.ID())
	})

	t.Run("list expired", func(t *testing.T) {
		expired, err := repo.ListExpired(ctx, time.Now().UTC(), 10)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, old.ID(), expired[0].ID())
	})

	t.Run("responded records are not active", func(t *testing.T) {
		require.True(t, fresh.MarkResponded(time.Now().UTC()))
		require.NoError(t, repo.Update(ctx, fresh))

		active, err := repo.FindActive(ctx, "ticket1234", "vendor1234")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, old.ID(), active.ID())
	})
}

func TestEmailMappingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailMappingRepository(setupTestDB(t))
	sentAt := time.Now().UTC().Add(-time.Hour)

	m, err := outreach.NewEmailMapping("email-1", "ticket1234", "vendor1234", "<abc@vendorflow.local>", sentAt)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, m))

	byMessage, err := repo.GetByMessageID(ctx, "<abc@vendorflow.local>")
	require.NoError(t, err)
	require.NotNil(t, byMessage)
	assert.Equal(t, "email-1", byMessage.EmailID())

	changed, err := byMessage.Record(outreach.DeliveryBounced, time.Now().UTC(), "mailbox full")
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, repo.Update(ctx, byMessage))

	got, err := repo.GetByEmailID(ctx, "email-1")
	require.NoError(t, err)
	assert.Equal(t, outreach.DeliveryBounced, got.Status())
	assert.Equal(t, "mailbox full", got.BounceReason())

	missing, err := repo.GetByMessageID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuoteRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQuoteRepository(setupTestDB(t))

	scheduled := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	first, err := quote.NewVendorQuote("ticket1234", "vendor1234", "outreach12", quote.Terms{
		Price: 50000, Currency: "usd", EstimatedDeliveryTime: 48, ScheduledDate: &scheduled,
	}, "We can do $500", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	time.Sleep(time.Millisecond)
	second, err := quote.NewVendorQuote("ticket1234", "vendor5678", "outreach34", quote.Terms{
		Price: 42000, EstimatedDeliveryTime: 72,
	}, "$420", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	require.NoError(t, repo.UpdateScores(ctx, map[string]float64{first.ID(): 0.8, second.ID(): 0.6}))

	quotes, err := repo.ListByTicket(ctx, "ticket1234")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, first.ID(), quotes[0].ID())
	assert.Equal(t, "USD", quotes[0].Currency())
	require.NotNil(t, quotes[0].Score())
	assert.InDelta(t, 0.8, *quotes[0].Score(), 1e-9)
	require.NotNil(t, quotes[0].ScheduledDate())
	assert.True(t, scheduled.Equal(*quotes[0].ScheduledDate()))

	t.Run("selection inside a transaction", func(t *testing.T) {
		gdb := repo.db
		tm := db.NewTransactionManager(gdb)
		err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
			q, err := repo.GetByID(txCtx, first.ID())
			if err != nil {
				return err
			}
			if err := q.Select(); err != nil {
				return err
			}
			return repo.Update(txCtx, q)
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, first.ID())
		require.NoError(t, err)
		assert.Equal(t, quote.StatusSelected, got.Status())
		require.NotNil(t, got.Score(), "score survives a full update")
	})
}

func TestQuoteRepository_ListReceivedBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewQuoteRepository(setupTestDB(t))
	now := time.Now().UTC()

	old, err := quote.NewVendorQuote("ticket5678", "vendor1234", "outreach12", quote.Terms{Price: 100}, "", now.Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, old))
	oldSelected, err := quote.NewVendorQuote("ticket5678", "vendor5678", "outreach34", quote.Terms{Price: 200}, "", now.Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, oldSelected.Select())
	require.NoError(t, repo.Save(ctx, oldSelected))
	recent, err := quote.NewVendorQuote("ticket5678", "vendor9012", "outreach56", quote.Terms{Price: 300}, "", now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, recent))

	stale, err := repo.ListReceivedBefore(ctx, now.Add(-30*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID(), stale[0].ID())
}

func TestCallLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCallLogRepository(setupTestDB(t))

	pending, err := calllog.NewVendorCallLog("call-1", "ticket1234", "vendor1234", "+17327332541", "info@acme.example")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))
	done, err := calllog.NewVendorCallLog("call-2", "ticket1234", "vendor5678", "+17327330000", "")
	require.NoError(t, err)
	transcript := "Use sales@bolt.example"
	email := "sales@bolt.example"
	done.Finish(calllog.Outcome{Transcript: &transcript, VerifiedEmail: &email, Analysis: []byte(`{"summary":"ok"}`)})
	require.NoError(t, repo.Save(ctx, done))

	list, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "call-1", list[0].CallID())

	got, err := repo.GetByCallID(ctx, "call-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, calllog.StatusEnded, got.Status())
	assert.Equal(t, "sales@bolt.example", got.VerifiedEmail())
	assert.JSONEq(t, `{"summary":"ok"}`, string(got.Analysis()))

	got.RecordPoll()
	got.MarkPollError("ignored once ended")
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByCallID(ctx, "call-2")
	require.NoError(t, err)
	assert.Equal(t, 1, again.PollAttempts())
	assert.Equal(t, calllog.StatusEnded, again.Status())
}
