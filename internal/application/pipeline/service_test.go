package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/application/common/emailevent"
	deliveryusecases "vendorflow/internal/application/delivery/usecases"
	discoveryusecases "vendorflow/internal/application/discovery/usecases"
	"vendorflow/internal/application/discovery/webdiscovery"
	outreachusecases "vendorflow/internal/application/outreach/usecases"
	rankingusecases "vendorflow/internal/application/ranking/usecases"
	"vendorflow/internal/application/reply/quoteparser"
	replyusecases "vendorflow/internal/application/reply/usecases"
	selectionusecases "vendorflow/internal/application/selection/usecases"
	"vendorflow/internal/application/testutil"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	verificationusecases "vendorflow/internal/application/verification/usecases"
	"vendorflow/internal/application/verification/voicecaller"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/shared/events"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	apperrors "vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/services/markdown"
)

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]bool)}
}

func (l *memoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

type pipelineFixture struct {
	tickets       *testutil.MockTicketRepository
	conversations *testutil.MockConversationRepository
	vendors       *testutil.MockVendorRepository
	results       *testutil.MockDiscoveryRepository
	outreachRepo  *testutil.MockOutreachRepository
	mappings      *testutil.MockEmailMappingRepository
	quotes        *testutil.MockQuoteRepository
	callLogs      *testutil.MockCallLogRepository
	web           *testutil.FakeWebDiscovery
	caller        *testutil.FakeVoiceCaller
	sender        *testutil.FakeEmailSender
	parser        *testutil.FakeQuoteParser
	log           *testutil.MockLogger
	locker        *memoryLocker
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		tickets:       testutil.NewMockTicketRepository(),
		conversations: testutil.NewMockConversationRepository(),
		vendors:       testutil.NewMockVendorRepository(),
		results:       testutil.NewMockDiscoveryRepository(),
		outreachRepo:  testutil.NewMockOutreachRepository(),
		mappings:      testutil.NewMockEmailMappingRepository(),
		quotes:        testutil.NewMockQuoteRepository(),
		callLogs:      testutil.NewMockCallLogRepository(),
		web:           testutil.NewFakeWebDiscovery(),
		sender:        testutil.NewFakeEmailSender(),
		parser:        &testutil.FakeQuoteParser{},
		log:           testutil.NewMockLogger(),
		locker:        newMemoryLocker(),
	}
	f.caller = testutil.NewFakeVoiceCaller(&voicecaller.Call{
		Status:      voicecaller.CallEnded,
		EndedReason: "customer-ended-call",
		Transcript: voicecaller.TranscriptSource{Kind: voicecaller.TranscriptMessages, Messages: []voicecaller.TranscriptMessage{
			{Role: "assistant", Message: "Which email should we send the quote request to?"},
			{Role: "user", Message: "Send it to sales@acme.example please."},
		}},
	})

	f.web.Results = []webdiscovery.SearchResult{
		{URL: "https://acme.example", Title: "Acme Plumbing"},
		{URL: "https://bolt.example", Title: "Bolt Pipes"},
	}
	f.web.Submissions["https://acme.example"] = &webdiscovery.ExtractSubmission{
		Kind:   webdiscovery.SubmissionImmediate,
		Vendor: &webdiscovery.ExtractedVendor{BusinessName: "Acme Plumbing", Email: "info@acme.example", Phone: "(732) 733-2541"},
	}
	f.web.Submissions["https://bolt.example"] = &webdiscovery.ExtractSubmission{
		Kind:   webdiscovery.SubmissionImmediate,
		Vendor: &webdiscovery.ExtractedVendor{BusinessName: "Bolt Pipes", Email: "quotes@bolt.example"},
	}
	return f
}

func (f *pipelineFixture) service(publisher events.EventPublisher, cfg Config) *Service {
	advance := ticketusecases.NewAdvanceStatusUseCase(f.tickets, f.log)
	renderer := markdown.NewService()
	drafter := &testutil.FakeEmailDrafter{
		Solicitation: "Hello,\n\nCould you **quote** a kitchen sink leak repair?",
		Reply:        "Thanks, we received your quote.",
	}

	verifier := verificationusecases.NewVerifyContactUseCase(f.caller, f.callLogs, verificationusecases.VerifyContactConfig{
		PollInterval: time.Millisecond,
		Timeout:      time.Minute,
	}, f.log)
	ranker := rankingusecases.NewRankVendorsUseCase(f.tickets, f.quotes, f.vendors, f.outreachRepo, f.log)

	return NewService(UseCases{
		Discover: discoveryusecases.NewDiscoverVendorsUseCase(
			f.tickets, f.vendors, f.results, nil, f.web, advance, publisher,
			discoveryusecases.DiscoverVendorsConfig{
				SearchLimit:         8,
				ExtractPollInterval: time.Millisecond,
				ExtractTimeout:      time.Minute,
				SoftDeadline:        time.Minute,
			},
			f.log,
		),
		Outreach: outreachusecases.NewSendOutreachUseCase(
			f.tickets, f.conversations, f.results, f.vendors, f.outreachRepo, f.mappings,
			verifier, nil, drafter, renderer, f.sender, advance,
			outreachusecases.SendOutreachConfig{
				MaxVendors:  5,
				Expiry:      72 * time.Hour,
				FromAddress: "quotes@vendorflow.local",
				FromName:    "Vendorflow Maintenance",
				ReplyDomain: "vendorflow.local",
			},
			f.log,
		),
		Rank: ranker,
		Select: selectionusecases.NewSelectVendorUseCase(
			f.tickets, f.conversations, f.quotes, f.vendors, f.mappings, testutil.NewMockTransactor(),
			renderer, f.sender,
			selectionusecases.SelectVendorConfig{
				FromAddress: "quotes@vendorflow.local",
				FromName:    "Vendorflow Maintenance",
				ReplyDomain: "vendorflow.local",
			},
			f.log,
		),
		Delivery: deliveryusecases.NewHandleDeliveryEventUseCase(f.mappings, f.vendors, f.tickets, advance, f.log),
		Reply: replyusecases.NewHandleInboundReplyUseCase(
			f.tickets, f.conversations, f.vendors, f.outreachRepo, f.mappings, f.quotes,
			f.parser, drafter, renderer, f.sender, ranker, advance,
			replyusecases.HandleInboundReplyConfig{
				FromAddress: "quotes@vendorflow.local",
				FromName:    "Vendorflow Maintenance",
				ReplyDomain: "vendorflow.local",
			},
			f.log,
		),
	}, f.locker, cfg, f.log)
}

func (f *pipelineFixture) newTicket(t *testing.T) *ticket.Ticket {
	t.Helper()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)
	return tk
}

func TestService_FullPipeline(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	svc := f.service(nil, Config{})
	tk := f.newTicket(t)

	discovered, err := svc.DiscoverVendors(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, discovered.Candidates)
	assert.Equal(t, vo.StatusFindVendors, tk.Status())

	sent, err := svc.SendOutreachEmails(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, sent.Sent)
	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())

	// The phone call replaced the scraped address.
	solicitations := f.sender.SentTo("sales@acme.example")
	require.Len(t, solicitations, 1)
	assert.Empty(t, f.sender.SentTo("info@acme.example"))
	require.Len(t, f.sender.SentTo("quotes@bolt.example"), 1)

	delivered, err := svc.HandleEmailWebhook(ctx, emailevent.NewDeliveryEvent("wh-1", "email.delivered", emailevent.Delivery{
		Type:       emailevent.DeliveryDelivered,
		EmailID:    "email-1",
		OccurredAt: time.Now().UTC(),
	}))
	require.NoError(t, err)
	require.NotNil(t, delivered.Delivery)
	assert.Equal(t, deliveryusecases.OutcomeApplied, delivered.Delivery.Outcome)

	price := int64(50000)
	hours := 48
	f.parser.Result = &quoteparser.QuoteExtraction{HasQuote: true, Price: &price, Currency: "USD", EstimatedDeliveryTime: &hours}

	replied, err := svc.HandleEmailWebhook(ctx, emailevent.NewInboundEvent("wh-2", "email.received", emailevent.InboundEmail{
		EmailID:    "inbound-1",
		From:       "Acme Plumbing <sales@acme.example>",
		To:         []string{"quotes@vendorflow.local"},
		Subject:    "Re: " + solicitations[0].Subject,
		Text:       "We can fix it for $500 within 48 hours.",
		MessageID:  "<reply-1@acme.example>",
		InReplyTo:  solicitations[0].MessageID,
		ReceivedAt: time.Now().UTC(),
	}))
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, replyusecases.OutcomeQuoteCreated, replied.Reply.Outcome)
	assert.Equal(t, vo.StatusQuotesReceived, tk.Status())

	rankings, err := svc.RankVendors(ctx, tk.ID())
	require.NoError(t, err)
	require.Len(t, rankings.Rankings, 1)
	assert.Equal(t, replied.Reply.QuoteID, rankings.Rankings[0].QuoteID)
	assert.Equal(t, 1, rankings.Rankings[0].Rank)

	selected, err := svc.SelectVendor(ctx, tk.ID(), replied.Reply.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusQuotesAvailable, selected.TicketStatus)
	assert.True(t, selected.ConfirmationSent)

	q, _ := f.quotes.GetByID(ctx, replied.Reply.QuoteID)
	require.NotNil(t, q)
	assert.Equal(t, quote.StatusSelected, q.Status())
	assert.Equal(t, vo.QuoteStatusSelected, tk.QuoteStatus())
}

func TestService_HandleEmailWebhook_Unrecognized(t *testing.T) {
	f := newPipelineFixture()
	svc := f.service(nil, Config{})

	result, err := svc.HandleEmailWebhook(context.Background(), emailevent.NewUnrecognizedEvent("wh-9", "contact.created"))
	require.NoError(t, err)
	assert.True(t, result.Ignored)
	assert.True(t, f.log.HasMessage("INFO", "ignoring unrecognized email webhook"))
}

func TestService_HandleEmailWebhookAsync(t *testing.T) {
	inbound := func(ticketID string) emailevent.Event {
		return emailevent.NewInboundEvent("wh-5", "email.received", emailevent.InboundEmail{
			EmailID: "inbound-5",
			From:    "stranger@elsewhere.example",
			Subject: "Re: Quote request [Ticket #" + ticketID + "]",
			Text:    "Who is this?",
		})
	}

	t.Run("processes in the background", func(t *testing.T) {
		f := newPipelineFixture()
		svc := f.service(nil, Config{})
		tk := f.newTicket(t)

		var failed error
		ctx, cancel := context.WithCancel(context.Background())
		svc.HandleEmailWebhookAsync(ctx, inbound(tk.ID()), func(err error) { failed = err })
		cancel()
		svc.Wait()

		assert.NoError(t, failed)
		assert.True(t, f.log.HasMessage("INFO", "inbound email from unknown sender"))
	})

	t.Run("reports failures to the caller", func(t *testing.T) {
		f := newPipelineFixture()
		svc := f.service(nil, Config{})
		tk := f.newTicket(t)
		f.tickets.SetGetError(assert.AnError)

		var failed error
		svc.HandleEmailWebhookAsync(context.Background(), inbound(tk.ID()), func(err error) { failed = err })
		svc.Wait()

		assert.Error(t, failed)
		assert.True(t, f.log.HasMessage("ERROR", "failed to handle queued email webhook"))
	})
}

func TestService_RunLock(t *testing.T) {
	ctx := context.Background()

	t.Run("held lock rejects a second run", func(t *testing.T) {
		f := newPipelineFixture()
		svc := f.service(nil, Config{})
		tk := f.newTicket(t)

		unlock, ok, err := f.locker.TryLock(ctx, "discover:"+tk.ID(), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		defer unlock()

		_, err = svc.DiscoverVendors(ctx, tk.ID())
		require.Error(t, err)
		assert.True(t, apperrors.IsConflictError(err))
		assert.Empty(t, f.web.Queries)

		err = svc.StartDiscovery(ctx, tk.ID())
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("lock store outage does not block the run", func(t *testing.T) {
		f := newPipelineFixture()
		f.locker.err = errors.New("redis: connection refused")
		svc := f.service(nil, Config{})
		tk := f.newTicket(t)

		_, err := svc.DiscoverVendors(ctx, tk.ID())
		require.NoError(t, err)
		assert.True(t, f.log.HasMessage("WARN", "run lock unavailable, continuing without it"))
	})

	t.Run("lock is released after the run", func(t *testing.T) {
		f := newPipelineFixture()
		svc := f.service(nil, Config{})
		tk := f.newTicket(t)

		_, err := svc.DiscoverVendors(ctx, tk.ID())
		require.NoError(t, err)

		unlock, ok, err := f.locker.TryLock(ctx, "discover:"+tk.ID(), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		unlock()
	})
}

func TestService_StartDiscovery_RunsInBackground(t *testing.T) {
	f := newPipelineFixture()
	svc := f.service(nil, Config{})
	tk := f.newTicket(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.StartDiscovery(ctx, tk.ID()))
	// The caller's request ending must not stop the run.
	cancel()
	svc.Wait()

	assert.NotEmpty(t, tk.DiscoveryResultID())
	assert.Equal(t, vo.StatusFindVendors, tk.Status())

	unlock, ok, err := f.locker.TryLock(context.Background(), "discover:"+tk.ID(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "background run releases its lock")
	unlock()
}

func TestService_AutoOutreach(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	dispatcher := events.NewInMemoryEventDispatcher(16, f.log)
	svc := f.service(dispatcher, Config{AutoOutreach: true})
	require.NoError(t, svc.SubscribeAutoOutreach(dispatcher))
	require.NoError(t, dispatcher.Start())
	tk := f.newTicket(t)

	_, err := svc.DiscoverVendors(ctx, tk.ID())
	require.NoError(t, err)
	require.NoError(t, dispatcher.Stop())

	assert.Len(t, f.sender.Sent, 2)
	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())
}

func TestService_AutoOutreachDisabled(t *testing.T) {
	f := newPipelineFixture()
	dispatcher := events.NewInMemoryEventDispatcher(16, f.log)
	svc := f.service(dispatcher, Config{})
	require.NoError(t, svc.SubscribeAutoOutreach(dispatcher))
	require.NoError(t, dispatcher.Start())
	tk := f.newTicket(t)

	_, err := svc.DiscoverVendors(context.Background(), tk.ID())
	require.NoError(t, err)
	require.NoError(t, dispatcher.Stop())

	assert.Empty(t, f.sender.Sent)
}
