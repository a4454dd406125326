package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/application/testutil"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	verificationusecases "vendorflow/internal/application/verification/usecases"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	apperrors "vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/services/markdown"
)

type fakeVerifier struct {
	mu       sync.Mutex
	email    string
	commands []verificationusecases.VerifyContactCommand
}

func (f *fakeVerifier) Execute(ctx context.Context, cmd verificationusecases.VerifyContactCommand) *verificationusecases.VerifyContactResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if f.email == "" {
		return &verificationusecases.VerifyContactResult{Success: true, Confidence: verificationusecases.ConfidenceLow}
	}
	return &verificationusecases.VerifyContactResult{Success: true, VerifiedEmail: f.email, Confidence: verificationusecases.ConfidenceHigh}
}

type fixedBudget struct {
	allowed bool
}

func (b fixedBudget) Allow(ctx context.Context) (bool, error) {
	return b.allowed, nil
}

type outreachFixture struct {
	tickets       *testutil.MockTicketRepository
	conversations *testutil.MockConversationRepository
	results       *testutil.MockDiscoveryRepository
	vendors       *testutil.MockVendorRepository
	outreach      *testutil.MockOutreachRepository
	mappings      *testutil.MockEmailMappingRepository
	drafter       *testutil.FakeEmailDrafter
	sender        *testutil.FakeEmailSender
	verifier      *fakeVerifier
	budget        CallBudget
	cfg           SendOutreachConfig
}

func newOutreachFixture() *outreachFixture {
	return &outreachFixture{
		tickets:       testutil.NewMockTicketRepository(),
		conversations: testutil.NewMockConversationRepository(),
		results:       testutil.NewMockDiscoveryRepository(),
		vendors:       testutil.NewMockVendorRepository(),
		outreach:      testutil.NewMockOutreachRepository(),
		mappings:      testutil.NewMockEmailMappingRepository(),
		drafter:       &testutil.FakeEmailDrafter{Solicitation: "Hi there,\n\nCould you **quote** this job?"},
		sender:        testutil.NewFakeEmailSender(),
		verifier:      &fakeVerifier{},
		cfg: SendOutreachConfig{
			MaxVendors:  3,
			Expiry:      72 * time.Hour,
			FromAddress: "quotes@vendorflow.local",
			FromName:    "Vendorflow Maintenance",
			ReplyDomain: "vendorflow.local",
		},
	}
}

func (f *outreachFixture) useCase() *SendOutreachUseCase {
	log := testutil.NewMockLogger()
	return NewSendOutreachUseCase(
		f.tickets,
		f.conversations,
		f.results,
		f.vendors,
		f.outreach,
		f.mappings,
		f.verifier,
		f.budget,
		f.drafter,
		markdown.NewService(),
		f.sender,
		ticketusecases.NewAdvanceStatusUseCase(f.tickets, log),
		f.cfg,
		log,
	)
}

// seed stores a find_vendors ticket whose discovery result holds candidates.
func (f *outreachFixture) seed(t *testing.T, candidates ...discovery.Candidate) *ticket.Ticket {
	t.Helper()

	tk := testutil.NewTestTicketWithStatus(t, vo.StatusFindVendors, vo.QuoteStatusNone)
	result, err := discovery.NewDiscoveryResult(tk.ID(), discovery.SourceWeb)
	require.NoError(t, err)
	for i, c := range candidates {
		c.Position = i + 1
		require.NoError(t, result.AppendCandidate(c))
	}
	result.Complete()
	f.results.AddResult(result)
	tk.AttachDiscoveryResult(result.ID())
	f.tickets.AddTicket(tk)
	return tk
}

func TestSendOutreachUseCase_SendsToEachCandidate(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture()
	tk := f.seed(t,
		discovery.Candidate{BusinessName: "Acme Plumbing", Email: "info@acme.example", Phone: "(732) 733-2541"},
		discovery.Candidate{BusinessName: "Directory Listing", Degraded: true},
		discovery.Candidate{BusinessName: "Bolt Pipes", Email: "hello@bolt.example"},
	)
	f.verifier.email = "sales@acme.example"

	result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Details, 3)
	assert.True(t, result.Details[0].Verified)
	assert.Equal(t, "sales@acme.example", result.Details[0].Email)
	assert.Equal(t, DetailSkipped, result.Details[1].Status)
	assert.False(t, result.Details[2].Verified)

	require.Len(t, f.verifier.commands, 1, "only candidates with a NANP phone are called")
	assert.Equal(t, "info@acme.example", f.verifier.commands[0].OriginalEmail)

	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())
	assert.Equal(t, vo.QuoteStatusAwaiting, tk.QuoteStatus())
	assert.Equal(t, 1, f.tickets.UpdateCount(), "ticket transitions once per batch")

	acme := f.sender.SentTo("sales@acme.example")
	require.Len(t, acme, 1)
	msg := acme[0]
	assert.Equal(t, "Quote request: Leaking kitchen sink [Ticket #"+tk.ID()+"]", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.MessageID, "<ticket-"+tk.ID()+"."))
	assert.True(t, strings.HasSuffix(msg.MessageID, "@vendorflow.local>"))
	assert.Contains(t, msg.HTML, "<strong>quote</strong>")
	assert.Equal(t, "quotes@vendorflow.local", msg.FromAddress)

	assert.Equal(t, 2, f.mappings.Count())
	records := f.outreach.All()
	require.Len(t, records, 2)
	assert.Equal(t, outreach.StatusSent, records[0].Status())
	assert.Equal(t, 72*time.Hour, records[0].ExpiresAt().Sub(records[0].EmailSentAt()))

	messages, _ := f.conversations.ListByTicket(ctx, tk.ID())
	require.Len(t, messages, 2)
	assert.Equal(t, ticket.DirectionOutbound, messages[0].Direction())

	stored, _ := f.vendors.GetByEmail(ctx, "sales@acme.example")
	require.NotNil(t, stored, "verified email replaces the original one")
}

func TestSendOutreachUseCase_PerVendorIsolation(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture()
	tk := f.seed(t,
		discovery.Candidate{BusinessName: "Flaky Co", Email: "flaky@flaky.example"},
		discovery.Candidate{BusinessName: "Bolt Pipes", Email: "hello@bolt.example"},
	)
	f.sender.FailFor["flaky@flaky.example"] = errors.New("422 invalid recipient")

	result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Details[0].Reason, "invalid recipient")
	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())
	assert.Len(t, f.outreach.All(), 1)
}

func TestSendOutreachUseCase_AllSendsFailStillTransitions(t *testing.T) {
	f := newOutreachFixture()
	tk := f.seed(t, discovery.Candidate{BusinessName: "Acme", Email: "a@acme.example"})
	f.sender.Err = errors.New("provider down")

	result, err := f.useCase().Execute(context.Background(), SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, vo.StatusRequestedForInformation, tk.Status())
}

func TestSendOutreachUseCase_SkipsSuppressedVendor(t *testing.T) {
	ctx := context.Background()
	f := newOutreachFixture()
	bounced := testutil.NewTestVendor(t, "Bounced Co", "gone@bounced.example", "")
	bounced.MarkBounced("mailbox does not exist")
	f.vendors.AddVendor(bounced)
	tk := f.seed(t, discovery.Candidate{BusinessName: "Bounced Co", Email: "gone@bounced.example", VendorID: bounced.ID()})

	result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Details[0].Reason, string(vendor.EmailStatusBounced))
	assert.Empty(t, f.sender.Sent)
}

func TestSendOutreachUseCase_Limits(t *testing.T) {
	ctx := context.Background()

	t.Run("max vendors", func(t *testing.T) {
		f := newOutreachFixture()
		f.cfg.MaxVendors = 1
		tk := f.seed(t,
			discovery.Candidate{BusinessName: "Acme", Email: "a@acme.example"},
			discovery.Candidate{BusinessName: "Bolt", Email: "b@bolt.example"},
		)

		result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Sent)
		assert.Len(t, f.sender.Sent, 1)
	})

	t.Run("suppressed vendor does not use up the cap", func(t *testing.T) {
		f := newOutreachFixture()
		f.cfg.MaxVendors = 1
		bounced := testutil.NewTestVendor(t, "Bounced Co", "gone@bounced.example", "")
		bounced.MarkBounced("mailbox does not exist")
		f.vendors.AddVendor(bounced)
		tk := f.seed(t,
			discovery.Candidate{BusinessName: "Bounced Co", Email: "gone@bounced.example", VendorID: bounced.ID()},
			discovery.Candidate{BusinessName: "Bolt", Email: "b@bolt.example"},
			discovery.Candidate{BusinessName: "Cove", Email: "c@cove.example"},
		)

		result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Sent)
		require.Len(t, f.sender.Sent, 1)
		assert.Equal(t, "b@bolt.example", f.sender.Sent[0].To)
	})

	t.Run("rerun reaches candidates beyond the first batch", func(t *testing.T) {
		f := newOutreachFixture()
		f.cfg.MaxVendors = 1
		tk := f.seed(t,
			discovery.Candidate{BusinessName: "Acme", Email: "a@acme.example"},
			discovery.Candidate{BusinessName: "Bolt", Email: "b@bolt.example"},
		)
		uc := f.useCase()

		_, err := uc.Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		second, err := uc.Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)

		assert.Equal(t, 1, second.Skipped)
		assert.Equal(t, 1, second.Sent)
		require.Len(t, f.sender.Sent, 2)
		assert.Equal(t, "b@bolt.example", f.sender.Sent[1].To)
	})

	t.Run("exhausted call budget skips verification", func(t *testing.T) {
		f := newOutreachFixture()
		f.budget = fixedBudget{allowed: false}
		f.verifier.email = "sales@acme.example"
		tk := f.seed(t, discovery.Candidate{BusinessName: "Acme", Email: "info@acme.example", Phone: "732-733-2541"})

		result, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		assert.Empty(t, f.verifier.commands)
		assert.Equal(t, "info@acme.example", result.Details[0].Email)
	})

	t.Run("rerun does not contact the same vendor twice", func(t *testing.T) {
		f := newOutreachFixture()
		tk := f.seed(t, discovery.Candidate{BusinessName: "Acme", Email: "a@acme.example"})
		uc := f.useCase()

		_, err := uc.Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		second, err := uc.Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
		require.NoError(t, err)

		assert.Equal(t, 0, second.Sent)
		assert.Equal(t, 1, second.Skipped)
		assert.Len(t, f.sender.Sent, 1)
	})
}

func TestSendOutreachUseCase_FallbackBody(t *testing.T) {
	f := newOutreachFixture()
	f.drafter.Solicitation = ""
	f.drafter.Err = errors.New("llm timeout")
	tk := f.seed(t, discovery.Candidate{BusinessName: "Acme Plumbing", Email: "a@acme.example"})

	_, err := f.useCase().Execute(context.Background(), SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)

	require.Len(t, f.sender.Sent, 1)
	msg := f.sender.Sent[0]
	assert.Contains(t, msg.HTML, "<strong>Leaking kitchen sink</strong>")
	assert.Contains(t, msg.HTML, "Hello Acme Plumbing")
	assert.Contains(t, msg.Text, "Location: Newark, NJ")
}

func TestSendOutreachUseCase_HTMLDraftGetsPlainTextPart(t *testing.T) {
	f := newOutreachFixture()
	f.drafter.Solicitation = "<p>Hello Acme,</p><p>Could you <strong>quote</strong> this job?</p>"
	tk := f.seed(t, discovery.Candidate{BusinessName: "Acme Plumbing", Email: "a@acme.example"})

	_, err := f.useCase().Execute(context.Background(), SendOutreachCommand{TicketID: tk.ID()})
	require.NoError(t, err)

	require.Len(t, f.sender.Sent, 1)
	msg := f.sender.Sent[0]
	assert.Contains(t, msg.HTML, "<strong>quote</strong>")
	assert.Equal(t, "Hello Acme,\nCould you quote this job?", msg.Text)
}

func TestSendOutreachUseCase_Errors(t *testing.T) {
	ctx := context.Background()

	f := newOutreachFixture()
	_, err := f.useCase().Execute(ctx, SendOutreachCommand{TicketID: "missing1234"})
	assert.True(t, apperrors.IsNotFoundError(err))

	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)
	_, err = f.useCase().Execute(ctx, SendOutreachCommand{TicketID: tk.ID()})
	assert.True(t, apperrors.IsValidationError(err))
}
