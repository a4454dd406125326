package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendorflow/internal/application/discovery/vendormatcher"
	"vendorflow/internal/application/discovery/webdiscovery"
	"vendorflow/internal/application/testutil"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/shared/events"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	apperrors "vendorflow/internal/shared/errors"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishAll(list []events.DomainEvent) error {
	for _, e := range list {
		_ = p.Publish(e)
	}
	return nil
}

type discoveryFixture struct {
	tickets   *testutil.MockTicketRepository
	vendors   *testutil.MockVendorRepository
	results   *testutil.MockDiscoveryRepository
	web       *testutil.FakeWebDiscovery
	publisher *recordingPublisher
}

func newDiscoveryFixture() *discoveryFixture {
	return &discoveryFixture{
		tickets:   testutil.NewMockTicketRepository(),
		vendors:   testutil.NewMockVendorRepository(),
		results:   testutil.NewMockDiscoveryRepository(),
		web:       testutil.NewFakeWebDiscovery(),
		publisher: &recordingPublisher{},
	}
}

func (f *discoveryFixture) useCase(matcher vendormatcher.VendorMatcher) *DiscoverVendorsUseCase {
	log := testutil.NewMockLogger()
	return NewDiscoverVendorsUseCase(
		f.tickets,
		f.vendors,
		f.results,
		matcher,
		f.web,
		ticketusecases.NewAdvanceStatusUseCase(f.tickets, log),
		f.publisher,
		DiscoverVendorsConfig{
			SearchLimit:         8,
			MatchLimit:          5,
			ExtractPollInterval: time.Millisecond,
			ExtractTimeout:      time.Minute,
			SoftDeadline:        10 * time.Minute,
		},
		log,
	)
}

func TestDiscoverVendorsUseCase_DatabaseMatch(t *testing.T) {
	ctx := context.Background()
	f := newDiscoveryFixture()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)
	known := testutil.NewTestVendor(t, "Acme Plumbing", "sales@acme.com", "732-733-2541")
	f.vendors.AddVendor(known)

	matcher := &testutil.FakeVendorMatcher{
		Vector:  []float32{0.1, 0.2},
		Matches: []vendormatcher.Match{{VendorID: known.ID(), Score: 0.91}, {VendorID: "gone", Score: 0.8}},
	}

	result, err := f.useCase(matcher).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)

	assert.Equal(t, discovery.SourceDatabase, result.Source)
	assert.Equal(t, discovery.StatusCompleted, result.Status)
	assert.Equal(t, 1, result.Candidates)
	assert.Empty(t, f.web.Queries, "no web search when known vendors match")
	assert.Equal(t, []float32{0.1, 0.2}, tk.Embedding())
	assert.Equal(t, result.ResultID, tk.DiscoveryResultID())
	assert.Equal(t, vo.StatusFindVendors, tk.Status())

	stored, _ := f.results.GetByID(ctx, result.ResultID)
	require.NotNil(t, stored)
	assert.Equal(t, known.ID(), stored.Candidates()[0].VendorID)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, discovery.EventTypeCompleted, f.publisher.events[0].GetEventType())

	// The cached embedding is reused on the next run.
	_, err = f.useCase(matcher).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, 1, matcher.EmbedCalls)
}

func TestDiscoverVendorsUseCase_WebSearch(t *testing.T) {
	ctx := context.Background()
	f := newDiscoveryFixture()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)

	f.web.Results = []webdiscovery.SearchResult{
		{URL: "https://acme.example", Title: "Acme Plumbing | Emergency Repairs"},
		{URL: "https://bolt.example", Title: "Bolt Pipes"},
		{URL: "https://directory.example/list", Title: "best PLUMBERS near you - Directory", Description: "Top rated plumbers"},
	}
	f.web.Submissions["https://acme.example"] = &webdiscovery.ExtractSubmission{
		Kind:   webdiscovery.SubmissionImmediate,
		Vendor: &webdiscovery.ExtractedVendor{BusinessName: "Acme Plumbing", Email: "Sales@Acme.example", Phone: "(732) 733-2541"},
	}
	f.web.Submissions["https://bolt.example"] = &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionJob, JobID: "job-1"}
	f.web.Statuses["job-1"] = []*webdiscovery.ExtractStatus{
		{State: webdiscovery.JobProcessing},
		{State: webdiscovery.JobCompleted, Vendor: &webdiscovery.ExtractedVendor{BusinessName: "Bolt Pipes", Email: "quotes@bolt.example"}},
	}

	result, err := f.useCase(nil).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)

	assert.Equal(t, discovery.SourceWeb, result.Source)
	assert.Equal(t, discovery.StatusCompleted, result.Status)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.WithEmail)
	assert.Equal(t, 1, result.Degraded)
	assert.Equal(t, []string{"plumbing leak sink near Newark, NJ"}, f.web.Queries)
	assert.Equal(t, 2, f.vendors.Count())

	stored, _ := f.results.GetByID(ctx, result.ResultID)
	require.NotNil(t, stored)
	candidates := stored.Candidates()
	assert.Equal(t, "sales@acme.example", candidates[0].Email)
	assert.NotEmpty(t, candidates[0].VendorID)
	assert.Equal(t, "quotes@bolt.example", candidates[1].Email)
	assert.Equal(t, "Best Plumbers Near You", candidates[2].BusinessName)
	assert.Equal(t, "Top rated plumbers", candidates[2].Description)
	assert.Equal(t, 3, candidates[2].Position)
	assert.True(t, candidates[2].Degraded)

	// One persisted snapshot per URL, then the final status.
	assert.Equal(t, []int{1, 2, 3, 3}, f.results.UpdateCandidateCounts())
}

func TestDiscoverVendorsUseCase_PerURLIsolation(t *testing.T) {
	ctx := context.Background()
	f := newDiscoveryFixture()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)

	f.web.Results = []webdiscovery.SearchResult{
		{URL: "https://broken.example", Title: "Broken Site"},
		{URL: "https://failed.example", Title: "Failed Job"},
		{URL: "https://good.example", Title: "Good Plumbing"},
	}
	f.web.ExtractErrs["https://broken.example"] = errors.New("502 bad gateway")
	f.web.Submissions["https://failed.example"] = &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionJob, JobID: "job-f"}
	f.web.Statuses["job-f"] = []*webdiscovery.ExtractStatus{{State: webdiscovery.JobFailed, Error: "blocked"}}
	f.web.Submissions["https://good.example"] = &webdiscovery.ExtractSubmission{
		Kind:   webdiscovery.SubmissionImmediate,
		Vendor: &webdiscovery.ExtractedVendor{Email: "hello@good.example"},
	}

	result, err := f.useCase(nil).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.Degraded)
	assert.Equal(t, 1, result.WithEmail)

	stored, _ := f.results.GetByID(ctx, result.ResultID)
	assert.Equal(t, "Good Plumbing", stored.Candidates()[2].BusinessName)
}

func TestDiscoverVendorsUseCase_StuckAndCancelledJobs(t *testing.T) {
	ctx := context.Background()
	f := newDiscoveryFixture()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)

	f.web.Results = []webdiscovery.SearchResult{
		{URL: "https://stuck.example", Title: "Stuck Job"},
		{URL: "https://cancelled.example", Title: "Cancelled Job"},
		{URL: "https://good.example", Title: "Good Plumbing"},
	}
	// job-s has no scripted statuses, so it reports processing forever.
	f.web.Submissions["https://stuck.example"] = &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionJob, JobID: "job-s"}
	f.web.Submissions["https://cancelled.example"] = &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionJob, JobID: "job-c"}
	f.web.Statuses["job-c"] = []*webdiscovery.ExtractStatus{
		{State: webdiscovery.JobProcessing},
		{State: webdiscovery.JobCancelled},
	}
	f.web.Submissions["https://good.example"] = &webdiscovery.ExtractSubmission{
		Kind:   webdiscovery.SubmissionImmediate,
		Vendor: &webdiscovery.ExtractedVendor{Email: "hello@good.example"},
	}

	uc := f.useCase(nil)
	uc.cfg.SoftDeadline = 24 * time.Hour
	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time {
		clock = clock.Add(20 * time.Second)
		return clock
	}

	result, err := uc.Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, discovery.StatusCompleted, result.Status)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.Degraded)
	assert.Equal(t, 1, result.WithEmail)
	assert.Equal(t, []string{"https://stuck.example", "https://cancelled.example", "https://good.example"}, f.web.Extracted)

	stored, _ := f.results.GetByID(ctx, result.ResultID)
	require.Len(t, stored.Candidates(), 3)
	assert.Equal(t, "Stuck Job", stored.Candidates()[0].BusinessName)
	assert.Empty(t, stored.Candidates()[0].Email)
	assert.Equal(t, "Cancelled Job", stored.Candidates()[1].BusinessName)
	assert.Equal(t, "hello@good.example", stored.Candidates()[2].Email)
}

func TestDiscoverVendorsUseCase_SoftDeadline(t *testing.T) {
	ctx := context.Background()
	f := newDiscoveryFixture()
	tk := testutil.NewTestTicket(t)
	f.tickets.AddTicket(tk)

	clock := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	f.web.OnExtract = func(string) { clock = clock.Add(5 * time.Minute) }
	f.web.Results = []webdiscovery.SearchResult{
		{URL: "https://one.example", Title: "One"},
		{URL: "https://two.example", Title: "Two"},
		{URL: "https://three.example", Title: "Three"},
	}

	uc := f.useCase(nil)
	uc.cfg.SoftDeadline = 6 * time.Minute
	uc.now = func() time.Time { return clock }

	result, err := uc.Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
	require.NoError(t, err)
	assert.Equal(t, discovery.StatusTimedOut, result.Status)
	assert.Equal(t, 2, result.Candidates)
	assert.Contains(t, result.TimeoutNote, "after 2 of 3 results")

	stored, _ := f.results.GetByID(ctx, result.ResultID)
	assert.Equal(t, discovery.StatusTimedOut, stored.Status())
	assert.NotEmpty(t, stored.TimeoutNote())
}

func TestDiscoverVendorsUseCase_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown ticket", func(t *testing.T) {
		f := newDiscoveryFixture()
		_, err := f.useCase(nil).Execute(ctx, DiscoverVendorsCommand{TicketID: "missing1234"})
		assert.True(t, apperrors.IsNotFoundError(err))
	})

	t.Run("search failure fails the run", func(t *testing.T) {
		f := newDiscoveryFixture()
		tk := testutil.NewTestTicket(t)
		f.tickets.AddTicket(tk)
		f.web.SearchErr = errors.New("quota exceeded")

		_, err := f.useCase(nil).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
		assert.True(t, apperrors.IsExternalServiceError(err))

		stored, _ := f.results.GetByID(ctx, tk.DiscoveryResultID())
		require.NotNil(t, stored)
		assert.Equal(t, discovery.StatusFailed, stored.Status())
		assert.Empty(t, f.publisher.events)
	})

	t.Run("matcher failure falls back to the web", func(t *testing.T) {
		f := newDiscoveryFixture()
		tk := testutil.NewTestTicket(t)
		f.tickets.AddTicket(tk)
		matcher := &testutil.FakeVendorMatcher{EmbedErr: errors.New("embedding service down")}

		result, err := f.useCase(matcher).Execute(ctx, DiscoverVendorsCommand{TicketID: tk.ID()})
		require.NoError(t, err)
		assert.Equal(t, discovery.SourceWeb, result.Source)
		assert.Len(t, f.web.Queries, 1)
	})
}
