package testutil

import (
	"context"
	"fmt"
	"sync"

	"vendorflow/internal/application/discovery/vendormatcher"
	"vendorflow/internal/application/discovery/webdiscovery"
	"vendorflow/internal/application/outreach/emaildrafter"
	"vendorflow/internal/application/outreach/emailsender"
	"vendorflow/internal/application/reply/quoteparser"
	"vendorflow/internal/application/verification/voicecaller"
)

// FakeWebDiscovery serves canned search results and extraction responses.
// Job statuses are returned in order; the last one repeats.
type FakeWebDiscovery struct {
	mu          sync.Mutex
	Results     []webdiscovery.SearchResult
	SearchErr   error
	Submissions map[string]*webdiscovery.ExtractSubmission
	ExtractErrs map[string]error
	Statuses    map[string][]*webdiscovery.ExtractStatus
	StatusErrs  map[string]error
	// OnExtract runs before each extraction, e.g. to advance a fake clock.
	OnExtract func(url string)

	Queries   []string
	Extracted []string
}

func NewFakeWebDiscovery() *FakeWebDiscovery {
	return &FakeWebDiscovery{
		Submissions: make(map[string]*webdiscovery.ExtractSubmission),
		ExtractErrs: make(map[string]error),
		Statuses:    make(map[string][]*webdiscovery.ExtractStatus),
		StatusErrs:  make(map[string]error),
	}
}

func (f *FakeWebDiscovery) Search(ctx context.Context, query string, limit int) ([]webdiscovery.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Queries = append(f.Queries, query)
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if limit > 0 && len(f.Results) > limit {
		return f.Results[:limit], nil
	}
	return f.Results, nil
}

func (f *FakeWebDiscovery) Extract(ctx context.Context, url string) (*webdiscovery.ExtractSubmission, error) {
	if f.OnExtract != nil {
		f.OnExtract(url)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Extracted = append(f.Extracted, url)
	if err := f.ExtractErrs[url]; err != nil {
		return nil, err
	}
	if sub, ok := f.Submissions[url]; ok {
		return sub, nil
	}
	return &webdiscovery.ExtractSubmission{Kind: webdiscovery.SubmissionUnrecognized}, nil
}

func (f *FakeWebDiscovery) GetExtractStatus(ctx context.Context, jobID string) (*webdiscovery.ExtractStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.StatusErrs[jobID]; err != nil {
		return nil, err
	}
	statuses := f.Statuses[jobID]
	if len(statuses) == 0 {
		return &webdiscovery.ExtractStatus{State: webdiscovery.JobProcessing}, nil
	}
	next := statuses[0]
	if len(statuses) > 1 {
		f.Statuses[jobID] = statuses[1:]
	}
	return next, nil
}

// FakeVendorMatcher returns a fixed vector and fixed matches.
type FakeVendorMatcher struct {
	mu         sync.Mutex
	Vector     []float32
	EmbedErr   error
	Matches    []vendormatcher.Match
	FindErr    error
	EmbedCalls int
}

func (f *FakeVendorMatcher) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.EmbedCalls++
	if f.EmbedErr != nil {
		return nil, f.EmbedErr
	}
	return f.Vector, nil
}

func (f *FakeVendorMatcher) FindSimilar(ctx context.Context, vector []float32, specialty string, limit int) ([]vendormatcher.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FindErr != nil {
		return nil, f.FindErr
	}
	return f.Matches, nil
}

// FakeVoiceCaller places fake calls. Each call id gets the snapshots in
// Snapshots in order; the last one repeats.
type FakeVoiceCaller struct {
	mu        sync.Mutex
	CreateErr error
	GetErrs   []error
	Snapshots []*voicecaller.Call
	Requests  []voicecaller.CreateCallRequest

	polls map[string]int
	seq   int
}

func NewFakeVoiceCaller(snapshots ...*voicecaller.Call) *FakeVoiceCaller {
	return &FakeVoiceCaller{
		Snapshots: snapshots,
		polls:     make(map[string]int),
	}
}

func (f *FakeVoiceCaller) CreateCall(ctx context.Context, req voicecaller.CreateCallRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.seq++
	return fmt.Sprintf("call-%d", f.seq), nil
}

func (f *FakeVoiceCaller) GetCall(ctx context.Context, callID string) (*voicecaller.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.polls[callID]
	f.polls[callID] = n + 1
	if n < len(f.GetErrs) && f.GetErrs[n] != nil {
		return nil, f.GetErrs[n]
	}
	if len(f.Snapshots) == 0 {
		return &voicecaller.Call{ID: callID, Status: voicecaller.CallInProgress}, nil
	}
	idx := n
	if idx >= len(f.Snapshots) {
		idx = len(f.Snapshots) - 1
	}
	snapshot := *f.Snapshots[idx]
	snapshot.ID = callID
	return &snapshot, nil
}

// Polls returns how many times GetCall ran for callID.
func (f *FakeVoiceCaller) Polls(callID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[callID]
}

// FakeEmailSender records sent messages. Sends to an address in FailFor fail.
type FakeEmailSender struct {
	mu      sync.Mutex
	Sent    []emailsender.Message
	FailFor map[string]error
	Err     error
	seq     int
}

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{
		FailFor: make(map[string]error),
	}
}

func (f *FakeEmailSender) Send(ctx context.Context, msg emailsender.Message) (*emailsender.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if err := f.FailFor[msg.To]; err != nil {
		return nil, err
	}
	f.seq++
	f.Sent = append(f.Sent, msg)
	return &emailsender.SendResult{EmailID: fmt.Sprintf("email-%d", f.seq)}, nil
}

// SentTo returns the messages sent to address.
func (f *FakeEmailSender) SentTo(address string) []emailsender.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []emailsender.Message
	for _, msg := range f.Sent {
		if msg.To == address {
			result = append(result, msg)
		}
	}
	return result
}

// FakeEmailDrafter returns fixed drafts.
type FakeEmailDrafter struct {
	mu            sync.Mutex
	Solicitation  string
	Reply         string
	Err           error
	Solicitations []emaildrafter.SolicitationRequest
	Replies       []emaildrafter.ReplyRequest
}

func (f *FakeEmailDrafter) DraftSolicitation(ctx context.Context, req emaildrafter.SolicitationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Solicitations = append(f.Solicitations, req)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Solicitation, nil
}

func (f *FakeEmailDrafter) DraftReply(ctx context.Context, req emaildrafter.ReplyRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Replies = append(f.Replies, req)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// FakeQuoteParser returns a fixed extraction.
type FakeQuoteParser struct {
	mu       sync.Mutex
	Result   *quoteparser.QuoteExtraction
	Err      error
	Requests []quoteparser.ParseRequest
}

func (f *FakeQuoteParser) Parse(ctx context.Context, req quoteparser.ParseRequest) (*quoteparser.QuoteExtraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result == nil {
		return &quoteparser.QuoteExtraction{}, nil
	}
	copied := *f.Result
	return &copied, nil
}
