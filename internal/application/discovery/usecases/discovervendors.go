package usecases

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vendorflow/internal/application/discovery/vendormatcher"
	"vendorflow/internal/application/discovery/webdiscovery"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/shared/events"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
)

type DiscoverVendorsCommand struct {
	TicketID string
}

type DiscoverVendorsResult struct {
	TicketID    string
	ResultID    string
	Source      discovery.Source
	Status      discovery.Status
	Candidates  int
	WithEmail   int
	Degraded    int
	TimeoutNote string
}

type DiscoverVendorsConfig struct {
	SearchLimit         int
	MatchLimit          int
	ExtractPollInterval time.Duration
	ExtractTimeout      time.Duration
	SoftDeadline        time.Duration
}

// DiscoverVendorsUseCase finds candidate vendors for a ticket, first among
// known vendors by similarity and then on the web.
type DiscoverVendorsUseCase struct {
	ticketRepo ticket.Repository
	vendorRepo vendor.Repository
	resultRepo discovery.Repository
	matcher    vendormatcher.VendorMatcher
	web        webdiscovery.WebDiscovery
	status     *ticketusecases.AdvanceStatusUseCase
	publisher  events.EventPublisher
	cfg        DiscoverVendorsConfig
	logger     logger.Interface
	now        func() time.Time
}

// NewDiscoverVendorsUseCase builds the use case. matcher and publisher may be
// nil, which disables the database lookup and the completion event.
func NewDiscoverVendorsUseCase(
	ticketRepo ticket.Repository,
	vendorRepo vendor.Repository,
	resultRepo discovery.Repository,
	matcher vendormatcher.VendorMatcher,
	web webdiscovery.WebDiscovery,
	status *ticketusecases.AdvanceStatusUseCase,
	publisher events.EventPublisher,
	cfg DiscoverVendorsConfig,
	logger logger.Interface,
) *DiscoverVendorsUseCase {
	return &DiscoverVendorsUseCase{
		ticketRepo: ticketRepo,
		vendorRepo: vendorRepo,
		resultRepo: resultRepo,
		matcher:    matcher,
		web:        web,
		status:     status,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now:        biztime.NowUTC,
	}
}

func (uc *DiscoverVendorsUseCase) Execute(ctx context.Context, cmd DiscoverVendorsCommand) (*DiscoverVendorsResult, error) {
	uc.logger.Infow("executing discover vendors use case", "ticket_id", cmd.TicketID)

	deadline := uc.now().Add(uc.cfg.SoftDeadline)

	t, err := uc.ticketRepo.GetByID(ctx, cmd.TicketID)
	if err != nil {
		uc.logger.Errorw("failed to get ticket", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket")
	}
	if t == nil {
		return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
	}

	if _, err := uc.status.Advance(ctx, t, vo.StatusFindVendors, "vendor discovery started"); err != nil {
		return nil, err
	}

	if result, ok := uc.matchKnownVendors(ctx, t); ok {
		return uc.finish(ctx, t, result)
	}

	return uc.searchWeb(ctx, t, deadline)
}

// matchKnownVendors returns a completed database result when at least one
// stored vendor is similar to the ticket.
func (uc *DiscoverVendorsUseCase) matchKnownVendors(ctx context.Context, t *ticket.Ticket) (*discovery.DiscoveryResult, bool) {
	if uc.matcher == nil {
		return nil, false
	}

	vector := t.Embedding()
	if len(vector) == 0 {
		embedded, err := uc.matcher.Embed(ctx, t.SearchText())
		if err != nil {
			uc.logger.Warnw("failed to embed ticket, falling back to web search", "ticket_id", t.ID(), "error", err)
			return nil, false
		}
		vector = embedded
		t.CacheEmbedding(vector)
		if err := uc.ticketRepo.Update(ctx, t); err != nil {
			uc.logger.Warnw("failed to cache ticket embedding", "ticket_id", t.ID(), "error", err)
		}
	}

	matches, err := uc.matcher.FindSimilar(ctx, vector, t.Specialty(), uc.cfg.MatchLimit)
	if err != nil {
		uc.logger.Warnw("vendor similarity search failed, falling back to web search", "ticket_id", t.ID(), "error", err)
		return nil, false
	}
	if len(matches) == 0 {
		return nil, false
	}

	vendorIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		vendorIDs = append(vendorIDs, m.VendorID)
	}
	vendors, err := uc.vendorRepo.GetByIDs(ctx, vendorIDs)
	if err != nil {
		uc.logger.Warnw("failed to load matched vendors", "ticket_id", t.ID(), "error", err)
		return nil, false
	}

	result, err := discovery.NewDiscoveryResult(t.ID(), discovery.SourceDatabase)
	if err != nil {
		return nil, false
	}
	for _, vendorID := range vendorIDs {
		v, ok := vendors[vendorID]
		if !ok {
			continue
		}
		_ = result.AppendCandidate(discovery.Candidate{
			BusinessName: v.BusinessName(),
			Email:        v.Email(),
			Phone:        v.Phone(),
			Specialty:    v.Specialty(),
			Address:      v.Address(),
			Rating:       v.Rating(),
			VendorID:     v.ID(),
			Position:     result.Len() + 1,
		})
	}
	if result.Len() == 0 {
		return nil, false
	}

	result.Complete()
	if err := uc.resultRepo.Save(ctx, result); err != nil {
		uc.logger.Errorw("failed to save discovery result", "ticket_id", t.ID(), "error", err)
		return nil, false
	}

	uc.logger.Infow("matched known vendors", "ticket_id", t.ID(), "count", result.Len())
	return result, true
}

func (uc *DiscoverVendorsUseCase) searchWeb(ctx context.Context, t *ticket.Ticket, deadline time.Time) (*DiscoverVendorsResult, error) {
	result, err := discovery.NewDiscoveryResult(t.ID(), discovery.SourceWeb)
	if err != nil {
		return nil, errors.NewInternalError("failed to create discovery result", err.Error())
	}
	if err := uc.resultRepo.Save(ctx, result); err != nil {
		uc.logger.Errorw("failed to save discovery result", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to save discovery result")
	}
	uc.attach(ctx, t, result)

	query := BuildSearchQuery(t)
	hits, err := uc.web.Search(ctx, query, uc.cfg.SearchLimit)
	if err != nil {
		uc.logger.Errorw("web search failed", "ticket_id", t.ID(), "query", query, "error", err)
		result.Fail("web search failed: " + err.Error())
		uc.persist(ctx, result)
		return nil, errors.NewExternalServiceError("web search failed", err.Error())
	}

	uc.logger.Infow("web search returned results", "ticket_id", t.ID(), "query", query, "count", len(hits))

	for i, hit := range hits {
		if !uc.now().Before(deadline) {
			note := fmt.Sprintf("soft deadline of %s reached after %d of %d results", uc.cfg.SoftDeadline, i, len(hits))
			uc.logger.Warnw("discovery timed out", "ticket_id", t.ID(), "note", note)
			result.TimeOut(note)
			break
		}

		extracted := uc.extract(ctx, t.ID(), hit.URL)
		candidate := uc.toCandidate(ctx, t, hit, extracted, i+1)
		if err := result.AppendCandidate(candidate); err != nil {
			uc.logger.Warnw("failed to append candidate", "ticket_id", t.ID(), "url", hit.URL, "error", err)
			continue
		}
		uc.persist(ctx, result)
	}

	result.Complete()
	uc.persist(ctx, result)

	return uc.finish(ctx, t, result)
}

// extract returns the vendor record for one URL, or nil when extraction
// failed, timed out or returned an unknown shape.
func (uc *DiscoverVendorsUseCase) extract(ctx context.Context, ticketID, pageURL string) *webdiscovery.ExtractedVendor {
	sub, err := uc.web.Extract(ctx, pageURL)
	if err != nil {
		uc.logger.Warnw("extraction submit failed", "ticket_id", ticketID, "url", pageURL, "error", err)
		return nil
	}

	switch sub.Kind {
	case webdiscovery.SubmissionImmediate:
		return sub.Vendor
	case webdiscovery.SubmissionJob:
		return uc.pollExtraction(ctx, ticketID, pageURL, sub.JobID)
	default:
		uc.logger.Warnw("unrecognized extraction response", "ticket_id", ticketID, "url", pageURL)
		return nil
	}
}

func (uc *DiscoverVendorsUseCase) pollExtraction(ctx context.Context, ticketID, pageURL, jobID string) *webdiscovery.ExtractedVendor {
	jobDeadline := uc.now().Add(uc.cfg.ExtractTimeout)

	for {
		status, err := uc.web.GetExtractStatus(ctx, jobID)
		if err != nil {
			uc.logger.Warnw("extraction status poll failed", "ticket_id", ticketID, "job_id", jobID, "error", err)
			return nil
		}

		switch status.State {
		case webdiscovery.JobCompleted:
			return status.Vendor
		case webdiscovery.JobFailed, webdiscovery.JobCancelled:
			uc.logger.Warnw("extraction job did not complete",
				"ticket_id", ticketID,
				"url", pageURL,
				"state", status.State,
				"error", status.Error,
			)
			return nil
		}

		if !uc.now().Before(jobDeadline) {
			uc.logger.Warnw("extraction job timed out", "ticket_id", ticketID, "url", pageURL, "job_id", jobID)
			return nil
		}
		if err := biztime.Sleep(ctx, uc.cfg.ExtractPollInterval); err != nil {
			return nil
		}
	}
}

// toCandidate builds the candidate for one search hit and upserts its vendor.
// Hits without usable contact fields become degraded candidates.
func (uc *DiscoverVendorsUseCase) toCandidate(
	ctx context.Context,
	t *ticket.Ticket,
	hit webdiscovery.SearchResult,
	extracted *webdiscovery.ExtractedVendor,
	position int,
) discovery.Candidate {
	if !extracted.HasContact() {
		return discovery.Candidate{
			BusinessName: uc.nameFromHit(hit),
			Description:  hit.Description,
			Specialty:    t.Specialty(),
			SourceURL:    hit.URL,
			Position:     position,
			Degraded:     true,
		}
	}

	candidate := discovery.Candidate{
		BusinessName: strings.TrimSpace(extracted.BusinessName),
		Email:        strings.ToLower(strings.TrimSpace(extracted.Email)),
		Phone:        strings.TrimSpace(extracted.Phone),
		Specialty:    extracted.Specialty,
		Address:      extracted.Address,
		Description:  extracted.Description,
		Rating:       extracted.Rating,
		SourceURL:    hit.URL,
		Position:     position,
	}
	if candidate.BusinessName == "" {
		candidate.BusinessName = uc.nameFromHit(hit)
	}
	if candidate.Specialty == "" {
		candidate.Specialty = t.Specialty()
	}
	if candidate.Description == "" {
		candidate.Description = hit.Description
	}
	if candidate.Rating != nil && (*candidate.Rating < 0 || *candidate.Rating > 5) {
		candidate.Rating = nil
	}

	if candidate.HasEmail() {
		candidate.VendorID = uc.upsertVendor(ctx, candidate)
	}
	return candidate
}

func (uc *DiscoverVendorsUseCase) upsertVendor(ctx context.Context, c discovery.Candidate) string {
	existing, err := uc.vendorRepo.GetByEmail(ctx, c.Email)
	if err != nil {
		uc.logger.Warnw("failed to look up vendor", "email", c.Email, "error", err)
		return ""
	}

	if existing != nil {
		if existing.FillMissing(c.Phone, c.Address, c.Rating) {
			if err := uc.vendorRepo.Update(ctx, existing); err != nil {
				uc.logger.Warnw("failed to update vendor", "vendor_id", existing.ID(), "error", err)
			}
		}
		return existing.ID()
	}

	v, err := vendor.NewVendor(c.BusinessName, c.Email, c.Phone, c.Specialty, c.Address, c.Rating)
	if err != nil {
		uc.logger.Warnw("invalid vendor record", "business_name", c.BusinessName, "error", err)
		return ""
	}
	if err := uc.vendorRepo.Save(ctx, v); err != nil {
		uc.logger.Warnw("failed to save vendor", "business_name", c.BusinessName, "error", err)
		return ""
	}
	return v.ID()
}

func (uc *DiscoverVendorsUseCase) nameFromHit(hit webdiscovery.SearchResult) string {
	name := hit.Title
	for _, sep := range []string{" | ", " - ", " \u2013 ", " \u2014 ", ": "} {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		if u, err := url.Parse(hit.URL); err == nil {
			name = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	if name == "" {
		name = "Unknown Vendor"
	}
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(name))
}

func (uc *DiscoverVendorsUseCase) attach(ctx context.Context, t *ticket.Ticket, result *discovery.DiscoveryResult) {
	t.AttachDiscoveryResult(result.ID())
	if err := uc.ticketRepo.Update(ctx, t); err != nil {
		uc.logger.Warnw("failed to attach discovery result to ticket", "ticket_id", t.ID(), "error", err)
	}
}

func (uc *DiscoverVendorsUseCase) persist(ctx context.Context, result *discovery.DiscoveryResult) {
	if err := uc.resultRepo.Update(ctx, result); err != nil {
		uc.logger.Errorw("failed to persist discovery result", "result_id", result.ID(), "error", err)
	}
}

func (uc *DiscoverVendorsUseCase) finish(ctx context.Context, t *ticket.Ticket, result *discovery.DiscoveryResult) (*DiscoverVendorsResult, error) {
	if t.DiscoveryResultID() != result.ID() {
		uc.attach(ctx, t, result)
	}

	out := &DiscoverVendorsResult{
		TicketID:    t.ID(),
		ResultID:    result.ID(),
		Source:      result.Source(),
		Status:      result.Status(),
		Candidates:  result.Len(),
		TimeoutNote: result.TimeoutNote(),
	}
	for _, c := range result.Candidates() {
		if c.Degraded {
			out.Degraded++
		}
		if c.HasEmail() {
			out.WithEmail++
		}
	}

	if uc.publisher != nil && result.Len() > 0 {
		if err := uc.publisher.Publish(discovery.NewCompletedEvent(result, uc.now())); err != nil {
			uc.logger.Warnw("failed to publish discovery completed event", "ticket_id", t.ID(), "error", err)
		}
	}

	uc.logger.Infow("vendor discovery finished",
		"ticket_id", t.ID(),
		"source", out.Source,
		"status", out.Status,
		"candidates", out.Candidates,
		"degraded", out.Degraded,
	)
	return out, nil
}

// BuildSearchQuery turns the ticket's specialty, tags and location into a web query.
func BuildSearchQuery(t *ticket.Ticket) string {
	parts := make([]string, 0, 4)
	if t.Specialty() != "" {
		parts = append(parts, t.Specialty())
	}
	parts = append(parts, t.Tags()...)
	if len(parts) == 0 {
		parts = append(parts, t.Title())
	}
	query := strings.Join(parts, " ")
	if t.Location() != "" {
		query += " near " + t.Location()
	}
	return query
}
