package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vendorflow/internal/application/common/correlation"
	"vendorflow/internal/application/outreach/emaildrafter"
	"vendorflow/internal/application/outreach/emailsender"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	verificationusecases "vendorflow/internal/application/verification/usecases"
	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/ticket"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/services/markdown"
	"vendorflow/internal/shared/utils"
	"vendorflow/internal/shared/utils/logutil"
)

type DetailStatus string

const (
	DetailSent    DetailStatus = "sent"
	DetailFailed  DetailStatus = "failed"
	DetailSkipped DetailStatus = "skipped"
)

type SendOutreachCommand struct {
	TicketID string
}

// VendorOutreachDetail reports what happened to one candidate.
type VendorOutreachDetail struct {
	BusinessName string
	VendorID     string
	Email        string
	Status       DetailStatus
	Reason       string
	EmailID      string
	Verified     bool
}

type SendOutreachResult struct {
	TicketID string
	Sent     int
	Failed   int
	Skipped  int
	Details  []VendorOutreachDetail
}

type SendOutreachConfig struct {
	MaxVendors  int
	Expiry      time.Duration
	FromAddress string
	FromName    string
	ReplyDomain string
}

// SendOutreachUseCase emails a quote request to each discovered candidate.
type SendOutreachUseCase struct {
	ticketRepo       ticket.Repository
	conversationRepo ticket.ConversationRepository
	resultRepo       discovery.Repository
	vendorRepo       vendor.Repository
	outreachRepo     outreach.Repository
	mappingRepo      outreach.EmailMappingRepository
	verifier         ContactVerifier
	callBudget       CallBudget
	drafter          emaildrafter.EmailDrafter
	renderer         markdown.Service
	sender           emailsender.EmailSender
	status           *ticketusecases.AdvanceStatusUseCase
	cfg              SendOutreachConfig
	logger           logger.Interface
}

// NewSendOutreachUseCase builds the use case. verifier and callBudget may be
// nil: without a verifier no calls are placed, without a budget calls are unlimited.
func NewSendOutreachUseCase(
	ticketRepo ticket.Repository,
	conversationRepo ticket.ConversationRepository,
	resultRepo discovery.Repository,
	vendorRepo vendor.Repository,
	outreachRepo outreach.Repository,
	mappingRepo outreach.EmailMappingRepository,
	verifier ContactVerifier,
	callBudget CallBudget,
	drafter emaildrafter.EmailDrafter,
	renderer markdown.Service,
	sender emailsender.EmailSender,
	status *ticketusecases.AdvanceStatusUseCase,
	cfg SendOutreachConfig,
	logger logger.Interface,
) *SendOutreachUseCase {
	return &SendOutreachUseCase{
		ticketRepo:       ticketRepo,
		conversationRepo: conversationRepo,
		resultRepo:       resultRepo,
		vendorRepo:       vendorRepo,
		outreachRepo:     outreachRepo,
		mappingRepo:      mappingRepo,
		verifier:         verifier,
		callBudget:       callBudget,
		drafter:          drafter,
		renderer:         renderer,
		sender:           sender,
		status:           status,
		cfg:              cfg,
		logger:           logger,
	}
}

func (uc *SendOutreachUseCase) Execute(ctx context.Context, cmd SendOutreachCommand) (*SendOutreachResult, error) {
	uc.logger.Infow("executing send outreach use case", "ticket_id", cmd.TicketID)

	t, err := uc.ticketRepo.GetByID(ctx, cmd.TicketID)
	if err != nil {
		uc.logger.Errorw("failed to get ticket", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket")
	}
	if t == nil {
		return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
	}
	if t.DiscoveryResultID() == "" {
		return nil, errors.NewValidationError("ticket has no discovery result", cmd.TicketID)
	}

	result, err := uc.resultRepo.GetByID(ctx, t.DiscoveryResultID())
	if err != nil {
		uc.logger.Errorw("failed to get discovery result", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to get discovery result")
	}
	if result == nil {
		return nil, errors.NewNotFoundError("discovery result not found", t.DiscoveryResultID())
	}

	// The batch moves the ticket once, before any vendor is attempted.
	if _, err := uc.status.Apply(ctx, t, "outreach started", func(t *ticket.Ticket) (bool, error) {
		return t.MarkAwaitingQuotes()
	}); err != nil {
		return nil, err
	}

	out := &SendOutreachResult{TicketID: t.ID()}
	// Only candidates that reach the provider count against MaxVendors.
	attempted := 0
	for _, c := range result.Candidates() {
		if uc.cfg.MaxVendors > 0 && attempted >= uc.cfg.MaxVendors {
			break
		}
		if !c.HasEmail() {
			out.add(VendorOutreachDetail{BusinessName: c.BusinessName, Status: DetailSkipped, Reason: "no email address"})
			continue
		}

		detail, sendAttempted := uc.contact(ctx, t, c)
		if sendAttempted {
			attempted++
		}
		out.add(detail)
	}

	uc.logger.Infow("outreach batch finished",
		"ticket_id", t.ID(),
		"sent", out.Sent,
		"failed", out.Failed,
		"skipped", out.Skipped,
	)
	return out, nil
}

// contact runs the whole per-vendor flow. Its failures never leave this vendor.
// The bool reports whether an email was handed to the provider.
func (uc *SendOutreachUseCase) contact(ctx context.Context, t *ticket.Ticket, c discovery.Candidate) (VendorOutreachDetail, bool) {
	detail := VendorOutreachDetail{BusinessName: c.BusinessName, Email: c.Email}

	v, err := uc.resolveVendor(ctx, c)
	if err != nil {
		uc.logger.Warnw("failed to resolve vendor", "ticket_id", t.ID(), "business_name", c.BusinessName, "error", err)
		detail.Status = DetailFailed
		detail.Reason = err.Error()
		return detail, false
	}
	detail.VendorID = v.ID()

	active, err := uc.outreachRepo.FindActive(ctx, t.ID(), v.ID())
	if err != nil {
		uc.logger.Warnw("failed to check existing outreach", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
	}
	if active != nil {
		detail.Status = DetailSkipped
		detail.Reason = "vendor already contacted for this ticket"
		return detail, false
	}

	if !v.CanReceiveEmail() {
		detail.Status = DetailSkipped
		detail.Reason = fmt.Sprintf("email suppressed (%s)", v.EmailStatus())
		return detail, false
	}

	email := v.Email()
	if verified, ok := uc.verify(ctx, t, v, c); ok {
		email = verified
		detail.Verified = true
	}
	detail.Email = email

	subject := correlation.WithSubjectMarker("Quote request: "+t.Title(), t.ID())
	text, html := uc.body(ctx, t, v)
	messageID := correlation.NewMessageID(t.ID(), uc.cfg.ReplyDomain)

	sent, err := uc.sender.Send(ctx, emailsender.Message{
		FromAddress:    uc.cfg.FromAddress,
		FromName:       uc.cfg.FromName,
		To:             email,
		Subject:        subject,
		HTML:           html,
		Text:           text,
		MessageID:      messageID,
		IdempotencyKey: "outreach-" + t.ID() + "-" + v.ID(),
	})
	if err != nil {
		uc.logger.Errorw("failed to send outreach email",
			"ticket_id", t.ID(),
			"vendor_id", v.ID(),
			"email", logutil.MaskEmail(email),
			"error", err,
		)
		detail.Status = DetailFailed
		detail.Reason = err.Error()
		return detail, true
	}

	detail.Status = DetailSent
	detail.EmailID = sent.EmailID
	uc.recordSend(ctx, t, v, email, subject, text, messageID, sent.EmailID)

	uc.logger.Infow("outreach email sent",
		"ticket_id", t.ID(),
		"vendor_id", v.ID(),
		"email_id", sent.EmailID,
		"verified", detail.Verified,
	)
	return detail, true
}

func (uc *SendOutreachUseCase) resolveVendor(ctx context.Context, c discovery.Candidate) (*vendor.Vendor, error) {
	if c.VendorID != "" {
		v, err := uc.vendorRepo.GetByID(ctx, c.VendorID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}

	v, err := uc.vendorRepo.GetByEmail(ctx, strings.ToLower(c.Email))
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}

	v, err = vendor.NewVendor(c.BusinessName, c.Email, c.Phone, c.Specialty, c.Address, c.Rating)
	if err != nil {
		return nil, err
	}
	if err := uc.vendorRepo.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// verify returns the email confirmed on a call, if any.
func (uc *SendOutreachUseCase) verify(ctx context.Context, t *ticket.Ticket, v *vendor.Vendor, c discovery.Candidate) (string, bool) {
	if uc.verifier == nil {
		return "", false
	}

	phone := c.Phone
	if phone == "" {
		phone = v.Phone()
	}
	if verificationusecases.NormalizePhone(phone) == "" {
		return "", false
	}

	if uc.callBudget != nil {
		allowed, err := uc.callBudget.Allow(ctx)
		if err != nil {
			uc.logger.Warnw("call budget check failed, skipping verification", "vendor_id", v.ID(), "error", err)
			return "", false
		}
		if !allowed {
			uc.logger.Infow("call budget exhausted, skipping verification", "vendor_id", v.ID())
			return "", false
		}
	}

	res := uc.verifier.Execute(ctx, verificationusecases.VerifyContactCommand{
		TicketID:      t.ID(),
		VendorID:      v.ID(),
		BusinessName:  v.BusinessName(),
		PhoneNumber:   phone,
		OriginalEmail: v.Email(),
		TicketSummary: t.Title(),
	})
	if !res.Success || res.VerifiedEmail == "" || !utils.IsEmail(res.VerifiedEmail) {
		return "", false
	}
	return strings.ToLower(res.VerifiedEmail), true
}

// body returns the plain text and sanitized HTML of the solicitation. A draft
// that is empty or renders to nothing is replaced by one built from the ticket.
func (uc *SendOutreachUseCase) body(ctx context.Context, t *ticket.Ticket, v *vendor.Vendor) (string, string) {
	draft, err := uc.drafter.DraftSolicitation(ctx, emaildrafter.SolicitationRequest{
		TicketID:    t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		Specialty:   t.Specialty(),
		Urgency:     t.Urgency().String(),
		Location:    t.Location(),
		Tags:        t.Tags(),
		VendorName:  v.BusinessName(),
	})
	if err != nil {
		uc.logger.Warnw("failed to draft solicitation, using fallback body", "ticket_id", t.ID(), "error", err)
	}

	if html := uc.renderer.EnsureHTML(draft); html != "" {
		if markdown.IsHTML(draft) {
			return uc.renderer.PlainText(html), html
		}
		return draft, html
	}

	fallback := FallbackSolicitation(t, v.BusinessName(), uc.cfg.FromName)
	return fallback, uc.renderer.EnsureHTML(fallback)
}

func (uc *SendOutreachUseCase) recordSend(
	ctx context.Context,
	t *ticket.Ticket,
	v *vendor.Vendor,
	email, subject, text, messageID, emailID string,
) {
	now := biztime.NowUTC()

	if mapping, err := outreach.NewEmailMapping(emailID, t.ID(), v.ID(), messageID, now); err == nil {
		if err := uc.mappingRepo.Save(ctx, mapping); err != nil {
			uc.logger.Errorw("failed to save email mapping", "email_id", emailID, "error", err)
		}
	}

	if o, err := outreach.NewVendorOutreach(t.ID(), v.ID(), emailID, now, uc.cfg.Expiry); err == nil {
		if err := uc.outreachRepo.Save(ctx, o); err != nil {
			uc.logger.Errorw("failed to save vendor outreach", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		}
	}

	if msg, err := ticket.NewConversationMessage(t.ID(), v.ID(), ticket.DirectionOutbound, uc.cfg.FromAddress, email, subject, text, emailID); err == nil {
		if err := uc.conversationRepo.Append(ctx, msg); err != nil {
			uc.logger.Warnw("failed to append conversation message", "ticket_id", t.ID(), "error", err)
		}
	}

	if email != v.Email() {
		changed, err := v.UpdateEmail(email)
		if err == nil && changed {
			if err := uc.vendorRepo.Update(ctx, v); err != nil {
				uc.logger.Warnw("failed to store verified email", "vendor_id", v.ID(), "error", err)
			}
		}
	}
}

func (r *SendOutreachResult) add(d VendorOutreachDetail) {
	switch d.Status {
	case DetailSent:
		r.Sent++
	case DetailFailed:
		r.Failed++
	case DetailSkipped:
		r.Skipped++
	}
	r.Details = append(r.Details, d)
}

// FallbackSolicitation builds a markdown quote request from the ticket fields.
func FallbackSolicitation(t *ticket.Ticket, vendorName, signature string) string {
	var b strings.Builder

	greeting := "Hello"
	if vendorName != "" {
		greeting += " " + vendorName
	}
	fmt.Fprintf(&b, "%s,\n\n", greeting)

	trade := t.Specialty()
	if trade == "" {
		trade = "maintenance"
	}
	fmt.Fprintf(&b, "We are looking for a %s professional and would appreciate a quote for the job below.\n\n", trade)
	fmt.Fprintf(&b, "**%s**\n\n", t.Title())
	if desc := strings.TrimSpace(t.Description()); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}
	if t.Location() != "" {
		fmt.Fprintf(&b, "- Location: %s\n", t.Location())
	}
	fmt.Fprintf(&b, "- Urgency: %s\n\n", t.Urgency())
	b.WriteString("Please reply to this email with your price, how many hours until you can start, and a date you could schedule the work.\n\n")
	b.WriteString("Thank you,\n")
	if signature != "" {
		b.WriteString(signature)
	}
	return b.String()
}
