package usecases

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"vendorflow/internal/application/common/correlation"
	"vendorflow/internal/application/common/emailevent"
	"vendorflow/internal/application/outreach/emaildrafter"
	"vendorflow/internal/application/outreach/emailsender"
	rankingusecases "vendorflow/internal/application/ranking/usecases"
	"vendorflow/internal/application/reply/quoteparser"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/ticket"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/services/markdown"
	"vendorflow/internal/shared/utils/logutil"
)

type Outcome string

const (
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnknownSender    Outcome = "unknown_sender"
	OutcomeNoActiveOutreach Outcome = "no_active_outreach"
	OutcomeQuoteCreated     Outcome = "quote_created"
	OutcomeDeclined         Outcome = "declined"
	OutcomeIncompleteQuote  Outcome = "incomplete_quote"
	OutcomeParseFailed      Outcome = "parse_failed"
	OutcomeNoQuote          Outcome = "no_quote"
)

const defaultMaxAutoReplies = 3

type HandleInboundReplyResult struct {
	TicketID     string            `json:"ticket_id,omitempty"`
	VendorID     string            `json:"vendor_id,omitempty"`
	CorrelatedBy CorrelationSource `json:"correlated_by,omitempty"`
	Outcome      Outcome           `json:"outcome"`
	QuoteID      string            `json:"quote_id,omitempty"`
	Detail       string            `json:"detail,omitempty"`
	AutoReplied  bool              `json:"auto_replied"`
	Forwarded    bool              `json:"forwarded"`
}

type HandleInboundReplyConfig struct {
	FromAddress string
	FromName    string
	ReplyDomain string
	// MaxAutoReplies caps outbound messages per vendor and ticket, counting
	// the solicitation, so two auto-responders cannot loop forever.
	MaxAutoReplies int
}

// HandleInboundReplyUseCase turns an inbound vendor email into ticket state:
// a quote, a decline, or just a conversation entry.
type HandleInboundReplyUseCase struct {
	ticketRepo       ticket.Repository
	conversationRepo ticket.ConversationRepository
	vendorRepo       vendor.Repository
	outreachRepo     outreach.Repository
	mappingRepo      outreach.EmailMappingRepository
	quoteRepo        quote.Repository
	parser           quoteparser.QuoteParser
	drafter          emaildrafter.EmailDrafter
	renderer         markdown.Service
	sender           emailsender.EmailSender
	ranker           QuoteRanker
	status           *ticketusecases.AdvanceStatusUseCase
	cfg              HandleInboundReplyConfig
	logger           logger.Interface
}

func NewHandleInboundReplyUseCase(
	ticketRepo ticket.Repository,
	conversationRepo ticket.ConversationRepository,
	vendorRepo vendor.Repository,
	outreachRepo outreach.Repository,
	mappingRepo outreach.EmailMappingRepository,
	quoteRepo quote.Repository,
	parser quoteparser.QuoteParser,
	drafter emaildrafter.EmailDrafter,
	renderer markdown.Service,
	sender emailsender.EmailSender,
	ranker QuoteRanker,
	status *ticketusecases.AdvanceStatusUseCase,
	cfg HandleInboundReplyConfig,
	logger logger.Interface,
) *HandleInboundReplyUseCase {
	if cfg.MaxAutoReplies <= 0 {
		cfg.MaxAutoReplies = defaultMaxAutoReplies
	}
	return &HandleInboundReplyUseCase{
		ticketRepo:       ticketRepo,
		conversationRepo: conversationRepo,
		vendorRepo:       vendorRepo,
		outreachRepo:     outreachRepo,
		mappingRepo:      mappingRepo,
		quoteRepo:        quoteRepo,
		parser:           parser,
		drafter:          drafter,
		renderer:         renderer,
		sender:           sender,
		ranker:           ranker,
		status:           status,
		cfg:              cfg,
		logger:           logger,
	}
}

func (uc *HandleInboundReplyUseCase) Execute(ctx context.Context, in emailevent.InboundEmail) (*HandleInboundReplyResult, error) {
	body := uc.plainBody(in)
	sender := senderAddress(in.From)
	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = biztime.NowUTC()
	}

	t, source, err := uc.correlate(ctx, &in, body)
	if err != nil {
		uc.logger.Errorw("failed to correlate inbound email", "email_id", in.EmailID, "error", err)
		return nil, errors.NewInternalError("failed to correlate inbound email")
	}
	if t == nil {
		uc.logger.Infow("inbound email not correlated to a ticket, dropping",
			"email_id", in.EmailID,
			"from", logutil.MaskEmail(sender),
			"subject", logutil.Excerpt(in.Subject, 80),
		)
		return &HandleInboundReplyResult{Outcome: OutcomeIgnored}, nil
	}

	result := &HandleInboundReplyResult{TicketID: t.ID(), CorrelatedBy: source}

	var v *vendor.Vendor
	if sender != "" {
		v, err = uc.vendorRepo.GetByEmail(ctx, sender)
		if err != nil {
			uc.logger.Errorw("failed to get vendor by email", "ticket_id", t.ID(), "error", err)
			return nil, errors.NewInternalError("failed to get vendor")
		}
	}
	if v != nil {
		result.VendorID = v.ID()
	}

	uc.appendInbound(ctx, t, v, sender, in, body)

	if v == nil {
		uc.logger.Infow("inbound email from unknown sender", "ticket_id", t.ID(), "from", logutil.MaskEmail(sender))
		result.Outcome = OutcomeUnknownSender
		result.Forwarded = uc.forwardToOwner(ctx, t, nil, sender, in, body, result)
		return result, nil
	}

	active, err := uc.outreachRepo.FindActive(ctx, t.ID(), v.ID())
	if err != nil {
		uc.logger.Errorw("failed to find active outreach", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		return nil, errors.NewInternalError("failed to find active outreach")
	}
	if active == nil {
		uc.logger.Infow("no active outreach for vendor reply", "ticket_id", t.ID(), "vendor_id", v.ID())
		result.Outcome = OutcomeNoActiveOutreach
		result.Forwarded = uc.forwardToOwner(ctx, t, v, sender, in, body, result)
		return result, nil
	}

	if err := uc.classify(ctx, t, v, active, in, body, receivedAt, result); err != nil {
		return nil, err
	}

	result.AutoReplied = uc.autoReply(ctx, t, v, sender, in, body, result)
	result.Forwarded = uc.forwardToOwner(ctx, t, v, sender, in, body, result)

	uc.logger.Infow("inbound reply handled",
		"ticket_id", t.ID(),
		"vendor_id", v.ID(),
		"correlated_by", source,
		"outcome", result.Outcome,
		"quote_id", result.QuoteID,
	)
	return result, nil
}

// classify runs quote extraction and applies its outcome to the outreach,
// quote and ticket records.
func (uc *HandleInboundReplyUseCase) classify(
	ctx context.Context,
	t *ticket.Ticket,
	v *vendor.Vendor,
	o *outreach.VendorOutreach,
	in emailevent.InboundEmail,
	body string,
	receivedAt time.Time,
	result *HandleInboundReplyResult,
) error {
	extraction, err := uc.parser.Parse(ctx, quoteparser.ParseRequest{
		Subject:     in.Subject,
		Body:        body,
		VendorName:  v.BusinessName(),
		TicketTitle: t.Title(),
	})
	if err != nil || extraction == nil {
		uc.logger.Warnw("failed to parse vendor reply", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		result.Outcome = OutcomeParseFailed
		return nil
	}

	switch {
	case extraction.IsDeclining:
		result.Outcome = OutcomeDeclined
		result.Detail = extraction.DeclineReason
		uc.markResponded(ctx, o, receivedAt)
		return nil

	case !extraction.HasQuote:
		result.Outcome = OutcomeNoQuote
		return nil
	}

	if err := extraction.Validate(); err != nil {
		uc.logger.Warnw("vendor quote is incomplete", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		result.Outcome = OutcomeIncompleteQuote
		result.Detail = err.Error()
		return nil
	}

	q, err := quote.NewVendorQuote(t.ID(), v.ID(), o.ID(), quote.Terms{
		Price:                 *extraction.Price,
		Currency:              extraction.Currency,
		EstimatedDeliveryTime: *extraction.EstimatedDeliveryTime,
		ScheduledDate:         biztime.ParseScheduledDate(extraction.ScheduledDate),
		FixDuration:           extraction.FixDuration,
		Ratings:               extraction.Ratings,
		Notes:                 extraction.Notes,
	}, body, receivedAt)
	if err != nil {
		uc.logger.Warnw("vendor quote is invalid", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		result.Outcome = OutcomeIncompleteQuote
		result.Detail = err.Error()
		return nil
	}
	if err := uc.quoteRepo.Save(ctx, q); err != nil {
		uc.logger.Errorw("failed to save vendor quote", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		return errors.NewInternalError("failed to save vendor quote")
	}
	result.Outcome = OutcomeQuoteCreated
	result.QuoteID = q.ID()

	uc.markResponded(ctx, o, receivedAt)

	if uc.ranker != nil {
		if _, err := uc.ranker.Execute(ctx, rankingusecases.RankVendorsCommand{TicketID: t.ID()}); err != nil {
			uc.logger.Warnw("failed to re-rank quotes", "ticket_id", t.ID(), "error", err)
		}
	}

	if _, err := uc.status.Apply(ctx, t, "quote received", func(t *ticket.Ticket) (bool, error) {
		return t.MarkQuoteReceived()
	}); err != nil {
		uc.logger.Warnw("failed to record quote on ticket", "ticket_id", t.ID(), "error", err)
	}

	uc.logger.Infow("vendor quote created",
		"ticket_id", t.ID(),
		"vendor_id", v.ID(),
		"quote_id", q.ID(),
		"price", q.Price(),
		"currency", q.Currency(),
	)
	return nil
}

func (uc *HandleInboundReplyUseCase) markResponded(ctx context.Context, o *outreach.VendorOutreach, at time.Time) {
	if !o.MarkResponded(at) {
		return
	}
	if err := uc.outreachRepo.Update(ctx, o); err != nil {
		uc.logger.Warnw("failed to mark outreach responded", "outreach_id", o.ID(), "error", err)
	}
}

func (uc *HandleInboundReplyUseCase) appendInbound(
	ctx context.Context,
	t *ticket.Ticket,
	v *vendor.Vendor,
	sender string,
	in emailevent.InboundEmail,
	body string,
) {
	vendorID := ""
	if v != nil {
		vendorID = v.ID()
	}
	to := ""
	if len(in.To) > 0 {
		to = in.To[0]
	}

	msg, err := ticket.NewConversationMessage(t.ID(), vendorID, ticket.DirectionInbound, sender, to, in.Subject, body, in.EmailID)
	if err != nil {
		uc.logger.Warnw("inbound email has no content to record", "ticket_id", t.ID(), "error", err)
		return
	}
	if err := uc.conversationRepo.Append(ctx, msg); err != nil {
		uc.logger.Warnw("failed to append inbound message", "ticket_id", t.ID(), "error", err)
	}
}

// autoReply answers the vendor in the same thread. Failures are logged only.
func (uc *HandleInboundReplyUseCase) autoReply(
	ctx context.Context,
	t *ticket.Ticket,
	v *vendor.Vendor,
	sender string,
	in emailevent.InboundEmail,
	body string,
	result *HandleInboundReplyResult,
) bool {
	if sender == "" || !v.CanReceiveEmail() {
		return false
	}
	if uc.outboundCount(ctx, t.ID(), v.ID()) >= uc.cfg.MaxAutoReplies {
		uc.logger.Infow("auto-reply limit reached", "ticket_id", t.ID(), "vendor_id", v.ID())
		return false
	}

	draft, err := uc.drafter.DraftReply(ctx, emaildrafter.ReplyRequest{
		TicketTitle:  t.Title(),
		VendorName:   v.BusinessName(),
		InboundBody:  body,
		QuoteCreated: result.Outcome == OutcomeQuoteCreated,
		Declined:     result.Outcome == OutcomeDeclined,
	})
	if err != nil {
		uc.logger.Warnw("failed to draft auto-reply", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		return false
	}
	html := uc.renderer.EnsureHTML(draft)
	if html == "" {
		return false
	}

	subject := correlation.WithSubjectMarker(correlation.ReplySubject(in.Subject), t.ID())
	messageID := correlation.NewMessageID(t.ID(), uc.cfg.ReplyDomain)
	references := append(append([]string{}, in.References...), correlation.NormalizeMessageID(in.MessageID))

	sent, err := uc.sender.Send(ctx, emailsender.Message{
		FromAddress: uc.cfg.FromAddress,
		FromName:    uc.cfg.FromName,
		To:          sender,
		Subject:     subject,
		HTML:        html,
		Text:        draft,
		MessageID:   messageID,
		InReplyTo:   correlation.NormalizeMessageID(in.MessageID),
		References:  nonEmpty(references),
	})
	if err != nil {
		uc.logger.Warnw("failed to send auto-reply", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		return false
	}

	if mapping, err := outreach.NewEmailMapping(sent.EmailID, t.ID(), v.ID(), messageID, biztime.NowUTC()); err == nil {
		if err := uc.mappingRepo.Save(ctx, mapping); err != nil {
			uc.logger.Warnw("failed to save auto-reply mapping", "email_id", sent.EmailID, "error", err)
		}
	}
	if msg, err := ticket.NewConversationMessage(t.ID(), v.ID(), ticket.DirectionOutbound, uc.cfg.FromAddress, sender, subject, draft, sent.EmailID); err == nil {
		if err := uc.conversationRepo.Append(ctx, msg); err != nil {
			uc.logger.Warnw("failed to append auto-reply message", "ticket_id", t.ID(), "error", err)
		}
	}
	return true
}

func (uc *HandleInboundReplyUseCase) outboundCount(ctx context.Context, ticketID, vendorID string) int {
	messages, err := uc.conversationRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		uc.logger.Warnw("failed to list conversation", "ticket_id", ticketID, "error", err)
		return uc.cfg.MaxAutoReplies
	}
	count := 0
	for _, m := range messages {
		if m.Direction() == ticket.DirectionOutbound && m.VendorID() == vendorID {
			count++
		}
	}
	return count
}

// forwardToOwner sends the ticket owner a copy of the reply. Failures are logged only.
func (uc *HandleInboundReplyUseCase) forwardToOwner(
	ctx context.Context,
	t *ticket.Ticket,
	v *vendor.Vendor,
	sender string,
	in emailevent.InboundEmail,
	body string,
	result *HandleInboundReplyResult,
) bool {
	if t.OwnerEmail() == "" {
		return false
	}

	from := sender
	if v != nil {
		from = fmt.Sprintf("%s <%s>", v.BusinessName(), sender)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New reply on your ticket **%s**.\n\n", t.Title())
	fmt.Fprintf(&b, "- From: %s\n", from)
	if summary := outcomeSummary(result); summary != "" {
		fmt.Fprintf(&b, "- Status: %s\n", summary)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(body)
	text := b.String()

	subject := correlation.WithSubjectMarker("Fwd: "+strings.TrimSpace(in.Subject), t.ID())
	idempotencyKey := ""
	if in.EmailID != "" {
		idempotencyKey = "forward-" + in.EmailID
	}

	if _, err := uc.sender.Send(ctx, emailsender.Message{
		FromAddress:    uc.cfg.FromAddress,
		FromName:       uc.cfg.FromName,
		To:             t.OwnerEmail(),
		ReplyTo:        sender,
		Subject:        subject,
		HTML:           uc.renderer.EnsureHTML(text),
		Text:           text,
		MessageID:      correlation.NewMessageID(t.ID(), uc.cfg.ReplyDomain),
		IdempotencyKey: idempotencyKey,
	}); err != nil {
		uc.logger.Warnw("failed to forward reply to owner", "ticket_id", t.ID(), "error", err)
		return false
	}
	return true
}

func (uc *HandleInboundReplyUseCase) plainBody(in emailevent.InboundEmail) string {
	if text := strings.TrimSpace(in.Text); text != "" {
		return text
	}
	if in.HTML == "" {
		return ""
	}
	return uc.renderer.PlainText(in.HTML)
}

func outcomeSummary(result *HandleInboundReplyResult) string {
	switch result.Outcome {
	case OutcomeQuoteCreated:
		return "quote received and ranked"
	case OutcomeDeclined:
		if result.Detail != "" {
			return "vendor declined (" + result.Detail + ")"
		}
		return "vendor declined"
	case OutcomeIncompleteQuote:
		return "quote is missing price or timing"
	case OutcomeUnknownSender:
		return "sender is not a known vendor"
	}
	return ""
}

// senderAddress returns the bare lowercase address of a From header.
func senderAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.Trim(from, "<>"))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
