package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"vendorflow/internal/application/common/correlation"
	"vendorflow/internal/application/outreach/emailsender"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/db"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/services/markdown"
)

type SelectVendorCommand struct {
	TicketID string
	QuoteID  string
}

type SelectVendorResult struct {
	TicketID         string          `json:"ticket_id"`
	QuoteID          string          `json:"quote_id"`
	VendorID         string          `json:"vendor_id"`
	TicketStatus     vo.TicketStatus `json:"ticket_status"`
	ScheduledDate    *time.Time      `json:"scheduled_date,omitempty"`
	RejectedQuoteIDs []string        `json:"rejected_quote_ids"`
	ConfirmationSent bool            `json:"confirmation_sent"`
	DeclinesSent     int             `json:"declines_sent"`
	DeclinesFailed   int             `json:"declines_failed"`
}

type SelectVendorConfig struct {
	FromAddress string
	FromName    string
	ReplyDomain string
}

// SelectVendorUseCase picks the winning quote for a ticket and tells the
// vendors. The state change commits before any email goes out.
type SelectVendorUseCase struct {
	ticketRepo       ticket.Repository
	conversationRepo ticket.ConversationRepository
	quoteRepo        quote.Repository
	vendorRepo       vendor.Repository
	mappingRepo      outreach.EmailMappingRepository
	txMgr            db.Transactor
	renderer         markdown.Service
	sender           emailsender.EmailSender
	cfg              SelectVendorConfig
	logger           logger.Interface
}

func NewSelectVendorUseCase(
	ticketRepo ticket.Repository,
	conversationRepo ticket.ConversationRepository,
	quoteRepo quote.Repository,
	vendorRepo vendor.Repository,
	mappingRepo outreach.EmailMappingRepository,
	txMgr db.Transactor,
	renderer markdown.Service,
	sender emailsender.EmailSender,
	cfg SelectVendorConfig,
	logger logger.Interface,
) *SelectVendorUseCase {
	return &SelectVendorUseCase{
		ticketRepo:       ticketRepo,
		conversationRepo: conversationRepo,
		quoteRepo:        quoteRepo,
		vendorRepo:       vendorRepo,
		mappingRepo:      mappingRepo,
		txMgr:            txMgr,
		renderer:         renderer,
		sender:           sender,
		cfg:              cfg,
		logger:           logger,
	}
}

func (uc *SelectVendorUseCase) Execute(ctx context.Context, cmd SelectVendorCommand) (*SelectVendorResult, error) {
	uc.logger.Infow("executing select vendor use case", "ticket_id", cmd.TicketID, "quote_id", cmd.QuoteID)

	t, err := uc.ticketRepo.GetByID(ctx, cmd.TicketID)
	if err != nil {
		uc.logger.Errorw("failed to get ticket", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket")
	}
	if t == nil {
		return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
	}

	chosen, err := uc.quoteRepo.GetByID(ctx, cmd.QuoteID)
	if err != nil {
		uc.logger.Errorw("failed to get quote", "quote_id", cmd.QuoteID, "error", err)
		return nil, errors.NewInternalError("failed to get quote")
	}
	if chosen == nil {
		return nil, errors.NewNotFoundError("quote not found", cmd.QuoteID)
	}
	if chosen.TicketID() != t.ID() {
		return nil, errors.NewValidationError("quote does not belong to ticket", cmd.QuoteID)
	}
	if chosen.Status() != quote.StatusReceived {
		return nil, errors.NewConflictError(fmt.Sprintf("quote is %s, only received quotes can be selected", chosen.Status()))
	}

	var demoted, rejected []*quote.VendorQuote
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		quotes, err := uc.quoteRepo.ListByTicket(txCtx, t.ID())
		if err != nil {
			return fmt.Errorf("failed to list quotes: %w", err)
		}

		// The previous winner goes first so two selected quotes never coexist.
		for _, q := range quotes {
			if q.ID() == chosen.ID() || q.Status() != quote.StatusSelected {
				continue
			}
			if err := uc.reject(txCtx, q); err != nil {
				return err
			}
			demoted = append(demoted, q)
		}

		if err := chosen.Select(); err != nil {
			return err
		}
		if err := uc.quoteRepo.Update(txCtx, chosen); err != nil {
			return fmt.Errorf("failed to update quote %s: %w", chosen.ID(), err)
		}

		for _, q := range quotes {
			if q.ID() == chosen.ID() || q.Status() != quote.StatusReceived {
				continue
			}
			if err := uc.reject(txCtx, q); err != nil {
				return err
			}
			rejected = append(rejected, q)
		}

		if err := t.RecordSelection(chosen.VendorID(), chosen.ID(), chosen.ScheduledDate()); err != nil {
			return err
		}
		if err := uc.ticketRepo.Update(txCtx, t); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to select vendor", "ticket_id", t.ID(), "quote_id", chosen.ID(), "error", err)
		if stderrors.Is(err, ticket.ErrInvalidTransition) || stderrors.Is(err, quote.ErrInvalidTransition) {
			return nil, errors.NewConflictError("ticket cannot accept a selection", err.Error())
		}
		return nil, errors.NewInternalError("failed to select vendor")
	}

	declined := append(demoted, rejected...)
	result := &SelectVendorResult{
		TicketID:         t.ID(),
		QuoteID:          chosen.ID(),
		VendorID:         chosen.VendorID(),
		TicketStatus:     t.Status(),
		ScheduledDate:    t.ScheduledDate(),
		RejectedQuoteIDs: make([]string, 0, len(declined)),
	}
	for _, q := range declined {
		result.RejectedQuoteIDs = append(result.RejectedQuoteIDs, q.ID())
	}

	uc.logger.Infow("vendor selected",
		"ticket_id", t.ID(),
		"quote_id", chosen.ID(),
		"vendor_id", chosen.VendorID(),
		"ticket_status", t.Status(),
		"rejected", len(result.RejectedQuoteIDs),
	)

	uc.notify(ctx, t, chosen, declined, result)
	return result, nil
}

func (uc *SelectVendorUseCase) reject(ctx context.Context, q *quote.VendorQuote) error {
	if err := q.Reject(); err != nil {
		return err
	}
	if err := uc.quoteRepo.Update(ctx, q); err != nil {
		return fmt.Errorf("failed to update quote %s: %w", q.ID(), err)
	}
	return nil
}

// notify emails the winner and the declined vendors. Nothing here fails the selection.
func (uc *SelectVendorUseCase) notify(
	ctx context.Context,
	t *ticket.Ticket,
	chosen *quote.VendorQuote,
	declined []*quote.VendorQuote,
	result *SelectVendorResult,
) {
	vendorIDs := []string{chosen.VendorID()}
	for _, q := range declined {
		vendorIDs = append(vendorIDs, q.VendorID())
	}
	vendors, err := uc.vendorRepo.GetByIDs(ctx, vendorIDs)
	if err != nil {
		uc.logger.Warnw("failed to load vendors for notifications", "ticket_id", t.ID(), "error", err)
		return
	}

	if v := vendors[chosen.VendorID()]; v != nil {
		subject := correlation.WithSubjectMarker("Quote accepted: "+t.Title(), t.ID())
		result.ConfirmationSent = uc.send(ctx, t, v, subject, confirmationBody(t, v, chosen, uc.cfg.FromName))
	}

	for _, q := range declined {
		v := vendors[q.VendorID()]
		if v == nil || v.ID() == chosen.VendorID() {
			continue
		}
		subject := correlation.WithSubjectMarker("Update on your quote: "+t.Title(), t.ID())
		if uc.send(ctx, t, v, subject, declineBody(t, v, uc.cfg.FromName)) {
			result.DeclinesSent++
		} else {
			result.DeclinesFailed++
		}
	}
}

func (uc *SelectVendorUseCase) send(ctx context.Context, t *ticket.Ticket, v *vendor.Vendor, subject, text string) bool {
	if !v.CanReceiveEmail() {
		uc.logger.Infow("vendor email suppressed, skipping notification", "vendor_id", v.ID(), "email_status", v.EmailStatus())
		return false
	}

	messageID := correlation.NewMessageID(t.ID(), uc.cfg.ReplyDomain)
	sent, err := uc.sender.Send(ctx, emailsender.Message{
		FromAddress: uc.cfg.FromAddress,
		FromName:    uc.cfg.FromName,
		To:          v.Email(),
		Subject:     subject,
		HTML:        uc.renderer.EnsureHTML(text),
		Text:        text,
		MessageID:   messageID,
	})
	if err != nil {
		uc.logger.Warnw("failed to send selection notification", "ticket_id", t.ID(), "vendor_id", v.ID(), "error", err)
		return false
	}

	if mapping, err := outreach.NewEmailMapping(sent.EmailID, t.ID(), v.ID(), messageID, biztime.NowUTC()); err == nil {
		if err := uc.mappingRepo.Save(ctx, mapping); err != nil {
			uc.logger.Warnw("failed to save notification mapping", "email_id", sent.EmailID, "error", err)
		}
	}
	if msg, err := ticket.NewConversationMessage(t.ID(), v.ID(), ticket.DirectionOutbound, uc.cfg.FromAddress, v.Email(), subject, text, sent.EmailID); err == nil {
		if err := uc.conversationRepo.Append(ctx, msg); err != nil {
			uc.logger.Warnw("failed to append notification message", "ticket_id", t.ID(), "error", err)
		}
	}
	return true
}

func confirmationBody(t *ticket.Ticket, v *vendor.Vendor, q *quote.VendorQuote, signature string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", v.BusinessName())
	fmt.Fprintf(&b, "Good news: we would like to go ahead with your quote for **%s**.\n\n", t.Title())
	fmt.Fprintf(&b, "- Price: %s\n", formatMoney(q.Price(), q.Currency()))
	if date := biztime.FormatDate(q.ScheduledDate()); date != "" {
		fmt.Fprintf(&b, "- Scheduled date: %s\n", date)
	}
	if d := q.FixDuration(); d != nil {
		fmt.Fprintf(&b, "- Expected duration: %d hours\n", *d)
	}
	if t.Location() != "" {
		fmt.Fprintf(&b, "- Location: %s\n", t.Location())
	}
	b.WriteString("\nPlease reply to confirm the details.\n\nThank you,\n")
	b.WriteString(signature)
	return b.String()
}

func declineBody(t *ticket.Ticket, v *vendor.Vendor, signature string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", v.BusinessName())
	fmt.Fprintf(&b, "Thank you for quoting on **%s**. We have gone with another vendor for this job, ", t.Title())
	b.WriteString("but we appreciate your time and hope to work with you in the future.\n\nBest regards,\n")
	b.WriteString(signature)
	return b.String()
}

// formatMoney renders minor units, e.g. 50000 USD as "500.00 USD".
func formatMoney(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
