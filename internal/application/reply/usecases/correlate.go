package usecases

import (
	"context"

	"vendorflow/internal/application/common/correlation"
	"vendorflow/internal/application/common/emailevent"
	"vendorflow/internal/domain/ticket"
)

type CorrelationSource string

const (
	SourceSubject    CorrelationSource = "subject"
	SourceInReplyTo  CorrelationSource = "in_reply_to"
	SourceReferences CorrelationSource = "references"
	SourceMessageID  CorrelationSource = "message_id"
	SourceBody       CorrelationSource = "body"
)

type correlationCandidate struct {
	source   CorrelationSource
	ticketID string
}

// correlate resolves the ticket an inbound email belongs to. Candidates are
// tried in priority order and the first one naming an existing ticket wins.
func (uc *HandleInboundReplyUseCase) correlate(ctx context.Context, in *emailevent.InboundEmail, body string) (*ticket.Ticket, CorrelationSource, error) {
	for _, c := range uc.correlationCandidates(ctx, in, body) {
		t, err := uc.ticketRepo.GetByID(ctx, c.ticketID)
		if err != nil {
			return nil, "", err
		}
		if t != nil {
			return t, c.source, nil
		}
		uc.logger.Debugw("correlated ticket does not exist", "ticket_id", c.ticketID, "source", c.source)
	}
	return nil, "", nil
}

func (uc *HandleInboundReplyUseCase) correlationCandidates(ctx context.Context, in *emailevent.InboundEmail, body string) []correlationCandidate {
	var out []correlationCandidate
	add := func(source CorrelationSource, ticketID string, ok bool) {
		if ok {
			out = append(out, correlationCandidate{source: source, ticketID: ticketID})
		}
	}

	ticketID, ok := correlation.FromSubject(in.Subject)
	add(SourceSubject, ticketID, ok)

	for _, messageID := range correlation.SplitMessageIDs(in.InReplyTo) {
		ticketID, ok := uc.fromHeader(ctx, messageID)
		add(SourceInReplyTo, ticketID, ok)
	}

	// The last reference is the message being answered.
	for i := len(in.References) - 1; i >= 0; i-- {
		for _, messageID := range correlation.SplitMessageIDs(in.References[i]) {
			ticketID, ok := uc.fromHeader(ctx, messageID)
			add(SourceReferences, ticketID, ok)
		}
	}

	ticketID, ok = uc.fromHeader(ctx, in.MessageID)
	add(SourceMessageID, ticketID, ok)

	ticketID, ok = correlation.FromBody(body)
	add(SourceBody, ticketID, ok)

	return out
}

// fromHeader reads a ticket id out of one of our Message-IDs, falling back to
// the id stored when the email was sent.
func (uc *HandleInboundReplyUseCase) fromHeader(ctx context.Context, messageID string) (string, bool) {
	if messageID == "" {
		return "", false
	}
	if ticketID, ok := correlation.FromMessageID(messageID); ok {
		return ticketID, true
	}

	mapping, err := uc.mappingRepo.GetByMessageID(ctx, correlation.NormalizeMessageID(messageID))
	if err != nil {
		uc.logger.Warnw("failed to look up message id", "message_id", messageID, "error", err)
		return "", false
	}
	if mapping == nil {
		return "", false
	}
	return mapping.TicketID(), true
}
