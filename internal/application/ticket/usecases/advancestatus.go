package usecases

import (
	"context"
	"errors"

	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	apperrors "vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
)

// TicketMutation changes a ticket's status through one of its domain methods.
type TicketMutation func(t *ticket.Ticket) (bool, error)

// AdvanceTo returns the mutation for a plain status transition.
func AdvanceTo(status vo.TicketStatus) TicketMutation {
	return func(t *ticket.Ticket) (bool, error) {
		return t.AdvanceTo(status)
	}
}

type AdvanceStatusResult struct {
	TicketID  string
	OldStatus vo.TicketStatus
	NewStatus vo.TicketStatus
	Changed   bool
	Rejected  bool
}

// AdvanceStatusUseCase applies ticket status changes for the pipeline stages.
// A transition the table does not allow is logged and the ticket keeps its last
// good status; only persistence failures are returned as errors.
type AdvanceStatusUseCase struct {
	ticketRepo ticket.Repository
	logger     logger.Interface
}

func NewAdvanceStatusUseCase(
	ticketRepo ticket.Repository,
	logger logger.Interface,
) *AdvanceStatusUseCase {
	return &AdvanceStatusUseCase{
		ticketRepo: ticketRepo,
		logger:     logger,
	}
}

// Advance moves t to status.
func (uc *AdvanceStatusUseCase) Advance(ctx context.Context, t *ticket.Ticket, status vo.TicketStatus, reason string) (*AdvanceStatusResult, error) {
	return uc.Apply(ctx, t, reason, AdvanceTo(status))
}

// Apply runs mutate on t and persists the ticket when anything changed.
func (uc *AdvanceStatusUseCase) Apply(ctx context.Context, t *ticket.Ticket, reason string, mutate TicketMutation) (*AdvanceStatusResult, error) {
	oldStatus := t.Status()
	oldQuoteStatus := t.QuoteStatus()

	result := &AdvanceStatusResult{
		TicketID:  t.ID(),
		OldStatus: oldStatus,
	}

	changed, err := mutate(t)
	if err != nil {
		if !errors.Is(err, ticket.ErrInvalidTransition) {
			uc.logger.Errorw("ticket mutation failed", "ticket_id", t.ID(), "reason", reason, "error", err)
			return nil, apperrors.NewInternalError("failed to change ticket status", err.Error())
		}
		uc.logger.Warnw("ticket transition rejected, keeping status",
			"ticket_id", t.ID(),
			"status", oldStatus,
			"reason", reason,
			"error", err,
		)
		result.Rejected = true
	}

	result.NewStatus = t.Status()
	result.Changed = changed

	if !changed && t.QuoteStatus() == oldQuoteStatus {
		return result, nil
	}

	if err := uc.ticketRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to update ticket", "ticket_id", t.ID(), "error", err)
		return nil, apperrors.NewInternalError("failed to update ticket")
	}

	if changed {
		uc.logger.Infow("ticket status changed",
			"ticket_id", t.ID(),
			"old_status", oldStatus,
			"new_status", t.Status(),
			"reason", reason,
		)
	}

	return result, nil
}
