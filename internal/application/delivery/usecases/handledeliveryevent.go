package usecases

import (
	"context"

	"vendorflow/internal/application/common/emailevent"
	ticketusecases "vendorflow/internal/application/ticket/usecases"
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
)

type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeUnknownEmail Outcome = "unknown_email"
)

type HandleDeliveryEventResult struct {
	EmailID       string                  `json:"email_id"`
	Outcome       Outcome                 `json:"outcome"`
	MappingStatus outreach.DeliveryStatus `json:"mapping_status,omitempty"`
	VendorStatus  vendor.EmailStatus      `json:"vendor_status,omitempty"`
	TicketStatus  vo.TicketStatus         `json:"ticket_status,omitempty"`
}

// HandleDeliveryEventUseCase applies provider delivery receipts to the email
// mapping, the vendor's email status and the ticket. Replaying an event leaves
// every record as it was.
type HandleDeliveryEventUseCase struct {
	mappingRepo outreach.EmailMappingRepository
	vendorRepo  vendor.Repository
	ticketRepo  ticket.Repository
	status      *ticketusecases.AdvanceStatusUseCase
	logger      logger.Interface
}

func NewHandleDeliveryEventUseCase(
	mappingRepo outreach.EmailMappingRepository,
	vendorRepo vendor.Repository,
	ticketRepo ticket.Repository,
	status *ticketusecases.AdvanceStatusUseCase,
	logger logger.Interface,
) *HandleDeliveryEventUseCase {
	return &HandleDeliveryEventUseCase{
		mappingRepo: mappingRepo,
		vendorRepo:  vendorRepo,
		ticketRepo:  ticketRepo,
		status:      status,
		logger:      logger,
	}
}

func (uc *HandleDeliveryEventUseCase) Execute(ctx context.Context, event emailevent.Delivery) (*HandleDeliveryEventResult, error) {
	if event.EmailID == "" || !event.Type.IsValid() {
		return nil, errors.NewValidationError("invalid delivery event", string(event.Type))
	}

	mapping, err := uc.mappingRepo.GetByEmailID(ctx, event.EmailID)
	if err != nil {
		uc.logger.Errorw("failed to get email mapping", "email_id", event.EmailID, "error", err)
		return nil, errors.NewInternalError("failed to get email mapping")
	}
	if mapping == nil {
		uc.logger.Warnw("delivery event for unknown email, dropping", "email_id", event.EmailID, "type", event.Type)
		return &HandleDeliveryEventResult{EmailID: event.EmailID, Outcome: OutcomeUnknownEmail}, nil
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = biztime.NowUTC()
	}

	changed, err := mapping.Record(outreach.DeliveryStatus(event.Type), at, event.Reason)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if changed {
		if err := uc.mappingRepo.Update(ctx, mapping); err != nil {
			uc.logger.Errorw("failed to update email mapping", "email_id", event.EmailID, "error", err)
			return nil, errors.NewInternalError("failed to update email mapping")
		}
	}

	result := &HandleDeliveryEventResult{
		EmailID:       event.EmailID,
		Outcome:       OutcomeApplied,
		MappingStatus: mapping.Status(),
	}

	v, err := uc.applyToVendor(ctx, mapping.VendorID(), event)
	if err != nil {
		return nil, err
	}
	if v != nil {
		result.VendorStatus = v.EmailStatus()
	}

	t, err := uc.applyToTicket(ctx, mapping.TicketID(), event.Type)
	if err != nil {
		return nil, err
	}
	if t != nil {
		result.TicketStatus = t.Status()
	}

	uc.logger.Infow("delivery event applied",
		"email_id", event.EmailID,
		"type", event.Type,
		"ticket_id", mapping.TicketID(),
		"vendor_id", mapping.VendorID(),
		"mapping_status", mapping.Status(),
	)
	return result, nil
}

func (uc *HandleDeliveryEventUseCase) applyToVendor(ctx context.Context, vendorID string, event emailevent.Delivery) (*vendor.Vendor, error) {
	v, err := uc.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		uc.logger.Errorw("failed to get vendor", "vendor_id", vendorID, "error", err)
		return nil, errors.NewInternalError("failed to get vendor")
	}
	if v == nil {
		uc.logger.Warnw("delivery event for unknown vendor", "vendor_id", vendorID, "email_id", event.EmailID)
		return nil, nil
	}

	var changed bool
	switch event.Type {
	case emailevent.DeliveryDelivered:
		changed = v.MarkDelivered()
	case emailevent.DeliveryBounced:
		changed = v.MarkBounced(reasonOr(event.Reason, "email bounced"))
	case emailevent.DeliveryComplained:
		changed = v.MarkDoNotEmail(reasonOr(event.Reason, "recipient marked email as spam"))
	}
	if !changed {
		return v, nil
	}

	if err := uc.vendorRepo.Update(ctx, v); err != nil {
		uc.logger.Errorw("failed to update vendor email status", "vendor_id", v.ID(), "error", err)
		return nil, errors.NewInternalError("failed to update vendor")
	}
	uc.logger.Infow("vendor email status changed", "vendor_id", v.ID(), "email_status", v.EmailStatus())
	return v, nil
}

func (uc *HandleDeliveryEventUseCase) applyToTicket(ctx context.Context, ticketID string, eventType emailevent.DeliveryType) (*ticket.Ticket, error) {
	if eventType != emailevent.DeliveryBounced && eventType != emailevent.DeliveryComplained {
		return nil, nil
	}

	t, err := uc.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		uc.logger.Errorw("failed to get ticket", "ticket_id", ticketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket")
	}
	if t == nil {
		return nil, nil
	}

	switch eventType {
	case emailevent.DeliveryBounced:
		// Only a ticket still waiting on replies is demoted by a bounce.
		if t.Status() != vo.StatusRequestedForInformation {
			return t, nil
		}
	case emailevent.DeliveryComplained:
		if t.Status().IsFinished() {
			return t, nil
		}
	}

	if _, err := uc.status.Advance(ctx, t, vo.StatusAwaitingVendor, "email "+string(eventType)); err != nil {
		return nil, err
	}
	return t, nil
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
