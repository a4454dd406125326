package usecases

import (
	"context"
	"fmt"

	"vendorflow/internal/application/verification/voicecaller"
	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
)

// StepResult is the state of a call after one poll.
type StepResult struct {
	Done    bool
	Ended   bool
	Log     *calllog.VendorCallLog
	Contact ContactExtraction
}

// CallStepper advances a persisted call by one provider poll. Any worker can
// drive a call to completion by calling Step until Done.
type CallStepper struct {
	caller      voicecaller.VoiceCaller
	callLogRepo calllog.Repository
	logger      logger.Interface
}

func NewCallStepper(
	caller voicecaller.VoiceCaller,
	callLogRepo calllog.Repository,
	logger logger.Interface,
) *CallStepper {
	return &CallStepper{
		caller:      caller,
		callLogRepo: callLogRepo,
		logger:      logger,
	}
}

// Step polls the provider once. Poll transport failures are returned wrapped
// in ErrCallPollFailed.
func (s *CallStepper) Step(ctx context.Context, callID string) (*StepResult, error) {
	l, err := s.callLogRepo.GetByCallID(ctx, callID)
	if err != nil {
		s.logger.Errorw("failed to get call log", "call_id", callID, "error", err)
		return nil, errors.NewInternalError("failed to get call log")
	}
	if l == nil {
		return nil, errors.NewNotFoundError("call log not found", callID)
	}

	if !l.IsPending() {
		return &StepResult{
			Done:    true,
			Ended:   l.Status() == calllog.StatusEnded,
			Log:     l,
			Contact: ExtractContact(l.Transcript()),
		}, nil
	}

	l.RecordPoll()
	call, err := s.caller.GetCall(ctx, callID)
	if err != nil {
		if updateErr := s.callLogRepo.Update(ctx, l); updateErr != nil {
			s.logger.Warnw("failed to record poll attempt", "call_id", callID, "error", updateErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCallPollFailed, err)
	}

	if call.Status != voicecaller.CallEnded {
		if err := s.callLogRepo.Update(ctx, l); err != nil {
			s.logger.Warnw("failed to record poll attempt", "call_id", callID, "error", err)
		}
		return &StepResult{Log: l}, nil
	}

	if call.Transcript.Kind == voicecaller.TranscriptNone {
		s.logger.Warnw("call ended without a recognizable transcript", "call_id", callID, "ended_reason", call.EndedReason)
	}

	transcript := call.Transcript.Text()
	contact := ExtractContact(transcript)

	l.Finish(calllog.Outcome{
		Transcript:    optional(transcript),
		VerifiedEmail: optional(contact.Email),
		EndedReason:   optional(call.EndedReason),
		RecordingURL:  optional(call.RecordingURL),
		Analysis:      call.Analysis,
	})
	if err := s.callLogRepo.Update(ctx, l); err != nil {
		s.logger.Errorw("failed to finalize call log", "call_id", callID, "error", err)
		return nil, errors.NewInternalError("failed to update call log")
	}

	s.logger.Infow("verification call ended",
		"call_id", callID,
		"ticket_id", l.TicketID(),
		"vendor_id", l.VendorID(),
		"ended_reason", call.EndedReason,
		"confidence", contact.Confidence,
	)

	return &StepResult{
		Done:    true,
		Ended:   true,
		Log:     l,
		Contact: contact,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
