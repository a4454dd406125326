package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"vendorflow/internal/application/verification/voicecaller"
	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/logger"
)

const defaultMaxPollFailures = 3

type VerifyContactCommand struct {
	TicketID      string
	VendorID      string
	BusinessName  string
	PhoneNumber   string
	OriginalEmail string
	TicketSummary string
}

// VerifyContactResult never carries an error value: verification is optional
// and callers fall back to the original email when Success is false.
type VerifyContactResult struct {
	Success       bool
	Skipped       bool
	CallID        string
	VerifiedEmail string
	Confidence    Confidence
	ContactName   string
	Department    string
	Error         string
}

type VerifyContactConfig struct {
	PollInterval    time.Duration
	Timeout         time.Duration
	MaxPollFailures int
}

type VerifyContactUseCase struct {
	caller      voicecaller.VoiceCaller
	callLogRepo calllog.Repository
	stepper     *CallStepper
	cfg         VerifyContactConfig
	logger      logger.Interface
	now         func() time.Time
}

func NewVerifyContactUseCase(
	caller voicecaller.VoiceCaller,
	callLogRepo calllog.Repository,
	cfg VerifyContactConfig,
	logger logger.Interface,
) *VerifyContactUseCase {
	if cfg.MaxPollFailures <= 0 {
		cfg.MaxPollFailures = defaultMaxPollFailures
	}
	return &VerifyContactUseCase{
		caller:      caller,
		callLogRepo: callLogRepo,
		stepper:     NewCallStepper(caller, callLogRepo, logger),
		cfg:         cfg,
		logger:      logger,
		now:         biztime.NowUTC,
	}
}

// Execute places a call to the vendor and blocks until it ends, fails or times out.
func (uc *VerifyContactUseCase) Execute(ctx context.Context, cmd VerifyContactCommand) *VerifyContactResult {
	phone := NormalizePhone(cmd.PhoneNumber)
	if phone == "" {
		uc.logger.Infow("skipping verification call, phone is not a NANP number",
			"ticket_id", cmd.TicketID,
			"vendor_id", cmd.VendorID,
		)
		return &VerifyContactResult{Skipped: true, Error: "phone number could not be normalized"}
	}

	uc.logger.Infow("placing verification call", "ticket_id", cmd.TicketID, "vendor_id", cmd.VendorID)

	callID, err := uc.caller.CreateCall(ctx, voicecaller.CreateCallRequest{
		PhoneNumber:   phone,
		BusinessName:  cmd.BusinessName,
		TicketSummary: cmd.TicketSummary,
		Metadata: map[string]string{
			"ticket_id": cmd.TicketID,
			"vendor_id": cmd.VendorID,
		},
	})
	if err != nil {
		uc.logger.Errorw("failed to create verification call", "vendor_id", cmd.VendorID, "error", err)
		return &VerifyContactResult{Error: fmt.Sprintf("failed to create call: %v", err)}
	}

	l, err := calllog.NewVendorCallLog(callID, cmd.TicketID, cmd.VendorID, phone, cmd.OriginalEmail)
	if err != nil {
		return &VerifyContactResult{CallID: callID, Error: err.Error()}
	}
	if err := uc.callLogRepo.Save(ctx, l); err != nil {
		uc.logger.Errorw("failed to save call log", "call_id", callID, "error", err)
		return &VerifyContactResult{CallID: callID, Error: "failed to save call log"}
	}

	step, err := uc.pollUntilDone(ctx, callID)
	if err != nil {
		uc.logger.Warnw("verification call did not complete",
			"call_id", callID,
			"vendor_id", cmd.VendorID,
			"error", err,
		)
		return &VerifyContactResult{CallID: callID, Error: err.Error()}
	}
	if !step.Ended {
		return &VerifyContactResult{CallID: callID, Error: "call log is no longer pending: " + step.Log.LastError()}
	}

	return &VerifyContactResult{
		Success:       true,
		CallID:        callID,
		VerifiedEmail: step.Contact.Email,
		Confidence:    step.Contact.Confidence,
		ContactName:   step.Contact.ContactName,
		Department:    step.Contact.Department,
	}
}

func (uc *VerifyContactUseCase) pollUntilDone(ctx context.Context, callID string) (*StepResult, error) {
	deadline := uc.now().Add(uc.cfg.Timeout)
	failures := 0

	for {
		step, err := uc.stepper.Step(ctx, callID)
		switch {
		case err == nil && step.Done:
			return step, nil
		case err == nil:
			failures = 0
		case stderrors.Is(err, ErrCallPollFailed):
			failures++
			uc.logger.Warnw("call poll failed", "call_id", callID, "attempt", failures, "error", err)
			if failures >= uc.cfg.MaxPollFailures {
				uc.markPollError(ctx, callID, err.Error())
				return nil, err
			}
		default:
			return nil, err
		}

		if !uc.now().Before(deadline) {
			uc.markPollError(ctx, callID, ErrCallTimeout.Error())
			return nil, ErrCallTimeout
		}

		if err := biztime.Sleep(ctx, uc.cfg.PollInterval); err != nil {
			uc.markPollError(ctx, callID, "polling cancelled: "+err.Error())
			return nil, fmt.Errorf("%w: %v", ErrCallPollFailed, err)
		}
	}
}

func (uc *VerifyContactUseCase) markPollError(ctx context.Context, callID, reason string) {
	ctx = context.WithoutCancel(ctx)

	l, err := uc.callLogRepo.GetByCallID(ctx, callID)
	if err != nil || l == nil {
		uc.logger.Warnw("failed to load call log to record poll error", "call_id", callID, "error", err)
		return
	}
	l.MarkPollError(reason)
	if err := uc.callLogRepo.Update(ctx, l); err != nil {
		uc.logger.Warnw("failed to record poll error", "call_id", callID, "error", err)
	}
}
