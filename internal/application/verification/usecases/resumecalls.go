package usecases

import (
	"context"
	stderrors "errors"
	"time"

	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/logger"
)

const resumeBatchSize = 50

type ResumePendingCallsResult struct {
	Checked  int
	Ended    int
	TimedOut int
	Failed   int
}

// ResumePendingCallsUseCase finishes verification calls whose polling run did
// not survive, e.g. after a restart. High confidence emails captured this way
// replace the vendor's stored email.
type ResumePendingCallsUseCase struct {
	stepper     *CallStepper
	callLogRepo calllog.Repository
	vendorRepo  vendor.Repository
	timeout     time.Duration
	logger      logger.Interface
	now         func() time.Time
}

func NewResumePendingCallsUseCase(
	stepper *CallStepper,
	callLogRepo calllog.Repository,
	vendorRepo vendor.Repository,
	timeout time.Duration,
	logger logger.Interface,
) *ResumePendingCallsUseCase {
	return &ResumePendingCallsUseCase{
		stepper:     stepper,
		callLogRepo: callLogRepo,
		vendorRepo:  vendorRepo,
		timeout:     timeout,
		logger:      logger,
		now:         biztime.NowUTC,
	}
}

func (uc *ResumePendingCallsUseCase) Execute(ctx context.Context) (*ResumePendingCallsResult, error) {
	logs, err := uc.callLogRepo.ListPending(ctx, resumeBatchSize)
	if err != nil {
		uc.logger.Errorw("failed to list pending calls", "error", err)
		return nil, err
	}

	result := &ResumePendingCallsResult{}
	for _, l := range logs {
		result.Checked++

		step, err := uc.stepper.Step(ctx, l.CallID())
		if err != nil {
			result.Failed++
			uc.logger.Warnw("failed to step pending call", "call_id", l.CallID(), "error", err)
			if !stderrors.Is(err, ErrCallPollFailed) {
				continue
			}
		}

		if step != nil && step.Ended {
			result.Ended++
			uc.applyVerifiedEmail(ctx, step)
			continue
		}

		if uc.now().Sub(l.CreatedAt()) > uc.timeout {
			l.MarkPollError(ErrCallTimeout.Error())
			if err := uc.callLogRepo.Update(ctx, l); err != nil {
				uc.logger.Warnw("failed to record call timeout", "call_id", l.CallID(), "error", err)
				continue
			}
			result.TimedOut++
		}
	}

	if result.Checked > 0 {
		uc.logger.Infow("resumed pending calls",
			"checked", result.Checked,
			"ended", result.Ended,
			"timed_out", result.TimedOut,
			"failed", result.Failed,
		)
	}
	return result, nil
}

func (uc *ResumePendingCallsUseCase) applyVerifiedEmail(ctx context.Context, step *StepResult) {
	if step.Contact.Confidence != ConfidenceHigh || step.Contact.Email == "" {
		return
	}

	v, err := uc.vendorRepo.GetByID(ctx, step.Log.VendorID())
	if err != nil || v == nil {
		uc.logger.Warnw("vendor for verified email not found", "vendor_id", step.Log.VendorID(), "error", err)
		return
	}

	changed, err := v.UpdateEmail(step.Contact.Email)
	if err != nil || !changed {
		return
	}
	if err := uc.vendorRepo.Update(ctx, v); err != nil {
		uc.logger.Warnw("failed to store verified email", "vendor_id", v.ID(), "error", err)
		return
	}
	uc.logger.Infow("vendor email replaced by verified address", "vendor_id", v.ID(), "call_id", step.Log.CallID())
}
