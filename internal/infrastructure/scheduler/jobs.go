package scheduler

import (
	"context"
	"time"

	outreachUsecases "vendorflow/internal/application/outreach/usecases"
	verificationUsecases "vendorflow/internal/application/verification/usecases"
	"vendorflow/internal/shared/biztime"
)

const (
	outreachExpiryInterval = 15 * time.Minute
	callResumeInterval     = time.Minute
)

// PipelineJobs are the maintenance use cases the worker runs.
type PipelineJobs struct {
	ExpireOutreach *outreachUsecases.ExpireOutreachUseCase
	ResumeCalls    *verificationUsecases.ResumePendingCallsUseCase
}

// RegisterPipelineJobs registers the outreach expiry sweep and the pending
// call resume job.
func (m *SchedulerManager) RegisterPipelineJobs(jobs PipelineJobs) error {
	if jobs.ExpireOutreach != nil {
		err := m.Register(JobSpec{
			Name:     "outreach-expiry",
			Interval: outreachExpiryInterval,
			Job: BatchJobFunc(func(ctx context.Context) (int, error) {
				res, err := jobs.ExpireOutreach.Execute(ctx, biztime.NowUTC())
				if err != nil {
					return 0, err
				}
				return res.Expired + res.ExpiredQuotes, nil
			}),
		})
		if err != nil {
			return err
		}
	}

	if jobs.ResumeCalls != nil {
		err := m.Register(JobSpec{
			Name:     "call-resume",
			Interval: callResumeInterval,
			Timeout:  5 * time.Minute,
			Job: BatchJobFunc(func(ctx context.Context) (int, error) {
				res, err := jobs.ResumeCalls.Execute(ctx)
				if err != nil {
					return 0, err
				}
				return res.Ended + res.TimedOut, nil
			}),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
