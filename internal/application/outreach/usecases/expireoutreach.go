package usecases

import (
	"context"
	"time"

	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/shared/logger"
)

const expireBatchSize = 100

type ExpireOutreachResult struct {
	Expired       int
	ExpiredQuotes int
}

// ExpireOutreachUseCase moves unanswered outreach past its expiry to expired,
// and expires received quotes that stayed unselected beyond their validity.
type ExpireOutreachUseCase struct {
	outreachRepo  outreach.Repository
	quoteRepo     quote.Repository
	quoteValidity time.Duration
	logger        logger.Interface
}

// NewExpireOutreachUseCase builds the sweep. A zero quoteValidity or nil
// quoteRepo leaves quotes alone.
func NewExpireOutreachUseCase(
	outreachRepo outreach.Repository,
	quoteRepo quote.Repository,
	quoteValidity time.Duration,
	logger logger.Interface,
) *ExpireOutreachUseCase {
	return &ExpireOutreachUseCase{
		outreachRepo:  outreachRepo,
		quoteRepo:     quoteRepo,
		quoteValidity: quoteValidity,
		logger:        logger,
	}
}

func (uc *ExpireOutreachUseCase) Execute(ctx context.Context, now time.Time) (*ExpireOutreachResult, error) {
	records, err := uc.outreachRepo.ListExpired(ctx, now, expireBatchSize)
	if err != nil {
		uc.logger.Errorw("failed to list expired outreach", "error", err)
		return nil, err
	}

	result := &ExpireOutreachResult{}
	for _, o := range records {
		if !o.Expire(now) {
			continue
		}
		if err := uc.outreachRepo.Update(ctx, o); err != nil {
			uc.logger.Warnw("failed to expire outreach", "outreach_id", o.ID(), "error", err)
			continue
		}
		result.Expired++
	}

	expired, err := uc.expireQuotes(ctx, now)
	if err != nil {
		return nil, err
	}
	result.ExpiredQuotes = expired

	if result.Expired > 0 || result.ExpiredQuotes > 0 {
		uc.logger.Infow("expiry sweep finished", "outreach", result.Expired, "quotes", result.ExpiredQuotes)
	}
	return result, nil
}

func (uc *ExpireOutreachUseCase) expireQuotes(ctx context.Context, now time.Time) (int, error) {
	if uc.quoteRepo == nil || uc.quoteValidity <= 0 {
		return 0, nil
	}

	quotes, err := uc.quoteRepo.ListReceivedBefore(ctx, now.Add(-uc.quoteValidity), expireBatchSize)
	if err != nil {
		uc.logger.Errorw("failed to list stale quotes", "error", err)
		return 0, err
	}

	expired := 0
	for _, q := range quotes {
		if !q.IsStale(now, uc.quoteValidity) {
			continue
		}
		if err := q.Expire(); err != nil {
			uc.logger.Warnw("failed to expire quote", "quote_id", q.ID(), "error", err)
			continue
		}
		if err := uc.quoteRepo.Update(ctx, q); err != nil {
			uc.logger.Warnw("failed to save expired quote", "quote_id", q.ID(), "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}
