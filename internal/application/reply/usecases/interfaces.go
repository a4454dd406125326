package usecases

import (
	"context"

	rankingusecases "vendorflow/internal/application/ranking/usecases"
)

// QuoteRanker recomputes the ranking after a new quote lands.
type QuoteRanker interface {
	Execute(ctx context.Context, cmd rankingusecases.RankVendorsCommand) (*rankingusecases.RankVendorsResult, error)
}
