package usecases

import (
	"context"

	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/domain/ticket"
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/logger"
)

type RankVendorsCommand struct {
	TicketID string
}

type VendorRanking struct {
	Rank                  int            `json:"rank"`
	QuoteID               string         `json:"quote_id"`
	VendorID              string         `json:"vendor_id"`
	BusinessName          string         `json:"business_name,omitempty"`
	Price                 int64          `json:"price"`
	Currency              string         `json:"currency"`
	EstimatedDeliveryTime int            `json:"estimated_delivery_time"`
	QuoteStatus           quote.Status   `json:"quote_status"`
	Score                 float64        `json:"score"`
	Breakdown             ScoreBreakdown `json:"breakdown"`
}

type RankVendorsResult struct {
	TicketID string          `json:"ticket_id"`
	Rankings []VendorRanking `json:"rankings"`
}

// RankVendorsUseCase recomputes the score of every live quote on a ticket.
type RankVendorsUseCase struct {
	ticketRepo   ticket.Repository
	quoteRepo    quote.Repository
	vendorRepo   vendor.Repository
	outreachRepo outreach.Repository
	logger       logger.Interface
}

func NewRankVendorsUseCase(
	ticketRepo ticket.Repository,
	quoteRepo quote.Repository,
	vendorRepo vendor.Repository,
	outreachRepo outreach.Repository,
	logger logger.Interface,
) *RankVendorsUseCase {
	return &RankVendorsUseCase{
		ticketRepo:   ticketRepo,
		quoteRepo:    quoteRepo,
		vendorRepo:   vendorRepo,
		outreachRepo: outreachRepo,
		logger:       logger,
	}
}

func (uc *RankVendorsUseCase) Execute(ctx context.Context, cmd RankVendorsCommand) (*RankVendorsResult, error) {
	t, err := uc.ticketRepo.GetByID(ctx, cmd.TicketID)
	if err != nil {
		uc.logger.Errorw("failed to get ticket", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket")
	}
	if t == nil {
		return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
	}

	all, err := uc.quoteRepo.ListByTicket(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to list quotes", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to list quotes")
	}

	quotes := make([]*quote.VendorQuote, 0, len(all))
	vendorIDs := make([]string, 0, len(all))
	outreachIDs := make([]string, 0, len(all))
	for _, q := range all {
		if q.Status() != quote.StatusReceived && q.Status() != quote.StatusSelected {
			continue
		}
		quotes = append(quotes, q)
		vendorIDs = append(vendorIDs, q.VendorID())
		if q.VendorOutreachID() != "" {
			outreachIDs = append(outreachIDs, q.VendorOutreachID())
		}
	}

	result := &RankVendorsResult{TicketID: t.ID(), Rankings: []VendorRanking{}}
	if len(quotes) == 0 {
		return result, nil
	}

	vendors, err := uc.vendorRepo.GetByIDs(ctx, vendorIDs)
	if err != nil {
		uc.logger.Errorw("failed to get vendors for ranking", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to get vendors")
	}
	outreaches, err := uc.outreachRepo.GetByIDs(ctx, outreachIDs)
	if err != nil {
		uc.logger.Errorw("failed to get outreach for ranking", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to get outreach")
	}

	ranked := ScoreQuotes(quotes, vendors, outreaches)

	scores := make(map[string]float64, len(ranked))
	for i, r := range ranked {
		scores[r.Quote.ID()] = r.Score
		if r.Vendor == nil || outreaches[r.Quote.VendorOutreachID()] == nil {
			uc.logger.Warnw("quote scored zero, vendor or outreach missing",
				"ticket_id", t.ID(),
				"quote_id", r.Quote.ID(),
			)
		}
		entry := VendorRanking{
			Rank:                  i + 1,
			QuoteID:               r.Quote.ID(),
			VendorID:              r.Quote.VendorID(),
			Price:                 r.Quote.Price(),
			Currency:              r.Quote.Currency(),
			EstimatedDeliveryTime: r.Quote.EstimatedDeliveryTime(),
			QuoteStatus:           r.Quote.Status(),
			Score:                 r.Score,
			Breakdown:             r.Breakdown,
		}
		if r.Vendor != nil {
			entry.BusinessName = r.Vendor.BusinessName()
		}
		result.Rankings = append(result.Rankings, entry)
	}

	if err := uc.quoteRepo.UpdateScores(ctx, scores); err != nil {
		uc.logger.Errorw("failed to persist quote scores", "ticket_id", t.ID(), "error", err)
		return nil, errors.NewInternalError("failed to persist quote scores")
	}

	uc.logger.Infow("quotes ranked",
		"ticket_id", t.ID(),
		"quotes", len(ranked),
		"top_quote_id", ranked[0].Quote.ID(),
	)
	return result, nil
}
