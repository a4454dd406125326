package mappers

import (
	"vendorflow/internal/domain/quote"
	"vendorflow/internal/infrastructure/persistence/models"
)

type QuoteMapper interface {
	ToModel(q *quote.VendorQuote) *models.VendorQuoteModel
	ToDomain(model *models.VendorQuoteModel) (*quote.VendorQuote, error)
}

type QuoteMapperImpl struct{}

func NewQuoteMapper() QuoteMapper {
	return &QuoteMapperImpl{}
}

func (m *QuoteMapperImpl) ToModel(q *quote.VendorQuote) *models.VendorQuoteModel {
	terms := q.Terms()
	return &models.VendorQuoteModel{
		ID:                    q.ID(),
		TicketID:              q.TicketID(),
		VendorID:              q.VendorID(),
		VendorOutreachID:      q.VendorOutreachID(),
		Price:                 terms.Price,
		Currency:              terms.Currency,
		EstimatedDeliveryTime: terms.EstimatedDeliveryTime,
		ScheduledDate:         terms.ScheduledDate,
		FixDuration:           terms.FixDuration,
		Ratings:               terms.Ratings,
		Notes:                 terms.Notes,
		ResponseText:          q.ResponseText(),
		ResponseReceivedAt:    q.ResponseReceivedAt(),
		Status:                string(q.Status()),
		Score:                 q.Score(),
		CreatedAt:             q.CreatedAt(),
		UpdatedAt:             q.UpdatedAt(),
	}
}

func (m *QuoteMapperImpl) ToDomain(model *models.VendorQuoteModel) (*quote.VendorQuote, error) {
	if model == nil {
		return nil, nil
	}
	return quote.ReconstructVendorQuote(
		model.ID,
		model.TicketID,
		model.VendorID,
		model.VendorOutreachID,
		quote.Terms{
			Price:                 model.Price,
			Currency:              model.Currency,
			EstimatedDeliveryTime: model.EstimatedDeliveryTime,
			ScheduledDate:         utcPtr(model.ScheduledDate),
			FixDuration:           model.FixDuration,
			Ratings:               model.Ratings,
			Notes:                 model.Notes,
		},
		model.ResponseText,
		utcPtr(model.ResponseReceivedAt),
		quote.Status(model.Status),
		model.Score,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}
