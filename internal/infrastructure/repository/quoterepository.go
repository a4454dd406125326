package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vendorflow/internal/domain/quote"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/biztime"
	"vendorflow/internal/shared/db"
)

type QuoteRepository struct {
	db     *gorm.DB
	mapper mappers.QuoteMapper
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{
		db:     db,
		mapper: mappers.NewQuoteMapper(),
	}
}

func (r *QuoteRepository) GetByID(ctx context.Context, quoteID string) (*quote.VendorQuote, error) {
	var model models.VendorQuoteModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", quoteID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *QuoteRepository) ListByTicket(ctx context.Context, ticketID string) ([]*quote.VendorQuote, error) {
	var rows []models.VendorQuoteModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	quotes := make([]*quote.VendorQuote, 0, len(rows))
	for i := range rows {
		q, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (r *QuoteRepository) Save(ctx context.Context, q *quote.VendorQuote) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.ToModel(q)).Error; err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) Update(ctx context.Context, q *quote.VendorQuote) error {
	model := r.mapper.ToModel(q)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Omit("created_at").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	return nil
}

// UpdateScores writes only the score column so a concurrent status change is not overwritten.
func (r *QuoteRepository) UpdateScores(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}

	tx := db.GetTxFromContext(ctx, r.db)
	return tx.Transaction(func(tx *gorm.DB) error {
		now := biztime.NowUTC()
		for quoteID, score := range scores {
			err := tx.Model(&models.VendorQuoteModel{}).
				Where("id = ?", quoteID).
				Updates(map[string]any{"score": score, "updated_at": now}).Error
			if err != nil {
				return fmt.Errorf("failed to update score of quote %s: %w", quoteID, err)
			}
		}
		return nil
	})
}

func (r *QuoteRepository) ListReceivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*quote.VendorQuote, error) {
	var rows []models.VendorQuoteModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.Where("status = ? AND response_received_at < ?", string(quote.StatusReceived), cutoff).
		Order("response_received_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale quotes: %w", err)
	}

	quotes := make([]*quote.VendorQuote, 0, len(rows))
	for i := range rows {
		q, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
