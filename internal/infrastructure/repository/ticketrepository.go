package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vendorflow/internal/domain/ticket"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

type TicketRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *TicketRepository) GetByID(ctx context.Context, ticketID string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", ticketID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) Save(ctx context.Context, t *ticket.Ticket) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	// Select("*") writes zero values too, so cleared fields are persisted.
	if err := tx.Model(model).Select("*").Omit("created_at").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return nil
}

type ConversationRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *ConversationRepository) Append(ctx context.Context, message *ticket.ConversationMessage) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.MessageToModel(message)).Error; err != nil {
		return fmt.Errorf("failed to append conversation message: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListByTicket(ctx context.Context, ticketID string) ([]*ticket.ConversationMessage, error) {
	var rows []models.ConversationMessageModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("ticket_id = ?", ticketID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}

	messages := make([]*ticket.ConversationMessage, 0, len(rows))
	for i := range rows {
		msg, err := r.mapper.MessageToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
