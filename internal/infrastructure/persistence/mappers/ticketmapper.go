package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"vendorflow/internal/domain/ticket"
	vo "vendorflow/internal/domain/ticket/valueobjects"
	"vendorflow/internal/infrastructure/persistence/models"
)

// TicketMapper handles the conversion between Ticket domain entities and persistence models.
type TicketMapper interface {
	ToModel(t *ticket.Ticket) (*models.TicketModel, error)
	ToDomain(model *models.TicketModel) (*ticket.Ticket, error)
	MessageToModel(m *ticket.ConversationMessage) *models.ConversationMessageModel
	MessageToDomain(model *models.ConversationMessageModel) (*ticket.ConversationMessage, error)
}

type TicketMapperImpl struct{}

func NewTicketMapper() TicketMapper {
	return &TicketMapperImpl{}
}

func (m *TicketMapperImpl) ToModel(t *ticket.Ticket) (*models.TicketModel, error) {
	tags, err := marshalJSON(t.Tags())
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket tags: %w", err)
	}
	var embedding datatypes.JSON
	if len(t.Embedding()) > 0 {
		if embedding, err = marshalJSON(t.Embedding()); err != nil {
			return nil, fmt.Errorf("failed to encode ticket embedding: %w", err)
		}
	}

	return &models.TicketModel{
		ID:                    t.ID(),
		OwnerEmail:            t.OwnerEmail(),
		Title:                 t.Title(),
		Description:           t.Description(),
		Specialty:             t.Specialty(),
		Tags:                  tags,
		Urgency:               string(t.Urgency()),
		Location:              t.Location(),
		Status:                string(t.Status()),
		DiscoveryResultID:     t.DiscoveryResultID(),
		SelectedVendorID:      t.SelectedVendorID(),
		SelectedVendorQuoteID: t.SelectedVendorQuoteID(),
		QuoteStatus:           string(t.QuoteStatus()),
		ScheduledDate:         t.ScheduledDate(),
		Embedding:             embedding,
		CreatedAt:             t.CreatedAt(),
		UpdatedAt:             t.UpdatedAt(),
	}, nil
}

func (m *TicketMapperImpl) ToDomain(model *models.TicketModel) (*ticket.Ticket, error) {
	if model == nil {
		return nil, nil
	}

	var tags []string
	if err := unmarshalJSON(model.Tags, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of ticket %s: %w", model.ID, err)
	}
	var embedding []float32
	if err := unmarshalJSON(model.Embedding, &embedding); err != nil {
		return nil, fmt.Errorf("failed to decode embedding of ticket %s: %w", model.ID, err)
	}

	return ticket.ReconstructTicket(
		model.ID,
		model.OwnerEmail,
		model.Title,
		model.Description,
		model.Specialty,
		tags,
		vo.Urgency(model.Urgency),
		model.Location,
		vo.TicketStatus(model.Status),
		model.DiscoveryResultID,
		model.SelectedVendorID,
		model.SelectedVendorQuoteID,
		vo.QuoteStatus(model.QuoteStatus),
		utcPtr(model.ScheduledDate),
		embedding,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}

func (m *TicketMapperImpl) MessageToModel(msg *ticket.ConversationMessage) *models.ConversationMessageModel {
	return &models.ConversationMessageModel{
		ID:              msg.ID(),
		TicketID:        msg.TicketID(),
		VendorID:        msg.VendorID(),
		Direction:       string(msg.Direction()),
		FromAddress:     msg.FromAddress(),
		ToAddress:       msg.ToAddress(),
		Subject:         msg.Subject(),
		Body:            msg.Body(),
		ProviderEmailID: msg.ProviderEmailID(),
		CreatedAt:       msg.CreatedAt(),
	}
}

func (m *TicketMapperImpl) MessageToDomain(model *models.ConversationMessageModel) (*ticket.ConversationMessage, error) {
	return ticket.ReconstructConversationMessage(
		model.ID,
		model.TicketID,
		model.VendorID,
		ticket.Direction(model.Direction),
		model.FromAddress,
		model.ToAddress,
		model.Subject,
		model.Body,
		model.ProviderEmailID,
		model.CreatedAt.UTC(),
	)
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// unmarshalJSON leaves dst untouched for empty or null columns.
func unmarshalJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
