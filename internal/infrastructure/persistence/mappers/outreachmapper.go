package mappers

import (
	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/infrastructure/persistence/models"
)

type OutreachMapper interface {
	ToModel(o *outreach.VendorOutreach) *models.VendorOutreachModel
	ToDomain(model *models.VendorOutreachModel) (*outreach.VendorOutreach, error)
	MappingToModel(em *outreach.EmailMapping) *models.EmailMappingModel
	MappingToDomain(model *models.EmailMappingModel) (*outreach.EmailMapping, error)
}

type OutreachMapperImpl struct{}

func NewOutreachMapper() OutreachMapper {
	return &OutreachMapperImpl{}
}

func (m *OutreachMapperImpl) ToModel(o *outreach.VendorOutreach) *models.VendorOutreachModel {
	return &models.VendorOutreachModel{
		ID:          o.ID(),
		TicketID:    o.TicketID(),
		VendorID:    o.VendorID(),
		EmailID:     o.EmailID(),
		EmailSentAt: o.EmailSentAt(),
		ExpiresAt:   o.ExpiresAt(),
		Status:      string(o.Status()),
		RespondedAt: o.RespondedAt(),
	}
}

func (m *OutreachMapperImpl) ToDomain(model *models.VendorOutreachModel) (*outreach.VendorOutreach, error) {
	if model == nil {
		return nil, nil
	}
	return outreach.ReconstructVendorOutreach(
		model.ID,
		model.TicketID,
		model.VendorID,
		model.EmailID,
		model.EmailSentAt.UTC(),
		model.ExpiresAt.UTC(),
		outreach.Status(model.Status),
		utcPtr(model.RespondedAt),
	)
}

func (m *OutreachMapperImpl) MappingToModel(em *outreach.EmailMapping) *models.EmailMappingModel {
	return &models.EmailMappingModel{
		EmailID:      em.EmailID(),
		TicketID:     em.TicketID(),
		VendorID:     em.VendorID(),
		MessageID:    em.MessageID(),
		Status:       string(em.Status()),
		LastEventAt:  em.LastEventAt(),
		BounceReason: em.BounceReason(),
	}
}

func (m *OutreachMapperImpl) MappingToDomain(model *models.EmailMappingModel) (*outreach.EmailMapping, error) {
	if model == nil {
		return nil, nil
	}
	return outreach.ReconstructEmailMapping(
		model.EmailID,
		model.TicketID,
		model.VendorID,
		model.MessageID,
		outreach.DeliveryStatus(model.Status),
		model.LastEventAt.UTC(),
		model.BounceReason,
	)
}
