package mappers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/infrastructure/persistence/models"
)

type CallLogMapper interface {
	ToModel(l *calllog.VendorCallLog) *models.VendorCallLogModel
	ToDomain(model *models.VendorCallLogModel) (*calllog.VendorCallLog, error)
}

type CallLogMapperImpl struct{}

func NewCallLogMapper() CallLogMapper {
	return &CallLogMapperImpl{}
}

func (m *CallLogMapperImpl) ToModel(l *calllog.VendorCallLog) *models.VendorCallLogModel {
	var analysis datatypes.JSON
	if len(l.Analysis()) > 0 {
		analysis = datatypes.JSON(l.Analysis())
	}
	return &models.VendorCallLogModel{
		CallID:        l.CallID(),
		TicketID:      l.TicketID(),
		VendorID:      l.VendorID(),
		PhoneNumber:   l.PhoneNumber(),
		OriginalEmail: l.OriginalEmail(),
		Status:        string(l.Status()),
		Transcript:    l.Transcript(),
		VerifiedEmail: l.VerifiedEmail(),
		EndedReason:   l.EndedReason(),
		RecordingURL:  l.RecordingURL(),
		Analysis:      analysis,
		PollAttempts:  l.PollAttempts(),
		LastError:     l.LastError(),
		CreatedAt:     l.CreatedAt(),
		UpdatedAt:     l.UpdatedAt(),
	}
}

func (m *CallLogMapperImpl) ToDomain(model *models.VendorCallLogModel) (*calllog.VendorCallLog, error) {
	if model == nil {
		return nil, nil
	}
	var analysis json.RawMessage
	if len(model.Analysis) > 0 {
		analysis = json.RawMessage(model.Analysis)
	}
	return calllog.ReconstructVendorCallLog(
		model.CallID,
		model.TicketID,
		model.VendorID,
		model.PhoneNumber,
		model.OriginalEmail,
		calllog.Status(model.Status),
		model.Transcript,
		model.VerifiedEmail,
		model.EndedReason,
		model.RecordingURL,
		analysis,
		model.PollAttempts,
		model.LastError,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}
