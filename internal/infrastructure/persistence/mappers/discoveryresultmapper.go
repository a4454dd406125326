package mappers

import (
	"fmt"

	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/infrastructure/persistence/models"
)

type DiscoveryResultMapper interface {
	ToModel(r *discovery.DiscoveryResult) (*models.DiscoveryResultModel, error)
	ToDomain(model *models.DiscoveryResultModel) (*discovery.DiscoveryResult, error)
}

type DiscoveryResultMapperImpl struct{}

func NewDiscoveryResultMapper() DiscoveryResultMapper {
	return &DiscoveryResultMapperImpl{}
}

func (m *DiscoveryResultMapperImpl) ToModel(r *discovery.DiscoveryResult) (*models.DiscoveryResultModel, error) {
	candidates, err := marshalJSON(r.Candidates())
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidates: %w", err)
	}
	return &models.DiscoveryResultModel{
		ID:          r.ID(),
		TicketID:    r.TicketID(),
		Source:      string(r.Source()),
		Status:      string(r.Status()),
		Candidates:  candidates,
		TimeoutNote: r.TimeoutNote(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}, nil
}

func (m *DiscoveryResultMapperImpl) ToDomain(model *models.DiscoveryResultModel) (*discovery.DiscoveryResult, error) {
	if model == nil {
		return nil, nil
	}

	var candidates []discovery.Candidate
	if err := unmarshalJSON(model.Candidates, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates of result %s: %w", model.ID, err)
	}
	return discovery.ReconstructDiscoveryResult(
		model.ID,
		model.TicketID,
		discovery.Source(model.Source),
		discovery.Status(model.Status),
		candidates,
		model.TimeoutNote,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}
