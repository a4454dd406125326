package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vendorflow/internal/domain/discovery"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

type DiscoveryResultRepository struct {
	db     *gorm.DB
	mapper mappers.DiscoveryResultMapper
}

func NewDiscoveryResultRepository(db *gorm.DB) *DiscoveryResultRepository {
	return &DiscoveryResultRepository{
		db:     db,
		mapper: mappers.NewDiscoveryResultMapper(),
	}
}

func (r *DiscoveryResultRepository) GetByID(ctx context.Context, resultID string) (*discovery.DiscoveryResult, error) {
	var model models.DiscoveryResultModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", resultID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get discovery result: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *DiscoveryResultRepository) Save(ctx context.Context, result *discovery.DiscoveryResult) error {
	model, err := r.mapper.ToModel(result)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to save discovery result: %w", err)
	}
	return nil
}

// Update rewrites the whole snapshot. Candidates are append-only in the domain,
// so the stored list only ever grows.
func (r *DiscoveryResultRepository) Update(ctx context.Context, result *discovery.DiscoveryResult) error {
	model, err := r.mapper.ToModel(result)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Omit("created_at").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update discovery result: %w", err)
	}
	return nil
}
