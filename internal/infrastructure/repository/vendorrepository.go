package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

type VendorRepository struct {
	db     *gorm.DB
	mapper mappers.VendorMapper
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{
		db:     db,
		mapper: mappers.NewVendorMapper(),
	}
}

func (r *VendorRepository) GetByID(ctx context.Context, vendorID string) (*vendor.Vendor, error) {
	return r.first(ctx, "id = ?", vendorID)
}

// GetByEmail matches case-insensitively; stored addresses are already lowercase.
func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*vendor.Vendor, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *VendorRepository) GetByIDs(ctx context.Context, vendorIDs []string) (map[string]*vendor.Vendor, error) {
	result := make(map[string]*vendor.Vendor, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return result, nil
	}

	var rows []models.VendorModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id IN ?", vendorIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get vendors: %w", err)
	}

	for i := range rows {
		v, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		result[v.ID()] = v
	}
	return result, nil
}

func (r *VendorRepository) Save(ctx context.Context, v *vendor.Vendor) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.ToModel(v)).Error; err != nil {
		return fmt.Errorf("failed to save vendor: %w", err)
	}
	return nil
}

func (r *VendorRepository) Update(ctx context.Context, v *vendor.Vendor) error {
	model := r.mapper.ToModel(v)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Omit("created_at").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	return nil
}

func (r *VendorRepository) first(ctx context.Context, query string, arg any) (*vendor.Vendor, error) {
	var model models.VendorModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return r.mapper.ToDomain(&model)
}
