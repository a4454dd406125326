package mappers

import (
	"vendorflow/internal/domain/vendor"
	"vendorflow/internal/infrastructure/persistence/models"
)

type VendorMapper interface {
	ToModel(v *vendor.Vendor) *models.VendorModel
	ToDomain(model *models.VendorModel) (*vendor.Vendor, error)
}

type VendorMapperImpl struct{}

func NewVendorMapper() VendorMapper {
	return &VendorMapperImpl{}
}

func (m *VendorMapperImpl) ToModel(v *vendor.Vendor) *models.VendorModel {
	return &models.VendorModel{
		ID:             v.ID(),
		BusinessName:   v.BusinessName(),
		Email:          v.Email(),
		Phone:          v.Phone(),
		Specialty:      v.Specialty(),
		Address:        v.Address(),
		Rating:         v.Rating(),
		EmailStatus:    string(v.EmailStatus()),
		LastEmailError: v.LastEmailError(),
		CreatedAt:      v.CreatedAt(),
		UpdatedAt:      v.UpdatedAt(),
	}
}

func (m *VendorMapperImpl) ToDomain(model *models.VendorModel) (*vendor.Vendor, error) {
	if model == nil {
		return nil, nil
	}
	return vendor.ReconstructVendor(
		model.ID,
		model.BusinessName,
		model.Email,
		model.Phone,
		model.Specialty,
		model.Address,
		model.Rating,
		vendor.EmailStatus(model.EmailStatus),
		model.LastEmailError,
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
	)
}
