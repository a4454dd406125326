package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vendorflow/internal/domain/outreach"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

type OutreachRepository struct {
	db     *gorm.DB
	mapper mappers.OutreachMapper
}

func NewOutreachRepository(db *gorm.DB) *OutreachRepository {
	return &OutreachRepository{
		db:     db,
		mapper: mappers.NewOutreachMapper(),
	}
}

func (r *OutreachRepository) GetByID(ctx context.Context, outreachID string) (*outreach.VendorOutreach, error) {
	var model models.VendorOutreachModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", outreachID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get outreach: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *OutreachRepository) GetByIDs(ctx context.Context, outreachIDs []string) (map[string]*outreach.VendorOutreach, error) {
	result := make(map[string]*outreach.VendorOutreach, len(outreachIDs))
	if len(outreachIDs) == 0 {
		return result, nil
	}

	var rows []models.VendorOutreachModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id IN ?", outreachIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get outreach records: %w", err)
	}
	list, err := r.toDomainList(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		result[o.ID()] = o
	}
	return result, nil
}

func (r *OutreachRepository) FindActive(ctx context.Context, ticketID, vendorID string) (*outreach.VendorOutreach, error) {
	var model models.VendorOutreachModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.
		Where("ticket_id = ? AND vendor_id = ? AND status <> ?", ticketID, vendorID, string(outreach.StatusResponded)).
		Order("email_sent_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active outreach: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *OutreachRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*outreach.VendorOutreach, error) {
	var rows []models.VendorOutreachModel
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.
		Where("status = ? AND expires_at <= ?", string(outreach.StatusSent), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired outreach: %w", err)
	}
	return r.toDomainList(rows)
}

func (r *OutreachRepository) Save(ctx context.Context, o *outreach.VendorOutreach) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.ToModel(o)).Error; err != nil {
		return fmt.Errorf("failed to save outreach: %w", err)
	}
	return nil
}

func (r *OutreachRepository) Update(ctx context.Context, o *outreach.VendorOutreach) error {
	model := r.mapper.ToModel(o)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update outreach: %w", err)
	}
	return nil
}

func (r *OutreachRepository) toDomainList(rows []models.VendorOutreachModel) ([]*outreach.VendorOutreach, error) {
	list := make([]*outreach.VendorOutreach, 0, len(rows))
	for i := range rows {
		o, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, nil
}

type EmailMappingRepository struct {
	db     *gorm.DB
	mapper mappers.OutreachMapper
}

func NewEmailMappingRepository(db *gorm.DB) *EmailMappingRepository {
	return &EmailMappingRepository{
		db:     db,
		mapper: mappers.NewOutreachMapper(),
	}
}

func (r *EmailMappingRepository) GetByEmailID(ctx context.Context, emailID string) (*outreach.EmailMapping, error) {
	return r.first(ctx, "email_id = ?", emailID)
}

func (r *EmailMappingRepository) GetByMessageID(ctx context.Context, messageID string) (*outreach.EmailMapping, error) {
	if messageID == "" {
		return nil, nil
	}
	return r.first(ctx, "message_id = ?", messageID)
}

func (r *EmailMappingRepository) Save(ctx context.Context, m *outreach.EmailMapping) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.MappingToModel(m)).Error; err != nil {
		return fmt.Errorf("failed to save email mapping: %w", err)
	}
	return nil
}

func (r *EmailMappingRepository) Update(ctx context.Context, m *outreach.EmailMapping) error {
	model := r.mapper.MappingToModel(m)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update email mapping: %w", err)
	}
	return nil
}

func (r *EmailMappingRepository) first(ctx context.Context, query string, arg any) (*outreach.EmailMapping, error) {
	var model models.EmailMappingModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get email mapping: %w", err)
	}
	return r.mapper.MappingToDomain(&model)
}
