package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vendorflow/internal/domain/calllog"
	"vendorflow/internal/infrastructure/persistence/mappers"
	"vendorflow/internal/infrastructure/persistence/models"
	"vendorflow/internal/shared/db"
)

type CallLogRepository struct {
	db     *gorm.DB
	mapper mappers.CallLogMapper
}

func NewCallLogRepository(db *gorm.DB) *CallLogRepository {
	return &CallLogRepository{
		db:     db,
		mapper: mappers.NewCallLogMapper(),
	}
}

func (r *CallLogRepository) GetByCallID(ctx context.Context, callID string) (*calllog.VendorCallLog, error) {
	var model models.VendorCallLogModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("call_id = ?", callID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call log: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

// ListPending returns the oldest calls still waiting for an outcome.
func (r *CallLogRepository) ListPending(ctx context.Context, limit int) ([]*calllog.VendorCallLog, error) {
	var rows []models.VendorCallLogModel
	tx := db.GetTxFromContext(ctx, r.db)

	query := tx.Where("status = ?", string(calllog.StatusPending)).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending calls: %w", err)
	}

	logs := make([]*calllog.VendorCallLog, 0, len(rows))
	for i := range rows {
		l, err := r.mapper.ToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (r *CallLogRepository) Save(ctx context.Context, l *calllog.VendorCallLog) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(r.mapper.ToModel(l)).Error; err != nil {
		return fmt.Errorf("failed to save call log: %w", err)
	}
	return nil
}

func (r *CallLogRepository) Update(ctx context.Context, l *calllog.VendorCallLog) error {
	model := r.mapper.ToModel(l)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(model).Select("*").Omit("created_at").Updates(model).Error; err != nil {
		return fmt.Errorf("failed to update call log: %w", err)
	}
	return nil
}
