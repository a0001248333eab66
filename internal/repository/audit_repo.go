package repository

import (
	"context"

	"portal/internal/model"

	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	if err := GetDB(ctx, r.db).Where("purchase_id = ?", purchaseID).Order("created_at asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
