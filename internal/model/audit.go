package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreatePurchase  = "CREATE_PURCHASE"
	ActionEditPurchase    = "EDIT_PURCHASE"
	ActionApprovePurchase = "APPROVE_PURCHASE"
	ActionRejectPurchase  = "REJECT_PURCHASE"
)

// AuditLog tracks who moved a purchase request and when
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	PurchaseID int64     `gorm:"not null;index" json:"purchase_id"`
	Actor      string    `gorm:"type:varchar(255);not null" json:"actor"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "purchase_audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
