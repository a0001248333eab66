package service

import (
	"context"

	"portal/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	PurchaseID int64  `json:"purchase_id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetPurchaseTrail(ctx context.Context, purchaseID int64) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetPurchaseTrail returns every recorded transition of one purchase, oldest first
func (s *auditService) GetPurchaseTrail(ctx context.Context, purchaseID int64) ([]AuditLogResponse, error) {
	logs, err := s.repo.ListByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			PurchaseID: l.PurchaseID,
			Actor:      l.Actor,
			Action:     l.Action,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, nil
}
