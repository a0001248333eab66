package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"portal/internal/model"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrStaleUpdate means the caller's updated_at token no longer matches the stored one.
	ErrStaleUpdate    = errors.New("purchase was modified by someone else")
	ErrPurchaseLocked = errors.New("purchase is final-approved and can no longer change")
	ErrNotOwner       = errors.New("purchase belongs to another member")
)

// PurchaseFilter narrows a list query. Zero value lists everything.
type PurchaseFilter struct {
	SubmittedBy string // case-insensitive exact match
	Approvals   []int
}

// TotalsFilter selects final-approved purchases for aggregate reporting.
type TotalsFilter struct {
	Subteams   []string
	Vendors    []string   // exact match
	Submitters []string   // case-insensitive substring, any of
	From       *time.Time // inclusive, on created_at
	To         *time.Time // inclusive, on created_at
}

// UpdateGuard holds the conditions that must still hold at write time. The check
// and the write happen in one statement.
type UpdateGuard struct {
	ExpectedUpdatedAt *int64
	Owner             string
	Unlocked          bool // reject writes to final-approved purchases
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.PurchaseRequest) error
	FindByPurchaseID(ctx context.Context, purchaseID int64) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter PurchaseFilter) ([]model.PurchaseRequest, error)
	ListApproved(ctx context.Context, filter TotalsFilter) ([]model.PurchaseRequest, error)
	UpdateByPurchaseID(ctx context.Context, purchaseID int64, changes model.PurchaseChanges, guard UpdateGuard) (*model.PurchaseRequest, error)
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.AuditLog, error)
}

// classifyMiss explains why a guarded update matched no row, given the row as it is now.
func classifyMiss(current *model.PurchaseRequest, guard UpdateGuard) error {
	if current == nil {
		return ErrPurchaseNotFound
	}
	if guard.Owner != "" && !strings.EqualFold(current.SubmittedBy, guard.Owner) {
		return ErrNotOwner
	}
	if guard.Unlocked && current.Locked() {
		return ErrPurchaseLocked
	}
	return ErrStaleUpdate
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
