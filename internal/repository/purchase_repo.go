package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"portal/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const purchaseSequence = "purchase_id"

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create assigns the next purchase id from the locked counter row and inserts the request.
func (r *purchaseRepository) Create(ctx context.Context, p *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := initCounter(tx).Error; err != nil {
			return fmt.Errorf("failed to init purchase counter: %w", err)
		}

		var counter model.PurchaseCounter
		if err := lockCounter(tx, &counter).Error; err != nil {
			return fmt.Errorf("failed to lock purchase counter: %w", err)
		}

		next := counter.Value + 1
		if err := tx.Model(&counter).Update("value", next).Error; err != nil {
			return fmt.Errorf("failed to advance purchase counter: %w", err)
		}

		p.PurchaseID = next
		p.Approval = model.ApprovalPending
		p.UpdatedAt = nowMillis()
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create purchase request: %w", err)
		}
		return nil
	})
}

// initCounter inserts the sequence row unless it already exists.
func initCounter(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.PurchaseCounter{Name: purchaseSequence})
}

// lockCounter reads the sequence row and holds it until the transaction ends.
func lockCounter(tx *gorm.DB, counter *model.PurchaseCounter) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", purchaseSequence).First(counter)
}

func (r *purchaseRepository) FindByPurchaseID(ctx context.Context, purchaseID int64) (*model.PurchaseRequest, error) {
	var p model.PurchaseRequest
	if err := GetDB(ctx, r.db).First(&p, "purchase_id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) List(ctx context.Context, filter PurchaseFilter) ([]model.PurchaseRequest, error) {
	query := GetDB(ctx, r.db).Model(&model.PurchaseRequest{})
	if filter.SubmittedBy != "" {
		query = query.Where("LOWER(submitted_by) = ?", strings.ToLower(filter.SubmittedBy))
	}
	if len(filter.Approvals) > 0 {
		query = query.Where("approval IN ?", filter.Approvals)
	}

	var purchases []model.PurchaseRequest
	if err := query.Order("purchase_id DESC").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchase requests: %w", err)
	}
	return purchases, nil
}

func (r *purchaseRepository) ListApproved(ctx context.Context, filter TotalsFilter) ([]model.PurchaseRequest, error) {
	query := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Where("approval = ?", model.ApprovalMentorApproved)

	if len(filter.Subteams) > 0 {
		query = query.Where("subteam IN ?", filter.Subteams)
	}
	if len(filter.Vendors) > 0 {
		query = query.Where("vendor IN ?", filter.Vendors)
	}
	if len(filter.Submitters) > 0 {
		or := GetDB(ctx, r.db)
		for i, s := range filter.Submitters {
			like := "%" + strings.ToLower(s) + "%"
			if i == 0 {
				or = or.Where("LOWER(submitted_by) LIKE ?", like)
			} else {
				or = or.Or("LOWER(submitted_by) LIKE ?", like)
			}
		}
		query = query.Where(or)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var purchases []model.PurchaseRequest
	if err := query.Order("purchase_id DESC").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list approved purchases: %w", err)
	}
	return purchases, nil
}

// UpdateByPurchaseID applies changes with a single conditional UPDATE. When the
// guard fails nothing is written and the reason is reported as a sentinel error.
func (r *purchaseRepository) UpdateByPurchaseID(ctx context.Context, purchaseID int64, changes model.PurchaseChanges, guard UpdateGuard) (*model.PurchaseRequest, error) {
	columns, err := changeColumns(changes)
	if err != nil {
		return nil, err
	}
	// Strictly increasing so that two writes in the same millisecond still produce distinct tokens.
	columns["updated_at"] = gorm.Expr("GREATEST(?, updated_at + 1)", nowMillis())

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseRequest{}).Where("purchase_id = ?", purchaseID)
	if guard.ExpectedUpdatedAt != nil {
		query = query.Where("updated_at = ?", *guard.ExpectedUpdatedAt)
	}
	if guard.Owner != "" {
		query = query.Where("LOWER(submitted_by) = ?", strings.ToLower(guard.Owner))
	}
	if guard.Unlocked {
		query = query.Where("approval <> ?", model.ApprovalMentorApproved)
	}

	res := query.Updates(columns)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update purchase request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		current, findErr := r.FindByPurchaseID(ctx, purchaseID)
		if findErr != nil && !errors.Is(findErr, ErrPurchaseNotFound) {
			return nil, findErr
		}
		return nil, classifyMiss(current, guard)
	}

	return r.FindByPurchaseID(ctx, purchaseID)
}

// changeColumns maps changes onto column values. Slice columns are encoded here
// because map updates bypass the field serializer.
func changeColumns(changes model.PurchaseChanges) (map[string]interface{}, error) {
	columns := map[string]interface{}{}

	if d := changes.Details; d != nil {
		columns["subteam"] = d.Subteam
		columns["vendor"] = d.Vendor
		columns["vendor_phone"] = d.VendorPhone
		columns["vendor_email"] = d.VendorEmail
		columns["vendor_address"] = d.VendorAddress
		columns["reason_for_purchase"] = d.ReasonForPurchase
		columns["shipping_and_handling"] = d.ShippingAndHandling
		columns["tax"] = d.Tax

		arrays := map[string]interface{}{
			"part_url":       d.PartURL,
			"part_number":    d.PartNumber,
			"part_name":      d.PartName,
			"subsystem":      d.Subsystem,
			"price_per_unit": d.PricePerUnit,
			"quantity":       d.Quantity,
		}
		for col, v := range arrays {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", col, err)
			}
			columns[col] = string(encoded)
		}
	}
	if changes.Approval != nil {
		columns["approval"] = *changes.Approval
	}
	if s := changes.Admin; s != nil {
		columns["admin_comments"] = s.Comments
		columns["admin_username"] = s.Username
		columns["admin_date_approved"] = s.At
	}
	if s := changes.Mentor; s != nil {
		columns["mentor_comments"] = s.Comments
		columns["mentor_username"] = s.Username
		columns["mentor_date_approved"] = s.At
	}
	return columns, nil
}
