package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Approval state codes. The numeric values are persisted and shared with the
// list pages, so they must never be renumbered.
const (
	ApprovalPending        = 0
	ApprovalAdminRejected  = 1
	ApprovalAdminApproved  = 2 // waiting on a mentor
	ApprovalMentorRejected = 3
	ApprovalMentorApproved = 4 // terminal
)

// PurchaseDetails holds everything the submitter controls. An edit replaces it as a whole.
type PurchaseDetails struct {
	Subteam           string `gorm:"type:varchar(64);index" json:"subteam"`
	Vendor            string `gorm:"type:varchar(255);index" json:"vendor"`
	VendorPhone       string `gorm:"type:varchar(64)" json:"vendor_phone"`
	VendorEmail       string `gorm:"type:varchar(255)" json:"vendor_email"`
	VendorAddress     string `gorm:"type:text" json:"vendor_address"`
	ReasonForPurchase string `gorm:"type:text" json:"reason_for_purchase"`

	// Line items, stored as parallel arrays of equal length.
	PartURL      []string          `gorm:"type:text;serializer:json" json:"part_url"`
	PartNumber   []string          `gorm:"type:text;serializer:json" json:"part_number"`
	PartName     []string          `gorm:"type:text;serializer:json" json:"part_name"`
	Subsystem    []string          `gorm:"type:text;serializer:json" json:"subsystem"`
	PricePerUnit []decimal.Decimal `gorm:"type:text;serializer:json" json:"price_per_unit"`
	Quantity     []int             `gorm:"type:text;serializer:json" json:"quantity"`

	ShippingAndHandling decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_and_handling"`
	Tax                 decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
}

// LineCount is the number of line items. Callers rely on all six arrays sharing it.
func (d PurchaseDetails) LineCount() int {
	return len(d.PartURL)
}

// PurchaseRequest is one request moving through the admin and mentor approval stages.
type PurchaseRequest struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	PurchaseID int64     `gorm:"uniqueIndex;not null" json:"purchase_id"`

	PurchaseDetails `gorm:"embedded"`

	SubmittedBy string `gorm:"type:varchar(255);not null;index" json:"submitted_by"`
	Approval    int    `gorm:"not null;default:0;index" json:"approval"`

	AdminComments      string     `gorm:"type:text" json:"admin_comments"`
	AdminUsername      string     `gorm:"type:varchar(255)" json:"admin_username"`
	AdminDateApproved  *time.Time `json:"admin_date_approved"`
	MentorComments     string     `gorm:"type:text" json:"mentor_comments"`
	MentorUsername     string     `gorm:"type:varchar(255)" json:"mentor_username"`
	MentorDateApproved *time.Time `json:"mentor_date_approved"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt int64     `gorm:"autoUpdateTime:milli;not null" json:"updated_at"` // unix milliseconds, the optimistic concurrency token
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

func (p *PurchaseRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TotalCost sums every line item plus shipping and tax. It is derived on every
// read and never persisted.
func (p *PurchaseRequest) TotalCost() decimal.Decimal {
	total := p.ShippingAndHandling.Add(p.Tax)
	for i, price := range p.PricePerUnit {
		if i >= len(p.Quantity) {
			break
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(p.Quantity[i]))))
	}
	return total
}

// Locked reports whether the request reached the terminal state.
func (p *PurchaseRequest) Locked() bool {
	return p.Approval == ApprovalMentorApproved
}

// Stamp records a single approval-stage decision.
type Stamp struct {
	Comments string
	Username string
	At       time.Time
}

// PurchaseChanges lists the columns an update touches. Nil fields are left alone.
type PurchaseChanges struct {
	Details  *PurchaseDetails
	Approval *int
	Admin    *Stamp
	Mentor   *Stamp
}

// PurchaseCounter hands out purchase ids. One row per sequence name.
type PurchaseCounter struct {
	Name  string `gorm:"type:varchar(64);primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (PurchaseCounter) TableName() string {
	return "purchase_counters"
}
