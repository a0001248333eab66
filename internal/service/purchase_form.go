package service

import (
	"strings"

	"portal/internal/model"
	"portal/pkg/money"
	"portal/pkg/sanitize"

	"github.com/shopspring/decimal"
)

// PurchaseForm is a raw create or edit submission. Every field may be missing,
// and each line-item column may carry a different number of values.
type PurchaseForm struct {
	Subteam           string
	Vendor            string
	VendorPhone       string
	VendorEmail       string
	VendorAddress     string
	ReasonForPurchase string

	PartURL      []string
	PartNumber   []string
	PartName     []string
	Subsystem    []string
	PricePerUnit []string
	Quantity     []string

	ShippingAndHandling string
	Tax                 string

	// ExpectedUpdatedAt is the optional concurrency token rendered into the edit form.
	ExpectedUpdatedAt *int64
}

// lineRow holds one line item in column order: url, number, name, subsystem, price, quantity.
type lineRow [6]string

// rows coerces the six line-item columns into a list of equal-width rows.
// Short columns are padded with empty cells. Rows where every cell is blank are
// dropped, so the single empty row a fresh form submits yields no line items.
func (f PurchaseForm) rows() []lineRow {
	columns := [6][]string{f.PartURL, f.PartNumber, f.PartName, f.Subsystem, f.PricePerUnit, f.Quantity}

	n := 0
	for _, col := range columns {
		if len(col) > n {
			n = len(col)
		}
	}

	rows := make([]lineRow, 0, n)
	for i := 0; i < n; i++ {
		var row lineRow
		blank := true
		for c, col := range columns {
			if i < len(col) {
				row[c] = col[i]
			}
			if strings.TrimSpace(row[c]) != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

// Details sanitises the text fields and parses the numeric ones. A field that
// fails to parse falls back to zero instead of failing the submission.
func (f PurchaseForm) Details() model.PurchaseDetails {
	rows := f.rows()
	d := model.PurchaseDetails{
		Subteam:           sanitize.String(strings.TrimSpace(f.Subteam)),
		Vendor:            sanitize.String(strings.TrimSpace(f.Vendor)),
		VendorPhone:       sanitize.String(f.VendorPhone),
		VendorEmail:       sanitize.String(f.VendorEmail),
		VendorAddress:     sanitize.String(f.VendorAddress),
		ReasonForPurchase: sanitize.String(f.ReasonForPurchase),

		PartURL:      make([]string, len(rows)),
		PartNumber:   make([]string, len(rows)),
		PartName:     make([]string, len(rows)),
		Subsystem:    make([]string, len(rows)),
		PricePerUnit: make([]decimal.Decimal, len(rows)),
		Quantity:     make([]int, len(rows)),

		ShippingAndHandling: money.ParseAmount(f.ShippingAndHandling, decimal.Zero),
		Tax:                 money.ParseAmount(f.Tax, decimal.Zero),
	}
	for i, row := range rows {
		d.PartURL[i] = sanitize.String(row[0])
		d.PartNumber[i] = sanitize.String(row[1])
		d.PartName[i] = sanitize.String(row[2])
		d.Subsystem[i] = sanitize.String(row[3])
		d.PricePerUnit[i] = money.ParseAmount(row[4], decimal.Zero)
		d.Quantity[i] = money.ParseQuantity(row[5], 0)
	}
	return d
}
