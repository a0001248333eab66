package service

import (
	"testing"

	"portal/pkg/money"
)

func TestPurchaseForm_SingleBlankRowIsDropped(t *testing.T) {
	f := PurchaseForm{
		PartURL:      []string{""},
		PartNumber:   []string{""},
		PartName:     []string{""},
		Subsystem:    []string{""},
		PricePerUnit: []string{""},
		Quantity:     []string{""},
	}
	d := f.Details()
	if d.LineCount() != 0 || len(d.PricePerUnit) != 0 || len(d.Quantity) != 0 {
		t.Fatalf("expected no line items, got %+v", d)
	}
}

func TestPurchaseForm_MissingColumnsGiveEmptyItems(t *testing.T) {
	d := PurchaseForm{Vendor: "REV"}.Details()
	if d.PartURL == nil || d.LineCount() != 0 {
		t.Fatalf("expected empty, non-nil line items")
	}
}

func TestPurchaseForm_RaggedColumnsArePadded(t *testing.T) {
	f := PurchaseForm{
		PartURL:      []string{"https://a", "https://b"},
		PartNumber:   []string{"A1"},
		PartName:     []string{"gear", "belt"},
		Subsystem:    []string{"drive", "intake"},
		PricePerUnit: []string{"1.50", "oops"},
		Quantity:     []string{"2"},
	}
	d := f.Details()
	if d.LineCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", d.LineCount())
	}
	lengths := []int{len(d.PartURL), len(d.PartNumber), len(d.PartName), len(d.Subsystem), len(d.PricePerUnit), len(d.Quantity)}
	for _, l := range lengths {
		if l != 2 {
			t.Fatalf("columns out of step: %v", lengths)
		}
	}
	if d.PartNumber[1] != "" || money.Format(d.PricePerUnit[1]) != "0.00" || d.Quantity[1] != 0 {
		t.Fatalf("unexpected padding %+v", d)
	}
}

func TestPurchaseForm_TrailingBlankRowDropped(t *testing.T) {
	f := PurchaseForm{
		PartURL:      []string{"https://a", ""},
		PartNumber:   []string{"A1", ""},
		PartName:     []string{"gear", ""},
		Subsystem:    []string{"drive", ""},
		PricePerUnit: []string{"3", ""},
		Quantity:     []string{"1", ""},
	}
	if n := f.Details().LineCount(); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestPurchaseForm_SanitisesText(t *testing.T) {
	d := PurchaseForm{
		Vendor:      `<b onclick="x()">VEX</b>`,
		PartName:    []string{"<img src=x onerror=alert(1)>wheel"},
		Quantity:    []string{"1"},
		Tax:         "1.005",
		Subteam:     " 2 ",
		VendorPhone: "555",
	}.Details()
	if d.Vendor != "VEX" {
		t.Fatalf("vendor not sanitised: %q", d.Vendor)
	}
	if d.PartName[0] != "wheel" {
		t.Fatalf("part name not sanitised: %q", d.PartName[0])
	}
	if d.Subteam != "2" {
		t.Fatalf("subteam not trimmed: %q", d.Subteam)
	}
	if money.Format(d.Tax) != "1.01" {
		t.Fatalf("tax = %s", money.Format(d.Tax))
	}
}

func TestPurchaseForm_RowsKeepColumnOrder(t *testing.T) {
	rows := PurchaseForm{
		PartURL:      []string{"u"},
		PartNumber:   []string{"n"},
		PartName:     []string{"p"},
		Subsystem:    []string{"s"},
		PricePerUnit: []string{"1"},
		Quantity:     []string{"2", " "},
	}.rows()
	if len(rows) != 1 || rows[0] != (lineRow{"u", "n", "p", "s", "1", "2"}) {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestPurchaseForm_EntityEncodedMarkupIsStripped(t *testing.T) {
	d := PurchaseForm{
		Vendor:   "&lt;script&gt;alert(1)&lt;/script&gt;VEX",
		PartName: []string{"&lt;img src=x onerror=alert(2)&gt;wheel"},
	}.Details()
	if d.Vendor != "VEX" || d.PartName[0] != "wheel" {
		t.Fatalf("markup survived: %q %q", d.Vendor, d.PartName[0])
	}
}

func TestPurchaseForm_HugeExponentFallsBackToZero(t *testing.T) {
	d := PurchaseForm{PartName: []string{"gear"}, PricePerUnit: []string{"1e5000000"}, Quantity: []string{"1"}}.Details()
	if money.Format(d.PricePerUnit[0]) != "0.00" {
		t.Fatalf("price = %s", money.Format(d.PricePerUnit[0]))
	}
}
