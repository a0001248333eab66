package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"portal/internal/model"

	"github.com/shopspring/decimal"
)

func samplePurchase() *model.PurchaseRequest {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &model.PurchaseRequest{
		PurchaseID: 12,
		PurchaseDetails: model.PurchaseDetails{
			Subteam:      "2",
			Vendor:       "AndyMark & Co",
			PartURL:      []string{"https://a"},
			PartNumber:   []string{"am-1"},
			PartName:     []string{"gearbox"},
			Subsystem:    []string{"drive"},
			PricePerUnit: []decimal.Decimal{decimal.RequireFromString("10.50")},
			Quantity:     []int{2},
			Tax:          decimal.RequireFromString("1"),
		},
		SubmittedBy:       "student@example.org",
		Approval:          model.ApprovalAdminApproved,
		AdminUsername:     "admin@example.org",
		AdminDateApproved: &now,
		CreatedAt:         now,
		UpdatedAt:         1714557600000,
	}
}

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Templates().ExecuteTemplate(&buf, name, data); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestViewPage(t *testing.T) {
	out := render(t, ViewPage, ViewData{Purchase: samplePurchase(), CanDecide: true, CanOverride: true})
	for _, want := range []string{"Purchase Request #12", "AndyMark &amp; Co", "$21.00", "Total: $22.00", "Waiting on mentor", `data-updated="1714557600000"`, "Decide as mentor"} {
		if !strings.Contains(out, want) {
			t.Errorf("view page missing %q", want)
		}
	}
}

func TestFormPage(t *testing.T) {
	create := render(t, FormPage, FormData{Title: "New", Action: "/member/purchase/create", CSRF: "tok"})
	if !strings.Contains(create, `name="_csrf" value="tok"`) || strings.Contains(create, `name="updated_at"`) {
		t.Fatalf("create form wrong:\n%s", create)
	}

	edit := render(t, FormPage, FormData{Title: "Edit", Action: "/member/purchase/edit/12", CSRF: "tok", Purchase: samplePurchase()})
	for _, want := range []string{`name="updated_at" value="1714557600000"`, `value="gearbox"`, `value="10.50"`, `value="1.00"`} {
		if !strings.Contains(edit, want) {
			t.Errorf("edit form missing %q", want)
		}
	}
}

func TestListAndErrorPages(t *testing.T) {
	if out := render(t, ListPage, ListData{Title: "Mentor Queue", Filter: "mentor"}); !strings.Contains(out, `data-filter="mentor"`) {
		t.Fatalf("list page lost its filter")
	}
	if out := render(t, ErrorPage, ErrorData{Title: "Unauthorized", Message: "<nope>"}); !strings.Contains(out, "&lt;nope&gt;") {
		t.Fatalf("error message not escaped")
	}
}

func TestLineItems_ToleratesShortColumns(t *testing.T) {
	items := LineItems(model.PurchaseDetails{PartURL: []string{"a", "b"}, Quantity: []int{1}})
	if len(items) != 2 || items[1].Quantity != 0 || items[1].Price != "" {
		t.Fatalf("unexpected items %+v", items)
	}
}
