package view

import (
	"embed"
	"html/template"
	"time"

	"portal/internal/model"
	"portal/pkg/money"

	"github.com/shopspring/decimal"
)

// Template names, as registered with gin.
const (
	ErrorPage = "error.html"
	ListPage  = "list.html"
	ViewPage  = "view.html"
	FormPage  = "form.html"
)

//go:embed templates/*.html
var files embed.FS

// ErrorData feeds the error page.
type ErrorData struct {
	Title   string
	Message string
}

// ListData feeds the list page. The rows are fetched by the page itself from
// list_object so they can refresh on live updates.
type ListData struct {
	Title  string
	Filter string
	Email  string
}

// ViewData feeds the read-only purchase page.
type ViewData struct {
	Purchase      *model.PurchaseRequest
	CanEdit       bool
	CanDecide     bool
	CanOverride   bool // superadmins may decide as mentor
	ShowAuditLink bool
}

// FormData feeds the create and edit forms. Purchase is nil when creating.
type FormData struct {
	Title    string
	Action   string
	CSRF     string
	Purchase *model.PurchaseRequest
}

// LineItem is one row of a purchase's parallel line-item columns.
type LineItem struct {
	URL       string
	Number    string
	Name      string
	Subsystem string
	Price     string
	Quantity  int
	Subtotal  string
}

// Templates parses every embedded page with the shared helpers.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))
}

var funcs = template.FuncMap{
	"money": money.Format,
	"total": func(p *model.PurchaseRequest) string { return money.Format(p.TotalCost()) },
	"state": StateLabel,
	"items": LineItems,
	"date": func(t time.Time) string { return t.Format("Mon Jan 02 2006") },
	"stamp": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Mon Jan 02 2006 15:04")
	},
}

// StateLabel names an approval code for people.
func StateLabel(approval int) string {
	switch approval {
	case model.ApprovalPending:
		return "Pending"
	case model.ApprovalAdminRejected:
		return "Rejected by admin"
	case model.ApprovalAdminApproved:
		return "Waiting on mentor"
	case model.ApprovalMentorRejected:
		return "Rejected by mentor"
	case model.ApprovalMentorApproved:
		return "Approved"
	default:
		return "Unknown"
	}
}

// LineItems zips the parallel columns of d into rows.
func LineItems(d model.PurchaseDetails) []LineItem {
	items := make([]LineItem, 0, d.LineCount())
	for i := 0; i < d.LineCount(); i++ {
		item := LineItem{URL: d.PartURL[i]}
		if i < len(d.PartNumber) {
			item.Number = d.PartNumber[i]
		}
		if i < len(d.PartName) {
			item.Name = d.PartName[i]
		}
		if i < len(d.Subsystem) {
			item.Subsystem = d.Subsystem[i]
		}
		if i < len(d.Quantity) {
			item.Quantity = d.Quantity[i]
		}
		if i < len(d.PricePerUnit) {
			price := d.PricePerUnit[i]
			item.Price = money.Format(price)
			item.Subtotal = money.Format(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		items = append(items, item)
	}
	return items
}
