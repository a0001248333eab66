package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"portal/internal/repository"
	"portal/pkg/money"

	"github.com/shopspring/decimal"
)

// NotANumber is what the plain-text totals report answers on any failure.
const NotANumber = "NaN"

const dateLayout = "2006-01-02"

// TotalsQuery is the raw filter of the totals report. Empty fields do not filter.
type TotalsQuery struct {
	Subteams    []string
	Vendors     string // comma separated, exact match after trim
	SubmittedBy string // comma separated, case-insensitive substring
	From        string // YYYY-MM-DD, inclusive from start of day
	To          string // YYYY-MM-DD, inclusive to end of day
}

type TotalsService interface {
	ApprovedTotal(ctx context.Context, q TotalsQuery) (decimal.Decimal, error)
	ApprovedTotalPlain(ctx context.Context, q TotalsQuery) string
}

type totalsService struct {
	repo repository.PurchaseRepository
	loc  *time.Location
}

func NewTotalsService(repo repository.PurchaseRepository, loc *time.Location) TotalsService {
	if loc == nil {
		loc = time.Local
	}
	return &totalsService{repo: repo, loc: loc}
}

// ApprovedTotal sums the total cost of every final-approved request matching q.
func (s *totalsService) ApprovedTotal(ctx context.Context, q TotalsQuery) (decimal.Decimal, error) {
	filter := repository.TotalsFilter{
		Subteams:   cleanList(q.Subteams),
		Vendors:    splitList(q.Vendors),
		Submitters: splitList(q.SubmittedBy),
	}

	if q.From != "" {
		from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(q.From), s.loc)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &from
	}
	if q.To != "" {
		day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(q.To), s.loc)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid to date: %w", err)
		}
		to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &to
	}

	purchases, err := s.repo.ListApproved(ctx, filter)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range purchases {
		total = total.Add(purchases[i].TotalCost())
	}
	return total, nil
}

// ApprovedTotalPlain renders ApprovedTotal with two decimals. Failures collapse
// into "NaN"; the report has no other way to signal them.
func (s *totalsService) ApprovedTotalPlain(ctx context.Context, q TotalsQuery) string {
	total, err := s.ApprovedTotal(ctx, q)
	if err != nil {
		log.Printf("totals report failed: %v", err)
		return NotANumber
	}
	return money.Format(total)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return cleanList(strings.Split(raw, ","))
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
