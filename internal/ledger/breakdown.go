package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

// Bucket is one column of the yearly category breakdown.
type Bucket string

const (
	Electricity Bucket = "electricity"
	NaturalGas  Bucket = "naturalGas"
	Vehicles    Bucket = "vehicles"
	Waste       Bucket = "waste"
	Other       Bucket = "other"
)

var namedBuckets = []Bucket{Electricity, NaturalGas, Vehicles, Waste}

// MonthBreakdown sums one calendar month's carbon per bucket.
type MonthBreakdown struct {
	Month       int     `json:"month"`
	Electricity float64 `json:"electricity"`
	NaturalGas  float64 `json:"naturalGas"`
	Vehicles    float64 `json:"vehicles"`
	Waste       float64 `json:"waste"`
	Other       float64 `json:"other"`
	Total       float64 `json:"total"`
}

func (m *MonthBreakdown) add(b Bucket, v float64) {
	switch b {
	case Electricity:
		m.Electricity += v
	case NaturalGas:
		m.NaturalGas += v
	case Vehicles:
		m.Vehicles += v
	case Waste:
		m.Waste += v
	default:
		m.Other += v
	}
	m.Total += v
}

func (l *Ledger) bucketFor(category string) Bucket {
	if b, ok := l.buckets[category]; ok {
		return b
	}
	return Other
}

// YearlyBreakdown returns exactly twelve entries, January first. Months
// without emissions report zero in every bucket.
func (l *Ledger) YearlyBreakdown(ctx context.Context, companyID int64, year int) ([]MonthBreakdown, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, l.loc)
	to := from.AddDate(1, 0, 0)

	sums, err := l.store.Emissions.SumByCategoryAndDate(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("yearly breakdown for company %d: %w", companyID, err)
	}

	months := make([]MonthBreakdown, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	for _, s := range sums {
		idx := int(s.Date.In(l.loc).Month()) - 1
		months[idx].add(l.bucketFor(s.Category), s.Total)
	}
	return months, nil
}

// CategoryBreakdown is the per-category sum over one period.
type CategoryBreakdown struct {
	Start time.Time                `json:"start"`
	Items []repository.CategorySum `json:"breakdown"`
}

type Stats struct {
	Daily   CategoryBreakdown `json:"daily"`
	Monthly CategoryBreakdown `json:"monthly"`
	Year    int               `json:"year"`
	Yearly  []MonthBreakdown  `json:"yearly"`
}

// Stats returns today's and this month's per-category sums along with the
// current year's monthly breakdown.
func (l *Ledger) Stats(ctx context.Context, companyID int64) (*Stats, error) {
	now := l.clock.Now().In(l.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, l.loc)
	monthStart := MonthStart(now)

	daily, err := l.store.Emissions.SumByCategory(ctx, companyID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("daily breakdown for company %d: %w", companyID, err)
	}
	monthly, err := l.store.Emissions.SumByCategory(ctx, companyID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("monthly breakdown for company %d: %w", companyID, err)
	}
	yearly, err := l.YearlyBreakdown(ctx, companyID, now.Year())
	if err != nil {
		return nil, err
	}

	return &Stats{
		Daily:   CategoryBreakdown{Start: dayStart, Items: daily},
		Monthly: CategoryBreakdown{Start: monthStart, Items: monthly},
		Year:    now.Year(),
		Yearly:  yearly,
	}, nil
}

type CompanyTotals struct {
	Company     models.Company           `json:"company"`
	TotalCarbon float64                  `json:"totalCarbon"`
	Monthly     []models.MonthlyEmission `json:"monthlyBreakdown"`
	Year        int                      `json:"year"`
	Yearly      []MonthBreakdown         `json:"yearlyBreakdown"`
}

// Totals reads the cached total, the stored monthly snapshots and the
// current year's breakdown for one company.
func (l *Ledger) Totals(ctx context.Context, companyID int64) (*CompanyTotals, error) {
	company, err := l.store.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company %d: %w", companyID, repository.ErrNotFound)
	}

	snapshots, err := l.store.Monthly.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("monthly snapshots for company %d: %w", companyID, err)
	}

	year := l.clock.Now().In(l.loc).Year()
	yearly, err := l.YearlyBreakdown(ctx, companyID, year)
	if err != nil {
		return nil, err
	}

	return &CompanyTotals{
		Company:     *company,
		TotalCarbon: company.TotalCarbon,
		Monthly:     snapshots,
		Year:        year,
		Yearly:      yearly,
	}, nil
}
