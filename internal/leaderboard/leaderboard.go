// Package leaderboard ranks companies against each other for the
// dashboards: a weighted footprint analysis, the points standings and a
// month-over-month summary.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
	"github.com/emilianohg/carbontrack/internal/scheduler"
)

// Weights applied to a company's total and organization-scope carbon.
type Weights struct {
	Total float64
	Org   float64
}

var DefaultWeights = Weights{Total: 0.75, Org: 0.25}

type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	Weights  Weights // zero value means DefaultWeights
	Logger   zerolog.Logger
}

type Analyzer struct {
	store   *repository.Store
	clock   clockwork.Clock
	loc     *time.Location
	weights Weights
	log     zerolog.Logger
}

func New(store *repository.Store, opts Options) *Analyzer {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	return &Analyzer{
		store:   store,
		clock:   opts.Clock,
		loc:     opts.Location,
		weights: opts.Weights,
		log:     logging.Component(opts.Logger, "leaderboard"),
	}
}

type Analysis struct {
	Rank        int     `json:"rank"`
	CompanyID   int64   `json:"companyId"`
	Name        string  `json:"name"`
	TotalCarbon float64 `json:"totalCarbon"`
	OrgExpense  float64 `json:"orgExpense"`
	Weighted    float64 `json:"totalCarbonWeighted"`
}

// Analysis scores every company that has emissions. TotalCarbon sums all
// scopes, OrgExpense sums the ORG scope only. Lower weighted scores rank
// first.
func (a *Analyzer) Analysis(ctx context.Context) ([]Analysis, error) {
	companies, err := a.store.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	names := make(map[int64]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}

	sums, err := a.store.Emissions.SumByCompanyScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum emissions by company: %w", err)
	}

	byCompany := make(map[int64]*Analysis)
	for _, s := range sums {
		entry, ok := byCompany[s.CompanyID]
		if !ok {
			entry = &Analysis{CompanyID: s.CompanyID, Name: names[s.CompanyID]}
			byCompany[s.CompanyID] = entry
		}
		entry.TotalCarbon += s.Total
		if s.Scope == models.ScopeOrg {
			entry.OrgExpense += s.Total
		}
	}

	result := make([]Analysis, 0, len(byCompany))
	for _, entry := range byCompany {
		entry.Weighted = entry.TotalCarbon*a.weights.Total + entry.OrgExpense*a.weights.Org
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weighted != result[j].Weighted {
			return result[i].Weighted < result[j].Weighted
		}
		return result[i].Name < result[j].Name
	})
	for i := range result {
		result[i].Rank = i + 1
	}
	return result, nil
}

type Standing struct {
	Rank        int     `json:"rank"`
	CompanyID   int64   `json:"companyId"`
	Name        string  `json:"name"`
	Points      int     `json:"points"`
	TotalCarbon float64 `json:"totalCarbon"`
}

// Leaderboard orders companies by points, highest first.
func (a *Analyzer) Leaderboard(ctx context.Context) ([]Standing, error) {
	companies, err := a.store.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	sort.SliceStable(companies, func(i, j int) bool {
		if companies[i].Points != companies[j].Points {
			return companies[i].Points > companies[j].Points
		}
		return companies[i].Name < companies[j].Name
	})

	standings := make([]Standing, len(companies))
	for i, c := range companies {
		standings[i] = Standing{
			Rank:        i + 1,
			CompanyID:   c.ID,
			Name:        c.Name,
			Points:      c.Points,
			TotalCarbon: c.TotalCarbon,
		}
	}
	return standings, nil
}

type MonthlyStat struct {
	CompanyID       int64   `json:"companyId"`
	Name            string  `json:"name"`
	TotalCarbon     float64 `json:"totalCarbon"`
	MonthlyAverage  float64 `json:"monthlyAverage"`
	CurrentMonth    float64 `json:"currentMonth"`
	PreviousMonth   float64 `json:"previousMonth"`
	LastMonthChange float64 `json:"lastMonthChange"`
	Points          int     `json:"points"`
}

const monthlyStatsConcurrency = 4

// MonthlyStats compares each company's current calendar month with the
// previous one. Results keep the company listing order.
func (a *Analyzer) MonthlyStats(ctx context.Context) ([]MonthlyStat, error) {
	companies, err := a.store.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	thisMonth := ledger.MonthStart(a.clock.Now().In(a.loc))
	lastMonth := thisMonth.AddDate(0, -1, 0)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	stats := make([]MonthlyStat, len(companies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(monthlyStatsConcurrency)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			current, err := a.store.Emissions.SumForCompanyBetween(gctx, c.ID, thisMonth, nextMonth)
			if err != nil {
				return fmt.Errorf("company %d current month: %w", c.ID, err)
			}
			previous, err := a.store.Emissions.SumForCompanyBetween(gctx, c.ID, lastMonth, thisMonth)
			if err != nil {
				return fmt.Errorf("company %d previous month: %w", c.ID, err)
			}
			stats[i] = MonthlyStat{
				CompanyID:       c.ID,
				Name:            c.Name,
				TotalCarbon:     c.TotalCarbon,
				MonthlyAverage:  c.TotalCarbon / 12,
				CurrentMonth:    current,
				PreviousMonth:   previous,
				LastMonthChange: scheduler.ChangePercent(previous, current),
				Points:          c.Points,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.log.Debug().Int("companies", len(stats)).Time("month", thisMonth).Msg("monthly stats computed")
	return stats, nil
}
