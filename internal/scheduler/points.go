package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/repository"
)

// ChangePercent is the month-over-month change of current against previous.
// It is 0 when there is no previous baseline.
func ChangePercent(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// PointDelta maps a month-over-month carbon change onto a point award.
// Reductions earn points, increases cost them.
func PointDelta(previous, current float64) int {
	if previous <= 0 {
		return 0
	}
	pct := ChangePercent(previous, current)
	switch {
	case pct <= -5:
		return 10
	case pct <= -1:
		return 5
	case pct < 0:
		return 2
	case pct == 0:
		return 0
	case pct <= 1:
		return -2
	case pct <= 5:
		return -5
	default:
		return -10
	}
}

type PointScorer struct {
	store *repository.Store
	clock clockwork.Clock
	loc   *time.Location
	log   zerolog.Logger
}

func NewPointScorer(store *repository.Store, clock clockwork.Clock, loc *time.Location, logger zerolog.Logger) *PointScorer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &PointScorer{
		store: store,
		clock: clock,
		loc:   loc,
		log:   logging.Component(logger, "points"),
	}
}

type PointChange struct {
	CompanyID int64
	Name      string
	Previous  float64
	Current   float64
	Delta     int
	Points    int
}

func (p *PointScorer) Run(ctx context.Context) error {
	_, err := p.Score(ctx)
	return err
}

// Score compares every company's current calendar month with the previous
// one and applies the resulting delta. Points never drop below zero.
func (p *PointScorer) Score(ctx context.Context) ([]PointChange, error) {
	log := loggerFrom(ctx, p.log)

	companies, err := p.store.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	thisMonth := ledger.MonthStart(p.clock.Now().In(p.loc))
	lastMonth := thisMonth.AddDate(0, -1, 0)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	var changes []PointChange
	var errs []error
	for _, c := range companies {
		change, err := p.scoreCompany(ctx, c.ID, lastMonth, thisMonth, nextMonth)
		if err != nil {
			log.Error().Err(err).Int64("company_id", c.ID).Msg("point scoring failed for company")
			errs = append(errs, fmt.Errorf("company %d: %w", c.ID, err))
			continue
		}
		change.Name = c.Name
		changes = append(changes, change)
		log.Debug().
			Int64("company_id", c.ID).
			Float64("previous", change.Previous).
			Float64("current", change.Current).
			Int("delta", change.Delta).
			Int("points", change.Points).
			Msg("points updated")
	}

	log.Info().Int("companies", len(changes)).Time("month", thisMonth).Msg("point scoring complete")
	return changes, errors.Join(errs...)
}

func (p *PointScorer) scoreCompany(ctx context.Context, companyID int64, lastMonth, thisMonth, nextMonth time.Time) (PointChange, error) {
	previous, err := p.store.Emissions.SumForCompanyBetween(ctx, companyID, lastMonth, thisMonth)
	if err != nil {
		return PointChange{}, err
	}
	current, err := p.store.Emissions.SumForCompanyBetween(ctx, companyID, thisMonth, nextMonth)
	if err != nil {
		return PointChange{}, err
	}

	delta := PointDelta(previous, current)
	points, err := p.store.Companies.AddPoints(ctx, companyID, delta)
	if err != nil {
		return PointChange{}, err
	}
	return PointChange{
		CompanyID: companyID,
		Previous:  previous,
		Current:   current,
		Delta:     delta,
		Points:    points,
	}, nil
}
