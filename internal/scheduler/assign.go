package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

// FactorSource returns the factors charged once per worker each month.
type FactorSource interface {
	ByTypeScope(factorType string, scope models.Scope) []models.EmissionFactor
}

type AutoAssigner struct {
	store      *repository.Store
	ledger     *ledger.Ledger
	factors    FactorSource
	factorType string
	scope      models.Scope
	clock      clockwork.Clock
	log        zerolog.Logger
}

func NewAutoAssigner(store *repository.Store, l *ledger.Ledger, factors FactorSource, factorType string, scope models.Scope, clock clockwork.Clock, logger zerolog.Logger) *AutoAssigner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AutoAssigner{
		store:      store,
		ledger:     l,
		factors:    factors,
		factorType: factorType,
		scope:      scope,
		clock:      clock,
		log:        logging.Component(logger, "auto-assign"),
	}
}

type AssignResult struct {
	BatchID   string
	Companies int
	Rows      int
	Carbon    float64
}

// Run satisfies Job.Run.
func (a *AutoAssigner) Run(ctx context.Context) error {
	_, err := a.Assign(ctx)
	return err
}

// Assign writes one MONTHLY_AUTO emission per per-worker factor for every
// company with at least one worker. amount is the headcount and the carbon
// value is factor times headcount. A failing company does not stop the
// others; their errors are joined.
func (a *AutoAssigner) Assign(ctx context.Context) (*AssignResult, error) {
	log := loggerFrom(ctx, a.log)
	result := &AssignResult{BatchID: uuid.NewString()}

	factors := a.factors.ByTypeScope(a.factorType, a.scope)
	if len(factors) == 0 {
		log.Warn().Str("type", a.factorType).Str("scope", string(a.scope)).Msg("no per-worker factors configured")
		return result, nil
	}

	counts, err := a.store.Workers.CountByCompany(ctx)
	if err != nil {
		return result, fmt.Errorf("count workers: %w", err)
	}
	companyIDs := make([]int64, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			companyIDs = append(companyIDs, id)
		}
	}
	sort.Slice(companyIDs, func(i, j int) bool { return companyIDs[i] < companyIDs[j] })

	now := a.clock.Now()
	var errs []error
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		headcount := counts[companyID]
		var added float64
		total, err := a.ledger.Increment(ctx, companyID, func(tx *repository.Store) (float64, error) {
			var err error
			added, err = a.assignCompany(ctx, tx, companyID, headcount, factors, now, result.BatchID)
			return added, err
		})
		if err != nil {
			log.Error().Err(err).Int64("company_id", companyID).Msg("auto-assign failed for company")
			errs = append(errs, fmt.Errorf("company %d: %w", companyID, err))
			continue
		}
		result.Companies++
		result.Rows += len(factors)
		result.Carbon += added
		log.Debug().
			Int64("company_id", companyID).
			Int("workers", headcount).
			Float64("total_carbon", total).
			Msg("company assigned")
	}

	log.Info().
		Str("batch_id", result.BatchID).
		Int("companies", result.Companies).
		Int("rows", result.Rows).
		Float64("carbon", result.Carbon).
		Msg("auto-assignment complete")
	return result, errors.Join(errs...)
}

func (a *AutoAssigner) assignCompany(ctx context.Context, tx *repository.Store, companyID int64, headcount int, factors []models.EmissionFactor, now time.Time, batchID string) (float64, error) {
	var added float64
	for _, f := range factors {
		e, err := tx.Emissions.Create(ctx, &models.Emission{
			Type:        f.Type,
			Category:    f.Category,
			Amount:      float64(headcount),
			Unit:        f.Unit,
			CarbonValue: f.EmissionFactor * float64(headcount),
			Date:        now,
			Scope:       a.scope,
			Source:      models.SourceMonthlyAuto,
			BatchID:     batchID,
			CompanyID:   companyID,
		})
		if err != nil {
			return 0, err
		}
		added += e.CarbonValue
	}
	return added, nil
}

// loggerFrom prefers the run-scoped logger the scheduler stores in ctx.
func loggerFrom(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
