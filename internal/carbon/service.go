package carbon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

// FactorLookup is the read side of the emission factor catalog.
type FactorLookup interface {
	Lookup(factorType, category string, scope models.Scope) (models.EmissionFactor, error)
	ByScope(scope models.Scope) []models.EmissionFactor
}

type Options struct {
	Clock      clockwork.Clock
	MaxAgeDays int // 0 disables the back-dating limit
	Logger     zerolog.Logger
}

// Service records emissions for companies and their workers. Every write
// goes through the ledger so the company total follows the rows.
type Service struct {
	factors FactorLookup
	store   *repository.Store
	ledger  *ledger.Ledger
	clock   clockwork.Clock
	maxAge  int
	log     zerolog.Logger
}

func NewService(factors FactorLookup, store *repository.Store, l *ledger.Ledger, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Service{
		factors: factors,
		store:   store,
		ledger:  l,
		clock:   opts.Clock,
		maxAge:  opts.MaxAgeDays,
		log:     logging.Component(opts.Logger, "emissions"),
	}
}

// Actor identifies who records an emission. WorkerID is nil for the
// company itself.
type Actor struct {
	CompanyID int64
	WorkerID  *int64
}

func CompanyActor(companyID int64) Actor {
	return Actor{CompanyID: companyID}
}

func WorkerActor(companyID, workerID int64) Actor {
	return Actor{CompanyID: companyID, WorkerID: &workerID}
}

type Estimate struct {
	CarbonValue float64  `json:"carbonValue"`
	Cost        *float64 `json:"cost,omitempty"`
	Unit        string   `json:"unit"`
}

// Calculate resolves the factor and returns the carbon value without
// writing anything.
func (s *Service) Calculate(factorType, category string, amount float64, scope models.Scope) (*Estimate, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	factor, err := s.factors.Lookup(factorType, category, scope)
	if err != nil {
		return nil, err
	}
	r := Calculate(amount, factor)
	return &Estimate{CarbonValue: r.CarbonValue, Cost: r.Cost, Unit: factor.Unit}, nil
}

type EmissionInput struct {
	Type     string
	Category string
	Amount   float64
	Scope    models.Scope
	Date     time.Time // zero means now
}

// CreateEmission calculates and stores one emission for the actor and
// refreshes the company totals in the same transaction.
func (s *Service) CreateEmission(ctx context.Context, actor Actor, in EmissionInput) (*models.Emission, error) {
	if !in.Scope.Valid() {
		return nil, fmt.Errorf("%w: scope %q", ErrInvalidInput, in.Scope)
	}
	if actor.WorkerID != nil && in.Scope != models.ScopeWorker {
		return nil, fmt.Errorf("%w: workers record %s emissions only", ErrScopeMismatch, models.ScopeWorker)
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(in.Date)
	if err != nil {
		return nil, err
	}
	factor, err := s.factors.Lookup(in.Type, in.Category, in.Scope)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompany(ctx, actor.CompanyID); err != nil {
		return nil, err
	}

	r := Calculate(in.Amount, factor)
	var created *models.Emission
	total, err := s.ledger.Apply(ctx, actor.CompanyID, func(tx *repository.Store) error {
		if actor.WorkerID != nil {
			w, err := tx.Workers.GetByID(ctx, actor.CompanyID, *actor.WorkerID)
			if err != nil {
				return err
			}
			if w == nil {
				return fmt.Errorf("worker %d: %w", *actor.WorkerID, ErrEntityNotFound)
			}
		}
		var err error
		created, err = tx.Emissions.Create(ctx, &models.Emission{
			Type:        in.Type,
			Category:    in.Category,
			Amount:      in.Amount,
			Unit:        factor.Unit,
			CarbonValue: r.CarbonValue,
			Cost:        r.Cost,
			Date:        date,
			Scope:       in.Scope,
			Source:      models.SourceManual,
			CompanyID:   actor.CompanyID,
			WorkerID:    actor.WorkerID,
		})
		return err
	})
	if err != nil {
		return nil, storeError("create emission", err)
	}

	s.log.Info().
		Int64("company_id", actor.CompanyID).
		Int64("emission_id", created.ID).
		Str("category", created.Category).
		Float64("carbon_value", created.CarbonValue).
		Float64("total_carbon", total).
		Msg("emission recorded")
	return created, nil
}

// UpdateEmission replaces the amount (and optionally the date) of an
// emission. The factor is resolved again so the carbon value reflects the
// current catalog.
func (s *Service) UpdateEmission(ctx context.Context, companyID, id int64, amount float64, date *time.Time) (*models.Emission, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if date != nil {
		d, err := s.resolveDate(*date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	var updated *models.Emission
	_, err := s.ledger.Apply(ctx, companyID, func(tx *repository.Store) error {
		e, err := tx.Emissions.GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("emission %d: %w", id, ErrEntityNotFound)
		}
		factor, err := s.factors.Lookup(e.Type, e.Category, e.Scope)
		if err != nil {
			return err
		}
		r := Calculate(amount, factor)
		e.Amount = amount
		e.Unit = factor.Unit
		e.CarbonValue = r.CarbonValue
		e.Cost = r.Cost
		if date != nil {
			e.Date = *date
		}
		if err := tx.Emissions.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, storeError("update emission", err)
	}
	return updated, nil
}

func (s *Service) DeleteEmission(ctx context.Context, companyID, id int64) error {
	_, err := s.ledger.Apply(ctx, companyID, func(tx *repository.Store) error {
		return tx.Emissions.Delete(ctx, companyID, id)
	})
	if err != nil {
		return storeError("delete emission", err)
	}
	return nil
}

func (s *Service) ListEmissions(ctx context.Context, companyID int64) ([]models.Emission, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	emissions, err := s.store.Emissions.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, storeError("list emissions", err)
	}
	return emissions, nil
}

// Factors lists the catalog entries available for a scope.
func (s *Service) Factors(scope models.Scope) ([]models.EmissionFactor, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: scope %q", ErrInvalidInput, scope)
	}
	return s.factors.ByScope(scope), nil
}

func (s *Service) GetCompanyTotals(ctx context.Context, companyID int64) (*ledger.CompanyTotals, error) {
	totals, err := s.ledger.Totals(ctx, companyID)
	if err != nil {
		return nil, storeError("company totals", err)
	}
	return totals, nil
}

func (s *Service) Stats(ctx context.Context, companyID int64) (*ledger.Stats, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	stats, err := s.ledger.Stats(ctx, companyID)
	if err != nil {
		return nil, storeError("company stats", err)
	}
	return stats, nil
}

func (s *Service) resolveDate(date time.Time) (time.Time, error) {
	now := s.clock.Now()
	if date.IsZero() {
		return now, nil
	}
	if date.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, date.Format(time.RFC3339))
	}
	if s.maxAge > 0 && date.Before(now.AddDate(0, 0, -s.maxAge)) {
		return time.Time{}, fmt.Errorf("%w: %s is older than %d days", ErrInvalidDate, date.Format(time.RFC3339), s.maxAge)
	}
	return date, nil
}

func (s *Service) requireCompany(ctx context.Context, companyID int64) error {
	c, err := s.store.Companies.GetByID(ctx, companyID)
	if err != nil {
		return storeError("get company", err)
	}
	if c == nil {
		return fmt.Errorf("company %d: %w", companyID, ErrEntityNotFound)
	}
	return nil
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}
	return nil
}

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

func requireEmail(email string) error {
	if err := requireName("email", email); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q has no domain", ErrInvalidInput, email)
	}
	return nil
}

// storeError passes domain errors through and wraps everything else in a
// CalculationError. A repository miss becomes ErrEntityNotFound.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrEntityNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, ErrDuplicateEmail)
	case errors.Is(err, ErrEntityNotFound),
		errors.Is(err, ErrFactorNotFound),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrScopeMismatch):
		return err
	}
	return &CalculationError{Op: op, Err: err}
}
