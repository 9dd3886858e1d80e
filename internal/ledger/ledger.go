// Package ledger keeps each company's cached carbon total and monthly
// snapshot consistent with its emission rows.
//
// Every write path takes a per-company lock and runs inside one immediate
// sqlite transaction, so the total, the snapshot and the rows that produced
// them always commit together.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/emilianohg/carbontrack/internal/logging"
	"github.com/emilianohg/carbontrack/internal/repository"
)

type Options struct {
	Clock      clockwork.Clock
	Location   *time.Location
	Categories map[string]string // category -> bucket name
	Logger     zerolog.Logger
}

type Ledger struct {
	store   *repository.Store
	clock   clockwork.Clock
	loc     *time.Location
	buckets map[string]Bucket
	log     zerolog.Logger
	locks   keyedMutex
}

func New(store *repository.Store, opts Options) *Ledger {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	buckets := make(map[string]Bucket, len(opts.Categories))
	for category, bucket := range opts.Categories {
		buckets[category] = Bucket(bucket)
	}
	if len(buckets) == 0 {
		for _, b := range namedBuckets {
			buckets[string(b)] = b
		}
	}
	return &Ledger{
		store:   store,
		clock:   opts.Clock,
		loc:     opts.Location,
		buckets: buckets,
		log:     logging.Component(opts.Logger, "ledger"),
	}
}

// Location is the zone used for calendar-month boundaries.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Apply runs fn and then recomputes the company's totals in the same
// transaction. fn typically creates, updates or deletes emission rows.
func (l *Ledger) Apply(ctx context.Context, companyID int64, fn func(tx *repository.Store) error) (float64, error) {
	unlock := l.locks.lock(companyID)
	defer unlock()

	var total float64
	err := l.store.InTx(ctx, func(tx *repository.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		total, err = l.recompute(ctx, tx, companyID)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.log.Debug().Int64("company_id", companyID).Float64("total_carbon", total).Msg("totals recomputed")
	return total, nil
}

// RecomputeCompanyTotals resums every emission of the company and writes the
// result to the company record and the current month's snapshot.
func (l *Ledger) RecomputeCompanyTotals(ctx context.Context, companyID int64) (float64, error) {
	return l.Apply(ctx, companyID, func(*repository.Store) error { return nil })
}

// Increment runs fn, which returns the carbon it added, and bumps the cached
// total by that amount without resumming.
func (l *Ledger) Increment(ctx context.Context, companyID int64, fn func(tx *repository.Store) (float64, error)) (float64, error) {
	unlock := l.locks.lock(companyID)
	defer unlock()

	var total float64
	err := l.store.InTx(ctx, func(tx *repository.Store) error {
		delta, err := fn(tx)
		if err != nil {
			return err
		}
		total, err = tx.Companies.AddTotalCarbon(ctx, companyID, delta)
		if err != nil {
			return fmt.Errorf("increment company %d total: %w", companyID, err)
		}
		return tx.Monthly.Upsert(ctx, companyID, l.currentMonth(), total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (l *Ledger) recompute(ctx context.Context, tx *repository.Store, companyID int64) (float64, error) {
	total, err := tx.Emissions.SumForCompany(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("sum company %d emissions: %w", companyID, err)
	}
	if err := tx.Companies.SetTotalCarbon(ctx, companyID, total); err != nil {
		return 0, fmt.Errorf("write company %d total: %w", companyID, err)
	}
	if err := tx.Monthly.Upsert(ctx, companyID, l.currentMonth(), total); err != nil {
		return 0, fmt.Errorf("write company %d monthly snapshot: %w", companyID, err)
	}
	return total, nil
}

// Drift describes a company whose cached total disagreed with its rows.
type Drift struct {
	CompanyID int64
	Name      string
	Cached    float64
	Actual    float64
}

// Reconcile recomputes every company and reports the ones that had drifted.
func (l *Ledger) Reconcile(ctx context.Context) ([]Drift, error) {
	companies, err := l.store.Companies.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	var drifts []Drift
	for _, c := range companies {
		var cached float64
		actual, err := l.Apply(ctx, c.ID, func(tx *repository.Store) error {
			current, err := tx.Companies.GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("company %d: %w", c.ID, repository.ErrNotFound)
			}
			cached = current.TotalCarbon
			return nil
		})
		if err != nil {
			return drifts, fmt.Errorf("reconcile company %d: %w", c.ID, err)
		}
		if drifted(cached, actual) {
			d := Drift{CompanyID: c.ID, Name: c.Name, Cached: cached, Actual: actual}
			l.log.Warn().
				Int64("company_id", c.ID).
				Float64("cached", cached).
				Float64("actual", actual).
				Msg("company total drifted")
			drifts = append(drifts, d)
		}
	}
	return drifts, nil
}

func (l *Ledger) currentMonth() time.Time {
	return MonthStart(l.clock.Now().In(l.loc))
}

// drifted reports a difference larger than rounding, scaled by the size of
// the total.
func drifted(cached, actual float64) bool {
	return math.Abs(actual-cached) > driftTolerance*math.Max(1, math.Abs(actual))
}

const driftTolerance = 1e-9

// Forget releases the lock entry of a deleted company.
func (l *Ledger) Forget(companyID int64) {
	l.locks.forget(companyID)
}

// MonthStart returns midnight of the first day of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// keyedMutex holds one lock per company. Entries are dropped by forget when
// the company is deleted.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (k *keyedMutex) forget(id int64) {
	k.mu.Lock()
	delete(k.locks, id)
	k.mu.Unlock()
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
