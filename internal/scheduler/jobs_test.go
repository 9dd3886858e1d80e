package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/catalog"
	"github.com/emilianohg/carbontrack/internal/db"
	"github.com/emilianohg/carbontrack/internal/ledger"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

func newJobStore(t *testing.T) *repository.Store {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "jobs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return repository.NewStore(database)
}

func TestAutoAssignChargesPerWorker(t *testing.T) {
	ctx := context.Background()
	store := newJobStore(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC))
	l := ledger.New(store, ledger.Options{Clock: clock, Location: time.UTC, Logger: zerolog.Nop()})

	cat, err := catalog.New([]models.EmissionFactor{
		{Type: "EMPLOYEE_INPUT", Category: "drinkingWater", Scope: models.ScopeOrg, EmissionFactor: 0.5, Unit: "kgCO2e/person"},
		{Type: "EMPLOYEE_INPUT", Category: "cafeteria", Scope: models.ScopeOrg, EmissionFactor: 2, Unit: "kgCO2e/person"},
		{Type: "ENERGY", Category: "electricity", Scope: models.ScopeOrg, EmissionFactor: 0.4, Unit: "kgCO2e/kWh"},
	})
	require.NoError(t, err)

	staffed, err := store.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)
	empty, err := store.Companies.Create(ctx, "Globex", "hq@globex.test")
	require.NoError(t, err)
	for _, name := range []string{"Ana", "Luis", "Marta"} {
		_, err := store.Workers.Create(ctx, staffed.ID, name, "Ops")
		require.NoError(t, err)
	}

	a := NewAutoAssigner(store, l, cat, "EMPLOYEE_INPUT", models.ScopeOrg, clock, zerolog.Nop())
	result, err := a.Assign(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Companies)
	assert.Equal(t, 2, result.Rows)
	assert.InDelta(t, 7.5, result.Carbon, 1e-9)
	assert.NotEmpty(t, result.BatchID)

	emissions, err := store.Emissions.GetByCompanyID(ctx, staffed.ID)
	require.NoError(t, err)
	require.Len(t, emissions, 2)
	for _, e := range emissions {
		assert.Equal(t, models.SourceMonthlyAuto, e.Source)
		assert.Equal(t, result.BatchID, e.BatchID)
		assert.InDelta(t, 3.0, e.Amount, 1e-9)
		assert.Equal(t, models.ScopeOrg, e.Scope)
		assert.Nil(t, e.WorkerID)
	}

	c, err := store.Companies.GetByID(ctx, staffed.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, c.TotalCarbon, 1e-9)
	snapshot, err := store.Monthly.Get(ctx, staffed.ID, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.InDelta(t, 7.5, snapshot.TotalCarbon, 1e-9)

	none, err := store.Emissions.GetByCompanyID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	recomputed, err := l.RecomputeCompanyTotals(ctx, staffed.ID)
	require.NoError(t, err)
	assert.InDelta(t, c.TotalCarbon, recomputed, 1e-9)

	second, err := a.Assign(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, result.BatchID, second.BatchID)
}

func TestAutoAssignWithoutFactors(t *testing.T) {
	ctx := context.Background()
	store := newJobStore(t)
	l := ledger.New(store, ledger.Options{Location: time.UTC, Logger: zerolog.Nop()})
	cat, err := catalog.New(nil)
	require.NoError(t, err)

	company, err := store.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)
	_, err = store.Workers.Create(ctx, company.ID, "Ana", "Ops")
	require.NoError(t, err)

	result, err := NewAutoAssigner(store, l, cat, "EMPLOYEE_INPUT", models.ScopeOrg, nil, zerolog.Nop()).Assign(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Rows)
}

func TestPointScorer(t *testing.T) {
	ctx := context.Background()
	store := newJobStore(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.May, 27, 0, 0, 0, 0, time.UTC))

	type month struct {
		previous, current float64
		points            int
	}
	cases := map[string]month{
		"reduced":   {previous: 100, current: 94, points: 0},
		"increased": {previous: 100, current: 106, points: 5},
		"new":       {previous: 0, current: 40, points: 3},
		"steady":    {previous: 100, current: 100, points: 7},
	}

	ids := make(map[string]int64)
	for name, m := range cases {
		c, err := store.Companies.Create(ctx, name, name+"@test")
		require.NoError(t, err)
		ids[name] = c.ID
		if m.points > 0 {
			_, err = store.Companies.AddPoints(ctx, c.ID, m.points)
			require.NoError(t, err)
		}
		for date, v := range map[time.Time]float64{
			time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC): m.previous,
			time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC):    m.current,
		} {
			if v == 0 {
				continue
			}
			_, err := store.Emissions.Create(ctx, &models.Emission{
				Type: "ENERGY", Category: "electricity", Amount: 1, Unit: "kWh",
				CarbonValue: v, Date: date, Scope: models.ScopeOrg, CompanyID: c.ID,
			})
			require.NoError(t, err)
		}
	}
	// outside both windows
	_, err := store.Emissions.Create(ctx, &models.Emission{
		Type: "ENERGY", Category: "electricity", Amount: 1, Unit: "kWh",
		CarbonValue: 500, Date: time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		Scope: models.ScopeOrg, CompanyID: ids["steady"],
	})
	require.NoError(t, err)

	changes, err := NewPointScorer(store, clock, time.UTC, zerolog.Nop()).Score(ctx)
	require.NoError(t, err)
	require.Len(t, changes, len(cases))

	want := map[string]struct{ delta, points int }{
		"reduced":   {10, 10},
		"increased": {-10, 0},
		"new":       {0, 3},
		"steady":    {0, 7},
	}
	for _, ch := range changes {
		w := want[ch.Name]
		assert.Equal(t, w.delta, ch.Delta, ch.Name)
		assert.Equal(t, w.points, ch.Points, ch.Name)

		c, err := store.Companies.GetByID(ctx, ch.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, w.points, c.Points, ch.Name)
	}
}
