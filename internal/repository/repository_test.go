package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/db"
	"github.com/emilianohg/carbontrack/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "store.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func ptr[T any](v T) *T { return &v }

func TestCompanyAddPointsFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)

	points, err := s.Companies.AddPoints(ctx, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, points)

	points, err = s.Companies.AddPoints(ctx, c.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, points)

	_, err = s.Companies.AddPoints(ctx, c.ID+100, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyAddTotalCarbon(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)

	total, err := s.Companies.AddTotalCarbon(ctx, c.ID, 12.5)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, total, 1e-9)

	total, err = s.Companies.AddTotalCarbon(ctx, c.ID, 7.5)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, total, 1e-9)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Companies.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, c)

	w, err := s.Workers.GetByID(ctx, 1, 42)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestWorkerScopedToCompany(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Companies.Create(ctx, "A", "a@test")
	require.NoError(t, err)
	b, err := s.Companies.Create(ctx, "B", "b@test")
	require.NoError(t, err)

	w, err := s.Workers.Create(ctx, a.ID, "Deniz", "Support")
	require.NoError(t, err)

	got, err := s.Workers.GetByID(ctx, b.ID, w.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.Workers.Delete(ctx, b.ID, w.ID), ErrNotFound)

	_, err = s.Workers.Create(ctx, a.ID, "Ece", "Sales")
	require.NoError(t, err)

	counts, err := s.Workers.CountByCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{a.ID: 2}, counts)
}

func TestEmissionSums(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)

	march := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 2, 8, 30, 0, 0, time.UTC)

	rows := []models.Emission{
		{Type: "ENERGY", Category: "electricity", Amount: 100, Unit: "kg", CarbonValue: 40, Date: march, Scope: models.ScopeOrg, CompanyID: c.ID},
		{Type: "ENERGY", Category: "electricity", Amount: 50, Unit: "kg", CarbonValue: 20, Date: march, Scope: models.ScopeOrg, CompanyID: c.ID},
		{Type: "TRAVEL", Category: "train", Amount: 10, Unit: "kg", CarbonValue: 5, Cost: ptr(12.0), Date: april, Scope: models.ScopeWorker, CompanyID: c.ID},
	}
	for i := range rows {
		_, err := s.Emissions.Create(ctx, &rows[i])
		require.NoError(t, err)
	}

	total, err := s.Emissions.SumForCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.InDelta(t, 65.0, total, 1e-9)

	marchStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	aprilStart := marchStart.AddDate(0, 1, 0)
	inMarch, err := s.Emissions.SumForCompanyBetween(ctx, c.ID, marchStart, aprilStart)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, inMarch, 1e-9)

	byCategory, err := s.Emissions.SumByCategory(ctx, c.ID, marchStart, aprilStart.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []CategorySum{{Category: "electricity", Total: 60}, {Category: "train", Total: 5}}, byCategory)

	dated, err := s.Emissions.SumByCategoryAndDate(ctx, c.ID, marchStart, aprilStart.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, dated, 2)
	assert.True(t, dated[0].Date.Equal(march))
	assert.InDelta(t, 60.0, dated[0].Total, 1e-9)

	scoped, err := s.Emissions.SumByCompanyScope(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CompanyScopeSum{
		{CompanyID: c.ID, Scope: models.ScopeOrg, Total: 60},
		{CompanyID: c.ID, Scope: models.ScopeWorker, Total: 5},
	}, scoped)

	listed, err := s.Emissions.GetByCompanyID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "train", listed[0].Category)
	require.NotNil(t, listed[0].Cost)
	assert.InDelta(t, 12.0, *listed[0].Cost, 1e-9)
	assert.Equal(t, models.SourceManual, listed[0].Source)
}

func TestFactorUpsertReplacesRate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f := models.EmissionFactor{Type: "ENERGY", Category: "electricity", Scope: models.ScopeOrg, EmissionFactor: 0.4, Unit: "kgCO2e/kWh"}
	require.NoError(t, s.Factors.Upsert(ctx, f))

	f.EmissionFactor = 0.5
	f.Price = ptr(2.5)
	require.NoError(t, s.Factors.Upsert(ctx, f))

	all, err := s.Factors.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 0.5, all[0].EmissionFactor, 1e-9)
	require.NotNil(t, all[0].Price)

	missing, err := s.Factors.Find(ctx, "ENERGY", "electricity", models.ScopeWorker)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMonthlyUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)

	month := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Monthly.Upsert(ctx, c.ID, month, 10))
	require.NoError(t, s.Monthly.Upsert(ctx, c.ID, month, 25))

	snapshots, err := s.Monthly.GetByCompanyID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.InDelta(t, 25.0, snapshots[0].TotalCarbon, 1e-9)
	assert.True(t, snapshots[0].Month.Equal(month))
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.Companies.Create(ctx, "Acme", "ops@acme.test"); err != nil {
			return err
		}
		return tx.InTx(ctx, func(inner *Store) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	companies, err := s.Companies.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestCompanyDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Companies.Create(ctx, "Acme", "ops@acme.test")
	require.NoError(t, err)

	_, err = s.Companies.Create(ctx, "Other", "ops@acme.test")
	assert.ErrorIs(t, err, ErrDuplicate)

	globex, err := s.Companies.Create(ctx, "Globex", "hq@globex.test")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Companies.Update(ctx, globex.ID, "Globex", "ops@acme.test"), ErrDuplicate)
}
