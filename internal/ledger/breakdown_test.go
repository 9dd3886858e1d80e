package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

func TestYearlyBreakdownBuckets(t *testing.T) {
	now := time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now, map[string]string{
		"electricity": "electricity",
		"elektrik":    "electricity",
		"naturalGas":  "naturalGas",
		"vehicles":    "vehicles",
		"waste":       "waste",
	})

	jan := time.Date(2025, time.January, 5, 8, 0, 0, 0, time.UTC)
	mar := time.Date(2025, time.March, 30, 23, 0, 0, 0, time.UTC)
	f.addEmission(t, "electricity", 10, jan, models.ScopeOrg)
	f.addEmission(t, "elektrik", 5, jan, models.ScopeOrg)
	f.addEmission(t, "paper", 2, jan, models.ScopeOrg)
	f.addEmission(t, "naturalGas", 7, mar, models.ScopeOrg)
	f.addEmission(t, "vehicles", 3, mar, models.ScopeOrg)
	f.addEmission(t, "waste", 1, mar, models.ScopeOrg)
	f.addEmission(t, "train", 4, mar, models.ScopeWorker)
	f.addEmission(t, "electricity", 100, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), models.ScopeOrg)

	months, err := f.ledger.YearlyBreakdown(context.Background(), f.company.ID, 2025)
	require.NoError(t, err)
	require.Len(t, months, 12)

	assert.Equal(t, MonthBreakdown{Month: 1, Electricity: 15, Other: 2, Total: 17}, months[0])
	assert.Equal(t, MonthBreakdown{Month: 2}, months[1])
	assert.Equal(t, MonthBreakdown{Month: 3, NaturalGas: 7, Vehicles: 3, Waste: 1, Other: 4, Total: 15}, months[2])
	for i := 3; i < 12; i++ {
		assert.Equal(t, MonthBreakdown{Month: i + 1}, months[i])
	}
}

func TestYearlyBreakdownEmptyCompany(t *testing.T) {
	f := newFixture(t, time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC), nil)

	months, err := f.ledger.YearlyBreakdown(context.Background(), f.company.ID, 2025)
	require.NoError(t, err)
	require.Len(t, months, 12)
	for i, m := range months {
		assert.Equal(t, i+1, m.Month)
		assert.Zero(t, m.Total)
	}
}

func TestStatsAndTotals(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now, nil)

	f.addEmission(t, "electricity", 6, now.Add(-time.Hour), models.ScopeOrg)
	f.addEmission(t, "waste", 2, now.AddDate(0, 0, -3), models.ScopeOrg)
	f.addEmission(t, "waste", 9, now.AddDate(0, -2, 0), models.ScopeOrg)

	stats, err := f.ledger.Stats(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, []repository.CategorySum{{Category: "electricity", Total: 6}}, stats.Daily.Items)
	assert.Equal(t, []repository.CategorySum{{Category: "electricity", Total: 6}, {Category: "waste", Total: 2}}, stats.Monthly.Items)
	assert.Equal(t, 2025, stats.Year)
	assert.InDelta(t, 9.0, stats.Yearly[1].Waste, 1e-9)
	assert.True(t, stats.Monthly.Start.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))

	totals, err := f.ledger.Totals(ctx, f.company.ID)
	require.NoError(t, err)
	assert.InDelta(t, 17.0, totals.TotalCarbon, 1e-9)
	require.Len(t, totals.Monthly, 1)
	assert.InDelta(t, 17.0, totals.Monthly[0].TotalCarbon, 1e-9)
	assert.Len(t, totals.Yearly, 12)

	_, err = f.ledger.Totals(ctx, f.company.ID+10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
