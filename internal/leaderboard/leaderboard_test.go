package leaderboard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/db"
	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

var testNow = time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *repository.Store
	analyzer *Analyzer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "leaderboard.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := repository.NewStore(database)
	a := New(store, Options{
		Clock:    clockwork.NewFakeClockAt(testNow),
		Location: time.UTC,
		Logger:   zerolog.Nop(),
	})
	return &fixture{store: store, analyzer: a}
}

func (f *fixture) company(t *testing.T, name string, points int) *models.Company {
	t.Helper()
	c, err := f.store.Companies.Create(context.Background(), name, name+"@example.test")
	require.NoError(t, err)
	if points > 0 {
		_, err = f.store.Companies.AddPoints(context.Background(), c.ID, points)
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) emit(t *testing.T, companyID int64, scope models.Scope, value float64, date time.Time) {
	t.Helper()
	_, err := f.store.Emissions.Create(context.Background(), &models.Emission{
		Type: "TEST", Category: "misc", Amount: 1, Unit: "kg",
		CarbonValue: value, Date: date, Scope: scope, CompanyID: companyID,
	})
	require.NoError(t, err)
	total, err := f.store.Emissions.SumForCompany(context.Background(), companyID)
	require.NoError(t, err)
	require.NoError(t, f.store.Companies.SetTotalCarbon(context.Background(), companyID, total))
}

func TestAnalysisWeightsAndRanks(t *testing.T) {
	f := newFixture(t)
	acme := f.company(t, "Acme", 0)
	globex := f.company(t, "Globex", 0)
	initech := f.company(t, "Initech", 0)
	f.company(t, "Idle", 0)

	// Acme: total 100, org 60 -> 75 + 15 = 90
	f.emit(t, acme.ID, models.ScopeOrg, 40, testNow)
	f.emit(t, acme.ID, models.ScopeOrg, 20, testNow)
	f.emit(t, acme.ID, models.ScopeWorker, 40, testNow)
	// Globex: total 80, org 80 -> 60 + 20 = 80
	f.emit(t, globex.ID, models.ScopeOrg, 80, testNow)
	// Initech: total 100, org 0 -> 75
	f.emit(t, initech.ID, models.ScopeWorker, 100, testNow)

	analysis, err := f.analyzer.Analysis(context.Background())
	require.NoError(t, err)
	require.Len(t, analysis, 3)

	assert.Equal(t, Analysis{Rank: 1, CompanyID: initech.ID, Name: "Initech", TotalCarbon: 100, OrgExpense: 0, Weighted: 75}, analysis[0])
	assert.Equal(t, Analysis{Rank: 2, CompanyID: globex.ID, Name: "Globex", TotalCarbon: 80, OrgExpense: 80, Weighted: 80}, analysis[1])
	assert.Equal(t, Analysis{Rank: 3, CompanyID: acme.ID, Name: "Acme", TotalCarbon: 100, OrgExpense: 60, Weighted: 90}, analysis[2])
}

func TestAnalysisCustomWeights(t *testing.T) {
	f := newFixture(t)
	f.analyzer = New(f.store, Options{Location: time.UTC, Weights: Weights{Total: 1, Org: 0}, Logger: zerolog.Nop()})
	c := f.company(t, "Acme", 0)
	f.emit(t, c.ID, models.ScopeOrg, 10, testNow)

	analysis, err := f.analyzer.Analysis(context.Background())
	require.NoError(t, err)
	require.Len(t, analysis, 1)
	assert.InDelta(t, 10.0, analysis[0].Weighted, 1e-9)
}

func TestLeaderboardOrdersByPoints(t *testing.T) {
	f := newFixture(t)
	f.company(t, "Umbrella", 5)
	f.company(t, "Acme", 20)
	f.company(t, "Globex", 5)
	f.company(t, "Hooli", 0)

	standings, err := f.analyzer.Leaderboard(context.Background())
	require.NoError(t, err)

	var names []string
	for i, s := range standings {
		assert.Equal(t, i+1, s.Rank)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Acme", "Globex", "Umbrella", "Hooli"}, names)
	assert.Equal(t, 20, standings[0].Points)
}

func TestMonthlyStats(t *testing.T) {
	f := newFixture(t)
	acme := f.company(t, "Acme", 7)
	fresh := f.company(t, "Fresh", 0)

	f.emit(t, acme.ID, models.ScopeOrg, 100, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC))
	f.emit(t, acme.ID, models.ScopeOrg, 50, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC))
	f.emit(t, acme.ID, models.ScopeOrg, 90, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))
	f.emit(t, fresh.ID, models.ScopeWorker, 12, testNow)

	stats, err := f.analyzer.MonthlyStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byID := map[int64]MonthlyStat{}
	for _, s := range stats {
		byID[s.CompanyID] = s
	}

	a := byID[acme.ID]
	assert.InDelta(t, 240.0, a.TotalCarbon, 1e-9)
	assert.InDelta(t, 20.0, a.MonthlyAverage, 1e-9)
	assert.InDelta(t, 50.0, a.CurrentMonth, 1e-9)
	assert.InDelta(t, 100.0, a.PreviousMonth, 1e-9)
	assert.InDelta(t, -50.0, a.LastMonthChange, 1e-9)
	assert.Equal(t, 7, a.Points)

	n := byID[fresh.ID]
	assert.InDelta(t, 12.0, n.CurrentMonth, 1e-9)
	assert.Zero(t, n.LastMonthChange)
}
