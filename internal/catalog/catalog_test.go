package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/carbontrack/internal/models"
)

func TestLookupExactMatch(t *testing.T) {
	c, err := New([]models.EmissionFactor{
		{Type: "ENERGY", Category: "electricity", Scope: models.ScopeOrg, EmissionFactor: 0.42, Unit: "kgCO2e/kWh"},
		{Type: "COMMUTE", Category: "bus", Scope: models.ScopeWorker, EmissionFactor: 0.097, Unit: "kgCO2e/km"},
	})
	require.NoError(t, err)

	f, err := c.Lookup("ENERGY", "electricity", models.ScopeOrg)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, f.EmissionFactor, 1e-9)

	misses := []struct {
		typ, category string
		scope         models.Scope
	}{
		{"ENERGY", "electricity", models.ScopeWorker},
		{"ENERGY", "Electricity", models.ScopeOrg},
		{"ENERGY", "electric", models.ScopeOrg},
		{"energy", "electricity", models.ScopeOrg},
	}
	for _, m := range misses {
		_, err := c.Lookup(m.typ, m.category, m.scope)
		assert.ErrorIs(t, err, ErrFactorNotFound, "%s/%s/%s", m.typ, m.category, m.scope)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	f := models.EmissionFactor{Type: "ENERGY", Category: "electricity", Scope: models.ScopeOrg, Unit: "kgCO2e/kWh"}
	_, err := New([]models.EmissionFactor{f, f})
	assert.ErrorIs(t, err, ErrDuplicateFactor)
}

func TestDefaultSeed(t *testing.T) {
	factors, err := DefaultSeed()
	require.NoError(t, err)

	c, err := New(factors)
	require.NoError(t, err)

	perWorker := c.ByTypeScope("EMPLOYEE_INPUT", models.ScopeOrg)
	assert.Len(t, perWorker, 3)

	electricity, err := c.Lookup("ENERGY", "electricity", models.ScopeOrg)
	require.NoError(t, err)
	require.NotNil(t, electricity.Price)

	for _, f := range c.ByScope(models.ScopeWorker) {
		assert.Equal(t, models.ScopeWorker, f.Scope)
	}
}

func TestLoadSeedRejectsUnknownFields(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("org:\n  ENERGY:\n    electricity:\n      factor: 1\n      unit: kg\n      rate: 2\n"))
	assert.Error(t, err)

	_, err = LoadSeed(strings.NewReader("org:\n  ENERGY:\n    electricity:\n      factor: 1\n"))
	assert.Error(t, err)
}

type fakeStore struct {
	saved []models.EmissionFactor
	fail  error
}

func (f *fakeStore) Upsert(_ context.Context, factor models.EmissionFactor) error {
	if f.fail != nil {
		return f.fail
	}
	f.saved = append(f.saved, factor)
	return nil
}

func (f *fakeStore) GetAll(context.Context) ([]models.EmissionFactor, error) {
	return f.saved, f.fail
}

func TestSeedAndLoad(t *testing.T) {
	ctx := context.Background()
	factors, err := DefaultSeed()
	require.NoError(t, err)

	store := &fakeStore{}
	require.NoError(t, Seed(ctx, store, factors))

	c, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(factors), c.Len())

	store.fail = errors.New("disk full")
	assert.ErrorIs(t, Seed(ctx, store, factors), store.fail)
	_, err = Load(ctx, store)
	assert.ErrorIs(t, err, store.fail)
}
