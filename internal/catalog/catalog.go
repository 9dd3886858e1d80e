// Package catalog holds the emission factor reference data. Factors are
// loaded once from the data store and never change while the process runs.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/emilianohg/carbontrack/internal/models"
)

type key struct {
	factorType string
	category   string
	scope      models.Scope
}

// Catalog is an immutable index of emission factors. It is safe for
// concurrent use.
type Catalog struct {
	factors map[key]models.EmissionFactor
	ordered []models.EmissionFactor
}

// Lister is the part of the data store the catalog loads from.
type Lister interface {
	GetAll(ctx context.Context) ([]models.EmissionFactor, error)
}

func New(factors []models.EmissionFactor) (*Catalog, error) {
	c := &Catalog{factors: make(map[key]models.EmissionFactor, len(factors))}
	for _, f := range factors {
		k := key{f.Type, f.Category, f.Scope}
		if _, exists := c.factors[k]; exists {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrDuplicateFactor, f.Type, f.Category, f.Scope)
		}
		c.factors[k] = f
		c.ordered = append(c.ordered, f)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		a, b := c.ordered[i], c.ordered[j]
		if a.Scope != b.Scope {
			return a.Scope < b.Scope
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Category < b.Category
	})
	return c, nil
}

func Load(ctx context.Context, src Lister) (*Catalog, error) {
	factors, err := src.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load emission factors: %w", err)
	}
	return New(factors)
}

// Lookup requires an exact match on all three keys.
func (c *Catalog) Lookup(factorType, category string, scope models.Scope) (models.EmissionFactor, error) {
	f, ok := c.factors[key{factorType, category, scope}]
	if !ok {
		return models.EmissionFactor{}, fmt.Errorf("%w: type=%q category=%q scope=%q",
			ErrFactorNotFound, factorType, category, scope)
	}
	return f, nil
}

func (c *Catalog) ByScope(scope models.Scope) []models.EmissionFactor {
	var out []models.EmissionFactor
	for _, f := range c.ordered {
		if f.Scope == scope {
			out = append(out, f)
		}
	}
	return out
}

func (c *Catalog) ByTypeScope(factorType string, scope models.Scope) []models.EmissionFactor {
	var out []models.EmissionFactor
	for _, f := range c.ordered {
		if f.Type == factorType && f.Scope == scope {
			out = append(out, f)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}
