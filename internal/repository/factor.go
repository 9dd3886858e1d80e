package repository

import (
	"context"
	"database/sql"

	"github.com/emilianohg/carbontrack/internal/models"
)

type FactorRepo struct {
	db DBTX
}

func NewFactorRepo(db DBTX) *FactorRepo {
	return &FactorRepo{db: db}
}

const factorColumns = "id, type, category, scope, emission_factor, unit, price, price_unit"

// Upsert inserts the factor or replaces the rate of the existing
// (type, category, scope) entry.
func (r *FactorRepo) Upsert(ctx context.Context, f models.EmissionFactor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emission_factors (type, category, scope, emission_factor, unit, price, price_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (type, category, scope) DO UPDATE SET
			emission_factor = excluded.emission_factor,
			unit = excluded.unit,
			price = excluded.price,
			price_unit = excluded.price_unit
	`, f.Type, f.Category, string(f.Scope), f.EmissionFactor, f.Unit, nullFloat(f.Price), nullString(f.PriceUnit))
	return err
}

func (r *FactorRepo) Find(ctx context.Context, factorType, category string, scope models.Scope) (*models.EmissionFactor, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+factorColumns+" FROM emission_factors WHERE type = ? AND category = ? AND scope = ?",
		factorType, category, string(scope),
	)
	f, err := scanFactor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FactorRepo) GetAll(ctx context.Context) ([]models.EmissionFactor, error) {
	return r.query(ctx, "SELECT "+factorColumns+" FROM emission_factors ORDER BY scope, type, category")
}

func (r *FactorRepo) GetByScope(ctx context.Context, scope models.Scope) ([]models.EmissionFactor, error) {
	return r.query(ctx,
		"SELECT "+factorColumns+" FROM emission_factors WHERE scope = ? ORDER BY type, category",
		string(scope),
	)
}

func (r *FactorRepo) query(ctx context.Context, query string, args ...any) ([]models.EmissionFactor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factors []models.EmissionFactor
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, err
		}
		factors = append(factors, *f)
	}
	return factors, rows.Err()
}

func scanFactor(row rowScanner) (*models.EmissionFactor, error) {
	var f models.EmissionFactor
	var scope string
	var price sql.NullFloat64
	var priceUnit sql.NullString

	if err := row.Scan(&f.ID, &f.Type, &f.Category, &scope, &f.EmissionFactor, &f.Unit, &price, &priceUnit); err != nil {
		return nil, err
	}

	f.Scope = models.Scope(scope)
	if price.Valid {
		f.Price = &price.Float64
	}
	f.PriceUnit = priceUnit.String
	return &f, nil
}
