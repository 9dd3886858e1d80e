package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/emilianohg/carbontrack/internal/models"
)

type EmissionRepo struct {
	db DBTX
}

func NewEmissionRepo(db DBTX) *EmissionRepo {
	return &EmissionRepo{db: db}
}

const emissionColumns = `id, type, category, amount, unit, carbon_value, cost, date,
	scope, source, batch_id, company_id, worker_id, created_at`

func (r *EmissionRepo) Create(ctx context.Context, e *models.Emission) (*models.Emission, error) {
	source := e.Source
	if source == "" {
		source = models.SourceManual
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO emissions (type, category, amount, unit, carbon_value, cost, date,
			scope, source, batch_id, company_id, worker_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Type, e.Category, e.Amount, e.Unit, e.CarbonValue, nullFloat(e.Cost), e.Date.UTC(),
		string(e.Scope), source, nullString(e.BatchID), e.CompanyID, nullInt(e.WorkerID),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, e.CompanyID, id)
}

// GetByID returns the emission only when it belongs to companyID.
func (r *EmissionRepo) GetByID(ctx context.Context, companyID, id int64) (*models.Emission, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+emissionColumns+" FROM emissions WHERE id = ? AND company_id = ?",
		id, companyID,
	)
	e, err := scanEmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EmissionRepo) GetByCompanyID(ctx context.Context, companyID int64) ([]models.Emission, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+emissionColumns+" FROM emissions WHERE company_id = ? ORDER BY date DESC, id DESC",
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emissions []models.Emission
	for rows.Next() {
		e, err := scanEmission(rows)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, *e)
	}
	return emissions, rows.Err()
}

// Update rewrites the calculated fields of an existing emission.
func (r *EmissionRepo) Update(ctx context.Context, e *models.Emission) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE emissions
		SET amount = ?, unit = ?, carbon_value = ?, cost = ?, date = ?
		WHERE id = ? AND company_id = ?
	`, e.Amount, e.Unit, e.CarbonValue, nullFloat(e.Cost), e.Date.UTC(), e.ID, e.CompanyID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *EmissionRepo) Delete(ctx context.Context, companyID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM emissions WHERE id = ? AND company_id = ?", id, companyID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SumForCompany returns the sum of carbon_value over all of the company's rows.
func (r *EmissionRepo) SumForCompany(ctx context.Context, companyID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(carbon_value), 0.0) FROM emissions WHERE company_id = ?",
		companyID,
	).Scan(&total)
	return total, err
}

// SumForCompanyBetween sums carbon_value for rows dated in [from, to).
func (r *EmissionRepo) SumForCompanyBetween(ctx context.Context, companyID int64, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(carbon_value), 0.0)
		FROM emissions
		WHERE company_id = ? AND date >= ? AND date < ?
	`, companyID, from.UTC(), to.UTC()).Scan(&total)
	return total, err
}

type CategorySum struct {
	Category string
	Total    float64
}

// SumByCategory groups the company's rows dated in [from, to) by category.
func (r *EmissionRepo) SumByCategory(ctx context.Context, companyID int64, from, to time.Time) ([]CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(carbon_value)
		FROM emissions
		WHERE company_id = ? AND date >= ? AND date < ?
		GROUP BY category
		ORDER BY category
	`, companyID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var s CategorySum
		if err := rows.Scan(&s.Category, &s.Total); err != nil {
			return nil, err
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

type DatedCategorySum struct {
	Category string
	Date     time.Time
	Total    float64
}

// SumByCategoryAndDate groups the company's rows dated in [from, to) by
// category and date.
func (r *EmissionRepo) SumByCategoryAndDate(ctx context.Context, companyID int64, from, to time.Time) ([]DatedCategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, date, SUM(carbon_value)
		FROM emissions
		WHERE company_id = ? AND date >= ? AND date < ?
		GROUP BY category, date
		ORDER BY date, category
	`, companyID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []DatedCategorySum
	for rows.Next() {
		var s DatedCategorySum
		if err := rows.Scan(&s.Category, &s.Date, &s.Total); err != nil {
			return nil, err
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

type CompanyScopeSum struct {
	CompanyID int64
	Scope     models.Scope
	Total     float64
}

// SumByCompanyScope groups every emission by company and scope.
func (r *EmissionRepo) SumByCompanyScope(ctx context.Context) ([]CompanyScopeSum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT company_id, scope, SUM(carbon_value)
		FROM emissions
		GROUP BY company_id, scope
		ORDER BY company_id, scope
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []CompanyScopeSum
	for rows.Next() {
		var s CompanyScopeSum
		var scope string
		if err := rows.Scan(&s.CompanyID, &scope, &s.Total); err != nil {
			return nil, err
		}
		s.Scope = models.Scope(scope)
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmission(row rowScanner) (*models.Emission, error) {
	var e models.Emission
	var cost sql.NullFloat64
	var scope string
	var batchID sql.NullString
	var workerID sql.NullInt64

	if err := row.Scan(
		&e.ID, &e.Type, &e.Category, &e.Amount, &e.Unit, &e.CarbonValue, &cost, &e.Date,
		&scope, &e.Source, &batchID, &e.CompanyID, &workerID, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if cost.Valid {
		e.Cost = &cost.Float64
	}
	if workerID.Valid {
		e.WorkerID = &workerID.Int64
	}
	e.Scope = models.Scope(scope)
	e.BatchID = batchID.String
	return &e, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
