package repository

import (
	"context"
	"database/sql"

	"github.com/emilianohg/carbontrack/internal/models"
)

type CompanyRepo struct {
	db DBTX
}

func NewCompanyRepo(db DBTX) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = "id, name, email, total_carbon, points, created_at"

func (r *CompanyRepo) Create(ctx context.Context, name, email string) (*models.Company, error) {
	result, err := r.db.ExecContext(ctx, "INSERT INTO companies (name, email) VALUES (?, ?)", name, email)
	if err != nil {
		return nil, uniqueViolation(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	var c models.Company
	err := r.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.TotalCarbon, &c.Points, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepo) GetAll(ctx context.Context) ([]models.Company, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+companyColumns+" FROM companies ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.TotalCarbon, &c.Points, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepo) Update(ctx context.Context, id int64, name, email string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE companies SET name = ?, email = ? WHERE id = ?", name, email, id)
	if err != nil {
		return uniqueViolation(err)
	}
	return checkAffected(result)
}

func (r *CompanyRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetTotalCarbon overwrites the cached running total.
func (r *CompanyRepo) SetTotalCarbon(ctx context.Context, id int64, total float64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE companies SET total_carbon = ? WHERE id = ?", total, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// AddTotalCarbon atomically increments the cached total and returns the new value.
func (r *CompanyRepo) AddTotalCarbon(ctx context.Context, id int64, delta float64) (float64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE companies SET total_carbon = total_carbon + ? WHERE id = ?", delta, id)
	if err != nil {
		return 0, err
	}
	if err := checkAffected(result); err != nil {
		return 0, err
	}

	var total float64
	err = r.db.QueryRowContext(ctx, "SELECT total_carbon FROM companies WHERE id = ?", id).Scan(&total)
	return total, err
}

// AddPoints applies delta to the company's points, flooring the result at zero,
// and returns the new value.
func (r *CompanyRepo) AddPoints(ctx context.Context, id int64, delta int) (int, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE companies SET points = MAX(0, points + ?) WHERE id = ?", delta, id)
	if err != nil {
		return 0, err
	}
	if err := checkAffected(result); err != nil {
		return 0, err
	}

	var points int
	err = r.db.QueryRowContext(ctx, "SELECT points FROM companies WHERE id = ?", id).Scan(&points)
	return points, err
}

type CompanyWithStats struct {
	models.Company
	WorkerCount   int
	EmissionCount int
}

func (r *CompanyRepo) GetAllWithStats(ctx context.Context) ([]CompanyWithStats, error) {
	query := `
		SELECT
			c.id, c.name, c.email, c.total_carbon, c.points, c.created_at,
			(SELECT COUNT(*) FROM workers w WHERE w.company_id = c.id) as worker_count,
			(SELECT COUNT(*) FROM emissions e WHERE e.company_id = c.id) as emission_count
		FROM companies c
		ORDER BY c.name, c.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []CompanyWithStats
	for rows.Next() {
		var c CompanyWithStats
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.TotalCarbon, &c.Points, &c.CreatedAt,
			&c.WorkerCount, &c.EmissionCount,
		); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
