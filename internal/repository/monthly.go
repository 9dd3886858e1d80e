package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/emilianohg/carbontrack/internal/models"
)

type MonthlyRepo struct {
	db DBTX
}

func NewMonthlyRepo(db DBTX) *MonthlyRepo {
	return &MonthlyRepo{db: db}
}

// Upsert overwrites the snapshot for (companyID, month).
func (r *MonthlyRepo) Upsert(ctx context.Context, companyID int64, month time.Time, total float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_emissions (company_id, month, total_carbon)
		VALUES (?, ?, ?)
		ON CONFLICT (company_id, month) DO UPDATE SET total_carbon = excluded.total_carbon
	`, companyID, month.UTC(), total)
	return err
}

func (r *MonthlyRepo) Get(ctx context.Context, companyID int64, month time.Time) (*models.MonthlyEmission, error) {
	var m models.MonthlyEmission
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, month, total_carbon
		FROM monthly_emissions
		WHERE company_id = ? AND month = ?
	`, companyID, month.UTC()).Scan(&m.ID, &m.CompanyID, &m.Month, &m.TotalCarbon)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MonthlyRepo) GetByCompanyID(ctx context.Context, companyID int64) ([]models.MonthlyEmission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, month, total_carbon
		FROM monthly_emissions
		WHERE company_id = ?
		ORDER BY month
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.MonthlyEmission
	for rows.Next() {
		var m models.MonthlyEmission
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Month, &m.TotalCarbon); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, m)
	}
	return snapshots, rows.Err()
}
