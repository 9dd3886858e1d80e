package repository

import (
	"context"
	"database/sql"

	"github.com/emilianohg/carbontrack/internal/models"
)

type WorkerRepo struct {
	db DBTX
}

func NewWorkerRepo(db DBTX) *WorkerRepo {
	return &WorkerRepo{db: db}
}

func (r *WorkerRepo) Create(ctx context.Context, companyID int64, name, department string) (*models.Worker, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO workers (name, department, company_id) VALUES (?, ?, ?)",
		name, department, companyID,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, companyID, id)
}

// GetByID returns the worker only when it belongs to companyID.
func (r *WorkerRepo) GetByID(ctx context.Context, companyID, id int64) (*models.Worker, error) {
	var w models.Worker
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, department, company_id, created_at
		FROM workers
		WHERE id = ? AND company_id = ?
	`, id, companyID).Scan(&w.ID, &w.Name, &w.Department, &w.CompanyID, &w.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkerRepo) GetByCompanyID(ctx context.Context, companyID int64) ([]models.Worker, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, department, company_id, created_at
		FROM workers
		WHERE company_id = ?
		ORDER BY name, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Department, &w.CompanyID, &w.CreatedAt); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// CountByCompany returns the headcount of every company that has workers.
func (r *WorkerRepo) CountByCompany(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT company_id, COUNT(*) FROM workers GROUP BY company_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var companyID int64
		var n int
		if err := rows.Scan(&companyID, &n); err != nil {
			return nil, err
		}
		counts[companyID] = n
	}
	return counts, rows.Err()
}

func (r *WorkerRepo) Update(ctx context.Context, companyID, id int64, name, department string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workers SET name = ?, department = ? WHERE id = ? AND company_id = ?",
		name, department, id, companyID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *WorkerRepo) Delete(ctx context.Context, companyID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workers WHERE id = ? AND company_id = ?", id, companyID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
