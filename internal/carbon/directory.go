package carbon

import (
	"context"
	"fmt"

	"github.com/emilianohg/carbontrack/internal/models"
	"github.com/emilianohg/carbontrack/internal/repository"
)

func (s *Service) RegisterCompany(ctx context.Context, name, email string) (*models.Company, error) {
	if err := requireName("name", name); err != nil {
		return nil, err
	}
	if err := requireEmail(email); err != nil {
		return nil, err
	}
	c, err := s.store.Companies.Create(ctx, name, email)
	if err != nil {
		return nil, storeError("register company", err)
	}
	s.log.Info().Int64("company_id", c.ID).Str("name", name).Msg("company registered")
	return c, nil
}

func (s *Service) Company(ctx context.Context, id int64) (*models.Company, error) {
	c, err := s.store.Companies.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get company", err)
	}
	if c == nil {
		return nil, fmt.Errorf("company %d: %w", id, ErrEntityNotFound)
	}
	return c, nil
}

func (s *Service) Companies(ctx context.Context) ([]repository.CompanyWithStats, error) {
	companies, err := s.store.Companies.GetAllWithStats(ctx)
	if err != nil {
		return nil, storeError("list companies", err)
	}
	return companies, nil
}

func (s *Service) UpdateCompany(ctx context.Context, id int64, name, email string) error {
	if err := requireName("name", name); err != nil {
		return err
	}
	if err := requireEmail(email); err != nil {
		return err
	}
	if err := s.store.Companies.Update(ctx, id, name, email); err != nil {
		return storeError("update company", err)
	}
	return nil
}

// DeleteCompany removes the company together with its workers, emissions
// and snapshots.
func (s *Service) DeleteCompany(ctx context.Context, id int64) error {
	if err := s.store.Companies.Delete(ctx, id); err != nil {
		return storeError("delete company", err)
	}
	s.ledger.Forget(id)
	s.log.Info().Int64("company_id", id).Msg("company deleted")
	return nil
}

func (s *Service) CreateWorker(ctx context.Context, companyID int64, name, department string) (*models.Worker, error) {
	if err := requireName("name", name); err != nil {
		return nil, err
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	w, err := s.store.Workers.Create(ctx, companyID, name, department)
	if err != nil {
		return nil, storeError("create worker", err)
	}
	return w, nil
}

func (s *Service) Worker(ctx context.Context, companyID, id int64) (*models.Worker, error) {
	w, err := s.store.Workers.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, storeError("get worker", err)
	}
	if w == nil {
		return nil, fmt.Errorf("worker %d: %w", id, ErrEntityNotFound)
	}
	return w, nil
}

func (s *Service) Workers(ctx context.Context, companyID int64) ([]models.Worker, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	workers, err := s.store.Workers.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, storeError("list workers", err)
	}
	return workers, nil
}

func (s *Service) UpdateWorker(ctx context.Context, companyID, id int64, name, department string) error {
	if err := requireName("name", name); err != nil {
		return err
	}
	if err := s.store.Workers.Update(ctx, companyID, id, name, department); err != nil {
		return storeError("update worker", err)
	}
	return nil
}

// DeleteWorker keeps the worker's past emissions on the company's books.
func (s *Service) DeleteWorker(ctx context.Context, companyID, id int64) error {
	if err := s.store.Workers.Delete(ctx, companyID, id); err != nil {
		return storeError("delete worker", err)
	}
	return nil
}
