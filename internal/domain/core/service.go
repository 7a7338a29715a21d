package core

import "context"

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *Service) CreateCompany(ctx context.Context, c Company) (string, error) {
	return s.store.CreateCompany(ctx, c)
}

func (s *Service) UpdateCompany(ctx context.Context, id string, c Company) error {
	return s.store.UpdateCompany(ctx, id, c)
}

func (s *Service) GetEmployee(ctx context.Context, companyID, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, companyID, id)
}

func (s *Service) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, companyID)
}

func (s *Service) CreateEmployee(ctx context.Context, companyID string, e Employee) (string, error) {
	return s.store.CreateEmployee(ctx, companyID, e)
}

func (s *Service) UpdateEmployee(ctx context.Context, companyID, id string, e Employee) error {
	return s.store.UpdateEmployee(ctx, companyID, id, e)
}

func (s *Service) DeactivateEmployee(ctx context.Context, companyID, id string) error {
	return s.store.DeactivateEmployee(ctx, companyID, id)
}

func (s *Service) GetAccount(ctx context.Context, companyID, id string) (Account, error) {
	return s.store.GetAccount(ctx, companyID, id)
}

func (s *Service) ListAccounts(ctx context.Context, companyID string) ([]Account, error) {
	return s.store.ListAccounts(ctx, companyID)
}

func (s *Service) CreateAccount(ctx context.Context, companyID string, a Account) (string, error) {
	return s.store.CreateAccount(ctx, companyID, a)
}

func (s *Service) GetCostCenter(ctx context.Context, companyID, id string) (CostCenter, error) {
	return s.store.GetCostCenter(ctx, companyID, id)
}

func (s *Service) ListCostCenters(ctx context.Context, companyID string, activeOnly bool) ([]CostCenter, error) {
	return s.store.ListCostCenters(ctx, companyID, activeOnly)
}

func (s *Service) CreateCostCenter(ctx context.Context, companyID string, cc CostCenter) (string, error) {
	return s.store.CreateCostCenter(ctx, companyID, cc)
}

func (s *Service) UpdateCostCenter(ctx context.Context, companyID, id string, cc CostCenter) error {
	return s.store.UpdateCostCenter(ctx, companyID, id, cc)
}

func (s *Service) DeactivateCostCenter(ctx context.Context, companyID, id string) error {
	return s.store.DeactivateCostCenter(ctx, companyID, id)
}
