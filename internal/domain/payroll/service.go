package payroll

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gestor/internal/domain/contract"
)

// Service owns payroll lifecycle and ledger mutations. All mutating
// operations against one payroll must be serialized by the caller; the
// full-item re-aggregation on every call assumes a single writer per
// payroll row. Different payrolls are independent.
type Service struct {
	store  StoreAPI
	poster TransactionPoster
	rates  Rates
}

func NewService(store StoreAPI, poster TransactionPoster, rates Rates) *Service {
	return &Service{store: store, poster: poster, rates: rates}
}

// Get returns the full aggregate view, verifying stored totals against
// the item sets first.
func (s *Service) Get(ctx context.Context, payrollID string) (*Payroll, error) {
	p, err := s.store.LoadPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if err := VerifyAggregates(p); err != nil {
		return nil, fmt.Errorf("payroll %s: %w", payrollID, err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, companyID string, limit, offset int) ([]Payroll, int, error) {
	total, err := s.store.CountPayrolls(ctx, companyID)
	if err != nil {
		return nil, 0, err
	}
	payrolls, err := s.store.ListPayrolls(ctx, companyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return payrolls, total, nil
}

// mutable loads a payroll for mutation, rejecting closed ones and
// verifying aggregate integrity before anything changes.
func (s *Service) mutable(ctx context.Context, payrollID string) (*Payroll, error) {
	p, err := s.store.LoadPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if p.IsClosed {
		return nil, ErrPayrollClosed
	}
	if err := VerifyAggregates(p); err != nil {
		return nil, fmt.Errorf("payroll %s: %w", payrollID, err)
	}
	return p, nil
}

// contractsByID loads the payroll's eligible contracts keyed by id.
func (s *Service) contractsByID(ctx context.Context, p *Payroll) (map[string]contract.Contract, error) {
	contracts, err := s.store.ActiveContracts(ctx, p.CompanyID, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]contract.Contract, len(contracts))
	for _, c := range contracts {
		byID[c.ID] = c
	}
	return byID, nil
}

func (s *Service) findEmployee(p *Payroll, payrollEmployeeID string) (*PayrollEmployee, error) {
	for i := range p.Employees {
		if p.Employees[i].ID == payrollEmployeeID {
			return &p.Employees[i], nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func newItemID() string {
	return uuid.NewString()
}
