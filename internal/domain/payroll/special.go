package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// VacationParams carries the caller-facing vacation inputs.
type VacationParams struct {
	Days             int
	StartDate        time.Time
	IncludeTaxes     bool
	AdvanceNextMonth bool
	Notes            string
}

// ApplyThirteenth inserts, for every employee, a thirteenth-salary credit
// of percent over the regular-salary base, with optional withholding
// debits. The percentage is stored on the payroll so recalculation
// regenerates the same items.
func (s *Service) ApplyThirteenth(ctx context.Context, payrollID string, percent decimal.Decimal, withTaxes bool) (*Payroll, error) {
	if !percent.IsPositive() || percent.GreaterThan(oneHundred) {
		return nil, ErrPercentagesNotNormalized
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if p.ThirteenthPercent.IsPositive() {
		return nil, ErrThirteenthAlreadyApplied
	}

	byID, err := s.contractsByID(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ThirteenthPercent = percent
	p.ThirteenthTaxes = withTaxes
	for i := range p.Employees {
		pe := &p.Employees[i]
		c, ok := byID[pe.ContractID]
		if !ok {
			continue
		}
		pe.Items = append(pe.Items, ThirteenthItems(*pe, c, p.PeriodStart, percent, withTaxes, s.rates)...)
	}
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveThirteenth deletes every thirteenth item and the tax items
// referencing them, restoring the ledger to its pre-apply state.
func (s *Service) RemoveThirteenth(ctx context.Context, payrollID string) (*Payroll, error) {
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if !p.ThirteenthPercent.IsPositive() {
		return nil, ErrThirteenthNotApplied
	}

	for i := range p.Employees {
		pe := &p.Employees[i]
		remove := map[string]bool{}
		for _, item := range pe.Items {
			if item.Category == CategoryThirteenth {
				remove[item.ID] = true
			}
		}
		pe.Items = dropItems(pe.Items, remove)
	}
	p.ThirteenthPercent = decimal.Zero
	p.ThirteenthTaxes = false
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyVacation marks one employee on vacation and inserts the vacation
// pay, the one-third bonus and optional withholding. With
// AdvanceNextMonth the gross vacation value is additionally scheduled as
// a deduction in the following period rather than this one.
func (s *Service) ApplyVacation(ctx context.Context, payrollID, payrollEmployeeID string, params VacationParams) (*Payroll, error) {
	if params.Days < 1 || params.Days > VacationEntitlementDays {
		return nil, ErrInvalidVacationDays
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	pe, err := s.findEmployee(p, payrollEmployeeID)
	if err != nil {
		return nil, err
	}
	if pe.IsOnVacation {
		return nil, ErrVacationAlreadyApplied
	}
	byID, err := s.contractsByID(ctx, p)
	if err != nil {
		return nil, err
	}
	c, ok := byID[pe.ContractID]
	if !ok {
		return nil, ErrEmployeeNotFound
	}

	start := params.StartDate
	pe.IsOnVacation = true
	pe.VacationDays = params.Days
	pe.VacationStart = &start
	pe.VacationTaxes = params.IncludeTaxes
	pe.VacationAdvance = params.AdvanceNextMonth
	pe.VacationNotes = params.Notes
	pe.Items = append(pe.Items, VacationItems(*pe, c, s.rates)...)

	if params.AdvanceNextMonth {
		pe.AdvanceAmount = VacationAdvanceAmount(*pe, c)
		if err := s.store.CreateAdvance(ctx, &Advance{
			ID:              newItemID(),
			CompanyID:       p.CompanyID,
			EmployeeID:      pe.EmployeeID,
			Description:     "Vacation advance",
			Amount:          pe.AdvanceAmount,
			DueDate:         p.PeriodEnd.AddDate(0, 0, 1),
			SourcePayrollID: p.ID,
			CreatedAt:       time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
	}

	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveVacation reverses ApplyVacation: vacation items and their tax
// items go away, the flags clear, and a still-pending advance scheduled
// for the next period is withdrawn.
func (s *Service) RemoveVacation(ctx context.Context, payrollID, payrollEmployeeID string) (*Payroll, error) {
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	pe, err := s.findEmployee(p, payrollEmployeeID)
	if err != nil {
		return nil, err
	}
	if !pe.IsOnVacation {
		return nil, ErrVacationNotApplied
	}

	remove := map[string]bool{}
	for _, item := range pe.Items {
		if item.Category == CategoryVacation || item.Category == CategoryVacationBonus {
			remove[item.ID] = true
		}
	}
	pe.Items = dropItems(pe.Items, remove)
	pe.IsOnVacation = false
	pe.VacationDays = 0
	pe.VacationStart = nil
	pe.VacationTaxes = false
	pe.VacationNotes = ""

	if pe.VacationAdvance {
		if err := s.store.DeleteAdvanceBySource(ctx, p.ID, pe.EmployeeID); err != nil {
			return nil, err
		}
		pe.VacationAdvance = false
		pe.AdvanceAmount = 0
	}

	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
