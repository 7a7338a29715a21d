package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gestor/internal/domain/contract"
)

// Create opens a payroll for the period, seeding one PayrollEmployee per
// active payroll-eligible contract and running proration for every
// benefit/discount. Pending advances falling due inside the period become
// deductions immediately.
func (s *Service) Create(ctx context.Context, companyID string, periodStart, periodEnd time.Time) (*Payroll, error) {
	if periodEnd.Before(periodStart) {
		return nil, ErrInvalidPeriod
	}
	overlaps, err := s.store.HasOverlappingPeriod(ctx, companyID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrOverlappingPeriod
	}

	contracts, err := s.store.ActiveContracts(ctx, companyID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	p := &Payroll{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		CreatedAt:   time.Now().UTC(),
	}
	days := daysInPeriod(periodStart, periodEnd)
	for _, c := range contracts {
		p.Employees = append(p.Employees, PayrollEmployee{
			ID:           uuid.NewString(),
			PayrollID:    p.ID,
			EmployeeID:   c.EmployeeID,
			ContractID:   c.ID,
			DaysInPeriod: days,
			DaysWorked:   days,
		})
	}

	advances, err := s.store.PendingAdvances(ctx, companyID, periodStart, periodEnd, p.ID)
	if err != nil {
		return nil, err
	}
	byContract := make(map[string]contract.Contract, len(contracts))
	for _, c := range contracts {
		byContract[c.ID] = c
	}
	for i := range p.Employees {
		pe := &p.Employees[i]
		s.rebuildEmployee(p, pe, byContract[pe.ContractID], advancesFor(advances, pe.EmployeeID))
	}
	Reaggregate(p)

	if err := s.store.InsertPayroll(ctx, p); err != nil {
		return nil, err
	}
	for _, adv := range advances {
		if err := s.store.MarkAdvanceConsumed(ctx, adv.ID, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Recalculate re-runs generation for every employee from scratch,
// discarding prior automatic items and preserving manual ones. Employees
// whose contracts became eligible since creation are added.
func (s *Service) Recalculate(ctx context.Context, payrollID string) (*Payroll, error) {
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}

	byID, err := s.contractsByID(ctx, p)
	if err != nil {
		return nil, err
	}
	advances, err := s.store.PendingAdvances(ctx, p.CompanyID, p.PeriodStart, p.PeriodEnd, p.ID)
	if err != nil {
		return nil, err
	}

	seeded := make(map[string]bool, len(p.Employees))
	for i := range p.Employees {
		seeded[p.Employees[i].ContractID] = true
	}
	days := daysInPeriod(p.PeriodStart, p.PeriodEnd)
	for id, c := range byID {
		if !seeded[id] {
			p.Employees = append(p.Employees, PayrollEmployee{
				ID:           uuid.NewString(),
				PayrollID:    p.ID,
				EmployeeID:   c.EmployeeID,
				ContractID:   c.ID,
				DaysInPeriod: days,
				DaysWorked:   days,
			})
		}
	}

	for i := range p.Employees {
		pe := &p.Employees[i]
		c, ok := byID[pe.ContractID]
		if !ok {
			// Contract no longer eligible; keep the row frozen as-is.
			continue
		}
		s.rebuildEmployee(p, pe, c, advancesFor(advances, pe.EmployeeID))
	}
	Reaggregate(p)

	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	for _, adv := range advances {
		if adv.ConsumedPayrollID == "" {
			if err := s.store.MarkAdvanceConsumed(ctx, adv.ID, p.ID); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// SetEmployeeDays overrides the worked days/hours used by proration for
// one employee and rebuilds that employee's automatic items.
func (s *Service) SetEmployeeDays(ctx context.Context, payrollID, payrollEmployeeID string, daysWorked, hoursWorked int) (*Payroll, error) {
	if daysWorked < 0 || hoursWorked < 0 {
		return nil, ErrNegativeAmount
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	pe, err := s.findEmployee(p, payrollEmployeeID)
	if err != nil {
		return nil, err
	}
	byID, err := s.contractsByID(ctx, p)
	if err != nil {
		return nil, err
	}
	advances, err := s.store.PendingAdvances(ctx, p.CompanyID, p.PeriodStart, p.PeriodEnd, p.ID)
	if err != nil {
		return nil, err
	}

	pe.DaysWorked = daysWorked
	pe.HoursWorked = hoursWorked
	s.rebuildEmployee(p, pe, byID[pe.ContractID], advancesFor(advances, pe.EmployeeID))
	Reaggregate(p)
	if err := s.store.SavePayroll(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Close posts one settlement transaction per employee, split across the
// contract's cost centers, then freezes the payroll. Settlements go out
// before the close commits: a poster failure leaves the payroll open and
// Close retryable, and the poster deduplicates per employee so the retry
// posts only what is still missing. A payroll with no employees cannot be
// closed.
func (s *Service) Close(ctx context.Context, payrollID, accountID string, paymentDate time.Time, inssAmount, fgtsAmount int64, closedBy string) (*Payroll, error) {
	if inssAmount < 0 || fgtsAmount < 0 {
		return nil, ErrNegativeAmount
	}
	p, err := s.mutable(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if len(p.Employees) == 0 {
		return nil, ErrEmptyPayroll
	}

	byID, err := s.contractsByID(ctx, p)
	if err != nil {
		return nil, err
	}

	for i := range p.Employees {
		pe := &p.Employees[i]
		if pe.TotalNetPay <= 0 {
			continue
		}
		var distributions []Allocation
		if c, ok := byID[pe.ContractID]; ok && len(c.CostCenters) > 0 {
			shares := make([]Share, len(c.CostCenters))
			for j, cc := range c.CostCenters {
				shares[j] = Share{Key: cc.CostCenterID, Percent: cc.Percent}
			}
			distributions, err = Allocate(pe.TotalNetPay, shares)
			if err != nil {
				return nil, fmt.Errorf("allocate settlement for employee %s: %w", pe.EmployeeID, err)
			}
		}
		if _, err := s.poster.PostSettlement(ctx, Posting{
			CompanyID:         p.CompanyID,
			PayrollID:         p.ID,
			PayrollEmployeeID: pe.ID,
			EmployeeID:        pe.EmployeeID,
			AccountID:         accountID,
			Description:       fmt.Sprintf("Payroll settlement %s", p.PeriodStart.Format("2006-01")),
			Amount:            pe.TotalNetPay,
			PaymentDate:       paymentDate,
			Distributions:     distributions,
		}); err != nil {
			return nil, fmt.Errorf("post settlement for employee %s: %w", pe.EmployeeID, err)
		}
	}

	now := time.Now().UTC()
	p.IsClosed = true
	p.ClosedAt = &now
	p.ClosedBy = closedBy
	p.AccountID = accountID
	p.PaymentDate = &paymentDate
	p.PaidINSS = inssAmount
	p.PaidFGTS = fgtsAmount

	snapshot, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("snapshot payroll %s: %w", payrollID, err)
	}
	if err := s.store.ClosePayroll(ctx, p, snapshot); err != nil {
		return nil, err
	}
	return p, nil
}

// Reopen clears the closed flag. The snapshot stays as a historical
// record and posted settlements are not reversed; reversal is an explicit
// finance operation.
func (s *Service) Reopen(ctx context.Context, payrollID string) (*Payroll, error) {
	p, err := s.store.LoadPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if !p.IsClosed {
		return nil, ErrPayrollNotClosed
	}
	if err := s.store.ReopenPayroll(ctx, payrollID); err != nil {
		return nil, err
	}
	p.IsClosed = false
	p.ClosedAt = nil
	p.ClosedBy = ""
	return p, nil
}

// rebuildEmployee regenerates the automatic item set for one employee:
// base salary, prorated benefit/discounts, due advances, withholding, the
// payroll-level thirteenth salary and the employee's vacation if set.
// Manual items survive untouched.
func (s *Service) rebuildEmployee(p *Payroll, pe *PayrollEmployee, c contract.Contract, advances []Advance) {
	var manual []Item
	for _, item := range pe.Items {
		if item.IsManual {
			manual = append(manual, item)
		}
	}

	salary := Item{
		ID:                newItemID(),
		PayrollEmployeeID: pe.ID,
		Description:       "Base salary",
		Type:              ItemTypeCredit,
		Category:          CategorySalary,
		Application:       ApplicationSalary,
		Amount:            salaryAmount(c, pe),
		ReferenceID:       c.ID,
		CalculationBasis:  fmt.Sprintf("%d/%d", pe.DaysWorked, pe.DaysInPeriod),
	}
	items := []Item{salary}
	taxable := salary.Amount

	for _, bd := range c.BenefitDiscounts {
		value := Prorate(bd, ApplicationSalary, p.PeriodStart, pe.DaysInPeriod, pe.DaysWorked)
		if value == 0 {
			continue
		}
		item := Item{
			ID:                newItemID(),
			PayrollEmployeeID: pe.ID,
			Description:       bd.Description,
			Type:              ItemTypeCredit,
			Category:          CategoryBenefit,
			Application:       bd.Application,
			Amount:            value,
			ReferenceID:       bd.ID,
			CalculationBasis:  fmt.Sprintf("%d/%d", pe.DaysWorked, pe.DaysInPeriod),
		}
		if bd.Kind == contract.KindDiscount {
			item.Type = ItemTypeDebit
			item.Category = CategoryDiscount
		}
		items = append(items, item)
		if bd.HasTaxes {
			if item.Type == ItemTypeCredit {
				taxable += value
			} else {
				taxable -= value
			}
		}
	}

	for _, adv := range advances {
		items = append(items, Item{
			ID:                newItemID(),
			PayrollEmployeeID: pe.ID,
			Description:       adv.Description,
			Type:              ItemTypeDebit,
			Category:          CategoryVacationAdvance,
			Application:       ApplicationSalary,
			Amount:            adv.Amount,
			ReferenceID:       adv.ID,
		})
	}

	items = append(items, taxItems(pe.ID, salary.ID, CategorySalary, taxable, c, s.rates)...)
	if c.HasFGTS && s.rates.FGTS.IsPositive() {
		pe.TotalFGTS = roundPercentOf(taxable, s.rates.FGTS)
	} else {
		pe.TotalFGTS = 0
	}

	pe.Items = items
	if p.ThirteenthPercent.IsPositive() {
		pe.Items = append(pe.Items, ThirteenthItems(*pe, c, p.PeriodStart, p.ThirteenthPercent, p.ThirteenthTaxes, s.rates)...)
	}
	if pe.IsOnVacation {
		pe.Items = append(pe.Items, VacationItems(*pe, c, s.rates)...)
	}
	pe.Items = append(pe.Items, manual...)
}

func salaryAmount(c contract.Contract, pe *PayrollEmployee) int64 {
	switch c.Type {
	case contract.TypeDaily:
		return c.Value * int64(pe.DaysWorked)
	case contract.TypeHourly:
		return c.Value * int64(pe.HoursWorked)
	default:
		return c.Value
	}
}

func daysInPeriod(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func advancesFor(advances []Advance, employeeID string) []Advance {
	var out []Advance
	for _, adv := range advances {
		if adv.EmployeeID == employeeID {
			out = append(out, adv)
		}
	}
	return out
}
