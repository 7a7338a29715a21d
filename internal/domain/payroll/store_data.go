package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (s *Store) LoadPayroll(ctx context.Context, payrollID string) (*Payroll, error) {
	var p Payroll
	var percent string
	err := s.DB.QueryRow(ctx, `
    SELECT id, company_id, period_start, period_end,
           total_gross, total_deductions, total_net, total_inss, total_fgts,
           thirteenth_percent::text, thirteenth_taxes,
           is_closed, closed_at, COALESCE(closed_by, ''),
           paid_inss, paid_fgts, COALESCE(account_id::text, ''), payment_date, created_at
    FROM payrolls
    WHERE id = $1
  `, payrollID).Scan(&p.ID, &p.CompanyID, &p.PeriodStart, &p.PeriodEnd,
		&p.TotalGrossPay, &p.TotalDeductions, &p.TotalNetPay, &p.TotalINSS, &p.TotalFGTS,
		&percent, &p.ThirteenthTaxes,
		&p.IsClosed, &p.ClosedAt, &p.ClosedBy,
		&p.PaidINSS, &p.PaidFGTS, &p.AccountID, &p.PaymentDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPayrollNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.ThirteenthPercent, err = decimal.NewFromString(percent); err != nil {
		return nil, err
	}

	if p.Employees, err = s.loadEmployees(ctx, payrollID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) loadEmployees(ctx context.Context, payrollID string) ([]PayrollEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, payroll_id, employee_id, contract_id,
           days_in_period, days_worked, hours_worked,
           is_on_vacation, vacation_days, vacation_start,
           vacation_taxes, vacation_advance, COALESCE(vacation_notes, ''), advance_amount,
           total_gross, total_deductions, total_net, total_inss, total_fgts
    FROM payroll_employees
    WHERE payroll_id = $1
    ORDER BY position, id
  `, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []PayrollEmployee
	index := map[string]int{}
	for rows.Next() {
		var pe PayrollEmployee
		if err := rows.Scan(&pe.ID, &pe.PayrollID, &pe.EmployeeID, &pe.ContractID,
			&pe.DaysInPeriod, &pe.DaysWorked, &pe.HoursWorked,
			&pe.IsOnVacation, &pe.VacationDays, &pe.VacationStart,
			&pe.VacationTaxes, &pe.VacationAdvance, &pe.VacationNotes, &pe.AdvanceAmount,
			&pe.TotalGrossPay, &pe.TotalDeductions, &pe.TotalNetPay, &pe.TotalINSS, &pe.TotalFGTS); err != nil {
			return nil, err
		}
		index[pe.ID] = len(employees)
		employees = append(employees, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.DB.Query(ctx, `
    SELECT i.id, i.payroll_employee_id, i.description, i.item_type, i.category,
           i.application, i.amount, COALESCE(i.reference_id::text, ''),
           COALESCE(i.calculation_basis, ''), i.calculation_details, i.is_manual, i.installment
    FROM payroll_items i
    JOIN payroll_employees pe ON i.payroll_employee_id = pe.id
    WHERE pe.payroll_id = $1
    ORDER BY i.position, i.id
  `, payrollID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		if err := itemRows.Scan(&item.ID, &item.PayrollEmployeeID, &item.Description, &item.Type,
			&item.Category, &item.Application, &item.Amount, &item.ReferenceID,
			&item.CalculationBasis, &item.CalculationDetails, &item.IsManual, &item.Installment); err != nil {
			return nil, err
		}
		if at, ok := index[item.PayrollEmployeeID]; ok {
			employees[at].Items = append(employees[at].Items, item)
		}
	}
	return employees, itemRows.Err()
}

func (s *Store) CountPayrolls(ctx context.Context, companyID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payrolls WHERE company_id = $1", companyID).Scan(&total)
	return total, err
}

// ListPayrolls returns header rows only; employees and items are loaded
// through LoadPayroll when a single aggregate is needed.
func (s *Store) ListPayrolls(ctx context.Context, companyID string, limit, offset int) ([]Payroll, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, period_start, period_end,
           total_gross, total_deductions, total_net, total_inss, total_fgts,
           thirteenth_percent::text, thirteenth_taxes,
           is_closed, closed_at, COALESCE(closed_by, ''),
           paid_inss, paid_fgts, COALESCE(account_id::text, ''), payment_date, created_at
    FROM payrolls
    WHERE company_id = $1
    ORDER BY period_start DESC
    LIMIT $2 OFFSET $3
  `, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payrolls []Payroll
	for rows.Next() {
		var p Payroll
		var percent string
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.PeriodStart, &p.PeriodEnd,
			&p.TotalGrossPay, &p.TotalDeductions, &p.TotalNetPay, &p.TotalINSS, &p.TotalFGTS,
			&percent, &p.ThirteenthTaxes,
			&p.IsClosed, &p.ClosedAt, &p.ClosedBy,
			&p.PaidINSS, &p.PaidFGTS, &p.AccountID, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.ThirteenthPercent, err = decimal.NewFromString(percent); err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, rows.Err()
}

func (s *Store) CreateAdvance(ctx context.Context, adv *Advance) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_advances (id, company_id, employee_id, description, amount,
                                  due_date, source_payroll_id, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, adv.ID, adv.CompanyID, adv.EmployeeID, adv.Description, adv.Amount,
		adv.DueDate, adv.SourcePayrollID, adv.CreatedAt)
	return err
}

func (s *Store) DeleteAdvanceBySource(ctx context.Context, sourcePayrollID, employeeID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM payroll_advances
    WHERE source_payroll_id = $1 AND employee_id = $2 AND consumed_payroll_id IS NULL
  `, sourcePayrollID, employeeID)
	return err
}

// PendingAdvances returns advances due inside the period that are either
// unconsumed or already bound to the given payroll (so recalculation sees
// its own advances again).
func (s *Store) PendingAdvances(ctx context.Context, companyID string, start, end time.Time, payrollID string) ([]Advance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, employee_id, description, amount, due_date,
           source_payroll_id, COALESCE(consumed_payroll_id::text, ''), created_at, consumed_at
    FROM payroll_advances
    WHERE company_id = $1 AND due_date >= $2 AND due_date <= $3
      AND (consumed_payroll_id IS NULL OR consumed_payroll_id = $4)
    ORDER BY created_at, id
  `, companyID, start, end, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []Advance
	for rows.Next() {
		var adv Advance
		if err := rows.Scan(&adv.ID, &adv.CompanyID, &adv.EmployeeID, &adv.Description, &adv.Amount,
			&adv.DueDate, &adv.SourcePayrollID, &adv.ConsumedPayrollID, &adv.CreatedAt, &adv.ConsumedAt); err != nil {
			return nil, err
		}
		advances = append(advances, adv)
	}
	return advances, rows.Err()
}

func (s *Store) MarkAdvanceConsumed(ctx context.Context, advanceID, payrollID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_advances SET consumed_payroll_id = $1, consumed_at = now() WHERE id = $2
  `, payrollID, advanceID)
	return err
}
