package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestor/internal/domain/contract"
)

// Store is the pgx-backed StoreAPI implementation. Aggregate writes run
// in one transaction; items are replaced wholesale, never patched.
type Store struct {
	DB        *pgxpool.Pool
	contracts *contract.Store
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db, contracts: contract.NewStore(db)}
}

func (s *Store) HasOverlappingPeriod(ctx context.Context, companyID string, start, end time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM payrolls
    WHERE company_id = $1 AND period_start <= $2 AND period_end >= $3
  `, companyID, end, start).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertPayroll(ctx context.Context, p *Payroll) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    INSERT INTO payrolls (id, company_id, period_start, period_end,
                          total_gross, total_deductions, total_net, total_inss, total_fgts,
                          thirteenth_percent, thirteenth_taxes, is_closed, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false,$12)
  `, p.ID, p.CompanyID, p.PeriodStart, p.PeriodEnd,
		p.TotalGrossPay, p.TotalDeductions, p.TotalNetPay, p.TotalINSS, p.TotalFGTS,
		p.ThirteenthPercent.StringFixed(2), p.ThirteenthTaxes, p.CreatedAt); err != nil {
		return err
	}
	if err := insertEmployees(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) SavePayroll(ctx context.Context, p *Payroll) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE payrolls
    SET total_gross = $1, total_deductions = $2, total_net = $3,
        total_inss = $4, total_fgts = $5,
        thirteenth_percent = $6, thirteenth_taxes = $7
    WHERE id = $8 AND is_closed = false
  `, p.TotalGrossPay, p.TotalDeductions, p.TotalNetPay, p.TotalINSS, p.TotalFGTS,
		p.ThirteenthPercent.StringFixed(2), p.ThirteenthTaxes, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayrollClosed
	}

	if _, err := tx.Exec(ctx, `
    DELETE FROM payroll_items
    WHERE payroll_employee_id IN (SELECT id FROM payroll_employees WHERE payroll_id = $1)
  `, p.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payroll_employees WHERE payroll_id = $1", p.ID); err != nil {
		return err
	}
	if err := insertEmployees(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ClosePayroll(ctx context.Context, p *Payroll, snapshot []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payrolls
    SET is_closed = true, closed_at = $1, closed_by = $2,
        paid_inss = $3, paid_fgts = $4, account_id = $5, payment_date = $6,
        snapshot_json = $7
    WHERE id = $8 AND is_closed = false
  `, p.ClosedAt, p.ClosedBy, p.PaidINSS, p.PaidFGTS, nullIfEmpty(p.AccountID), p.PaymentDate, snapshot, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayrollClosed
	}
	return nil
}

func (s *Store) ReopenPayroll(ctx context.Context, payrollID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payrolls
    SET is_closed = false, closed_at = NULL, closed_by = NULL
    WHERE id = $1 AND is_closed = true
  `, payrollID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPayrollNotClosed
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context, payrollID string) ([]byte, error) {
	var snapshot []byte
	err := s.DB.QueryRow(ctx, "SELECT snapshot_json FROM payrolls WHERE id = $1", payrollID).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPayrollNotFound
	}
	return snapshot, err
}

func (s *Store) ActiveContracts(ctx context.Context, companyID string, start, end time.Time) ([]contract.Contract, error) {
	return s.contracts.ListActiveForPeriod(ctx, companyID, start, end)
}

func insertEmployees(ctx context.Context, tx pgx.Tx, p *Payroll) error {
	for i := range p.Employees {
		pe := &p.Employees[i]
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_employees (id, payroll_id, position, employee_id, contract_id,
                                     days_in_period, days_worked, hours_worked,
                                     is_on_vacation, vacation_days, vacation_start,
                                     vacation_taxes, vacation_advance, vacation_notes, advance_amount,
                                     total_gross, total_deductions, total_net, total_inss, total_fgts)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
    `, pe.ID, pe.PayrollID, i, pe.EmployeeID, pe.ContractID,
			pe.DaysInPeriod, pe.DaysWorked, pe.HoursWorked,
			pe.IsOnVacation, pe.VacationDays, pe.VacationStart,
			pe.VacationTaxes, pe.VacationAdvance, pe.VacationNotes, pe.AdvanceAmount,
			pe.TotalGrossPay, pe.TotalDeductions, pe.TotalNetPay, pe.TotalINSS, pe.TotalFGTS); err != nil {
			return err
		}
		for j := range pe.Items {
			item := &pe.Items[j]
			if _, err := tx.Exec(ctx, `
        INSERT INTO payroll_items (id, payroll_employee_id, position, description, item_type, category,
                                   application, amount, reference_id, calculation_basis,
                                   calculation_details, is_manual, installment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
      `, item.ID, item.PayrollEmployeeID, j, item.Description, item.Type, item.Category,
				item.Application, item.Amount, nullIfEmpty(item.ReferenceID), item.CalculationBasis,
				item.CalculationDetails, item.IsManual, item.Installment); err != nil {
				return err
			}
		}
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
