package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gestor/internal/domain/payroll"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// PostSettlement records one employee net-pay settlement as a debit
// transaction with its cost-center distribution rows. Satisfies
// payroll.TransactionPoster: an unreversed settlement already posted for
// the same payroll and employee is returned as-is, so a close retry after
// a partial failure never double-posts.
func (s *Store) PostSettlement(ctx context.Context, p payroll.Posting) (string, error) {
	if len(p.Distributions) > 0 {
		var total int64
		for _, d := range p.Distributions {
			total += d.Amount
		}
		if total != p.Amount {
			return "", ErrDistributionSum
		}
	}

	var existing string
	err := s.DB.QueryRow(ctx, `
		SELECT t.id
		FROM financial_transactions t
		WHERE t.company_id = $1 AND t.origin_payroll_id = $2
		  AND t.employee_id = $3 AND t.type = $4
		  AND NOT EXISTS (
		    SELECT 1 FROM financial_transactions r WHERE r.reversal_of_id = t.id
		  )
		ORDER BY t.created_at DESC
		LIMIT 1`,
		p.CompanyID, p.PayrollID, p.EmployeeID, TypeDebit,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("check existing settlement: %w", err)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO financial_transactions
			(id, company_id, account_id, description, type, amount, transaction_date,
			 origin_payroll_id, employee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, p.CompanyID, nullIfEmpty(p.AccountID), p.Description, TypeDebit,
		p.Amount, p.PaymentDate, p.PayrollID, nullIfEmpty(p.EmployeeID),
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	for _, d := range p.Distributions {
		_, err = tx.Exec(ctx, `
			INSERT INTO transaction_cost_centers (transaction_id, cost_center_id, percent, amount)
			VALUES ($1, $2, $3, $4)`,
			id, d.Key, d.Percent, d.Amount,
		)
		if err != nil {
			return "", fmt.Errorf("insert distribution: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// ReversePayrollPostings writes an offsetting credit for every settlement
// originally posted by the given payroll. Reopening a payroll does not call
// this; it is an explicit finance operation.
func (s *Store) ReversePayrollPostings(ctx context.Context, companyID, payrollID string) ([]string, error) {
	originals, err := s.ListByPayroll(ctx, companyID, payrollID)
	if err != nil {
		return nil, err
	}

	var candidates []Transaction
	for _, t := range originals {
		if t.ReversalOfID == "" {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNothingToReverse
	}

	reversed := make(map[string]bool)
	for _, t := range originals {
		if t.ReversalOfID != "" {
			reversed[t.ReversalOfID] = true
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	var ids []string
	for _, t := range candidates {
		if reversed[t.ID] {
			continue
		}
		id := uuid.NewString()
		_, err = tx.Exec(ctx, `
			INSERT INTO financial_transactions
				(id, company_id, account_id, description, type, amount, transaction_date,
				 origin_payroll_id, employee_id, reversal_of_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, t.CompanyID, nullIfEmpty(t.AccountID), "Reversal: "+t.Description,
			TypeCredit, t.Amount, now, t.OriginPayrollID, nullIfEmpty(t.EmployeeID), t.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert reversal: %w", err)
		}
		for _, d := range t.Distributions {
			_, err = tx.Exec(ctx, `
				INSERT INTO transaction_cost_centers (transaction_id, cost_center_id, percent, amount)
				VALUES ($1, $2, $3, $4)`,
				id, d.CostCenterID, d.Percent, d.Amount,
			)
			if err != nil {
				return nil, fmt.Errorf("insert reversal distribution: %w", err)
			}
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrAlreadyReversed
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reversals: %w", err)
	}
	return ids, nil
}

func (s *Store) Get(ctx context.Context, companyID, id string) (Transaction, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, company_id, COALESCE(account_id, ''), description, type, amount,
		       transaction_date, COALESCE(origin_payroll_id, ''), COALESCE(employee_id, ''),
		       COALESCE(reversal_of_id, ''), created_at
		FROM financial_transactions
		WHERE id = $1 AND company_id = $2`,
		id, companyID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.attachDistributions(ctx, []*Transaction{&t}); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Store) ListByPayroll(ctx context.Context, companyID, payrollID string) ([]Transaction, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, company_id, COALESCE(account_id, ''), description, type, amount,
		       transaction_date, COALESCE(origin_payroll_id, ''), COALESCE(employee_id, ''),
		       COALESCE(reversal_of_id, ''), created_at
		FROM financial_transactions
		WHERE company_id = $1 AND origin_payroll_id = $2
		ORDER BY created_at, id`,
		companyID, payrollID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	var ptrs []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	for i := range out {
		ptrs = append(ptrs, &out[i])
	}
	if err := s.attachDistributions(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachDistributions(ctx context.Context, ts []*Transaction) error {
	if len(ts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(ts))
	byID := make(map[string]*Transaction, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	rows, err := s.DB.Query(ctx, `
		SELECT transaction_id, cost_center_id, percent::text, amount
		FROM transaction_cost_centers
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, cost_center_id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load distributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d Distribution
		var pct string
		if err := rows.Scan(&d.TransactionID, &d.CostCenterID, &pct, &d.Amount); err != nil {
			return fmt.Errorf("scan distribution: %w", err)
		}
		d.Percent, err = decimal.NewFromString(pct)
		if err != nil {
			return fmt.Errorf("parse distribution percent: %w", err)
		}
		if t, ok := byID[d.TransactionID]; ok {
			t.Distributions = append(t.Distributions, d)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.AccountID, &t.Description, &t.Type, &t.Amount,
		&t.Date, &t.OriginPayrollID, &t.EmployeeID, &t.ReversalOfID, &t.CreatedAt,
	)
	return t, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
