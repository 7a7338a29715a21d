package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetCompany(ctx context.Context, id string) (Company, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(trade_name, ''), COALESCE(tax_id, ''),
		       COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''),
		       active, created_at, updated_at
		FROM companies
		WHERE id = $1`, id)

	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.TradeName, &c.TaxID, &c.Email, &c.Phone,
		&c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCompany(ctx context.Context, c Company) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO companies (name, trade_name, tax_id, email, phone, address, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.Name, nullIfEmpty(c.TradeName), nullIfEmpty(c.TaxID), nullIfEmpty(c.Email),
		nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.Active,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create company: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateCompany(ctx context.Context, id string, c Company) error {
	cmd, err := s.DB.Exec(ctx, `
		UPDATE companies
		SET name = $1, trade_name = $2, tax_id = $3, email = $4, phone = $5,
		    address = $6, active = $7, updated_at = now()
		WHERE id = $8`,
		c.Name, nullIfEmpty(c.TradeName), nullIfEmpty(c.TaxID), nullIfEmpty(c.Email),
		nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.Active, id,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, companyID, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(document, ''), COALESCE(role, ''),
		       date_of_birth, hire_date, status, created_at, updated_at
		FROM employees
		WHERE company_id = $1 AND id = $2`, companyID, id)

	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(document, ''), COALESCE(role, ''),
		       date_of_birth, hire_date, status, created_at, updated_at
		FROM employees
		WHERE company_id = $1
		ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, companyID string, e Employee) (string, error) {
	if e.Status == "" {
		e.Status = EmployeeStatusActive
	}
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, name, email, phone, document, role,
		                       date_of_birth, hire_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		companyID, e.Name, nullIfEmpty(e.Email), nullIfEmpty(e.Phone),
		nullIfEmpty(e.Document), nullIfEmpty(e.Role), e.DateOfBirth, e.HireDate, e.Status,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create employee: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, companyID, id string, e Employee) error {
	cmd, err := s.DB.Exec(ctx, `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, document = $4, role = $5,
		    date_of_birth = $6, hire_date = $7, status = $8, updated_at = now()
		WHERE company_id = $9 AND id = $10`,
		e.Name, nullIfEmpty(e.Email), nullIfEmpty(e.Phone), nullIfEmpty(e.Document),
		nullIfEmpty(e.Role), e.DateOfBirth, e.HireDate, e.Status, companyID, id,
	)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeactivateEmployee(ctx context.Context, companyID, id string) error {
	cmd, err := s.DB.Exec(ctx, `
		UPDATE employees SET status = $1, updated_at = now()
		WHERE company_id = $2 AND id = $3`,
		EmployeeStatusInactive, companyID, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, companyID, id string) (Account, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, company_id, name, type, active, created_at
		FROM accounts
		WHERE company_id = $1 AND id = $2`, companyID, id)

	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Name, &a.Type, &a.Active, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, companyID string) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, company_id, name, type, active, created_at
		FROM accounts
		WHERE company_id = $1
		ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Name, &a.Type, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, companyID string, a Account) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO accounts (company_id, name, type, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		companyID, a.Name, a.Type, a.Active,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (s *Store) GetCostCenter(ctx context.Context, companyID, id string) (CostCenter, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, company_id, name, COALESCE(code, ''), active, created_at
		FROM cost_centers
		WHERE company_id = $1 AND id = $2`, companyID, id)

	var cc CostCenter
	err := row.Scan(&cc.ID, &cc.CompanyID, &cc.Name, &cc.Code, &cc.Active, &cc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostCenter{}, ErrCostCenterNotFound
	}
	if err != nil {
		return CostCenter{}, fmt.Errorf("get cost center: %w", err)
	}
	return cc, nil
}

func (s *Store) ListCostCenters(ctx context.Context, companyID string, activeOnly bool) ([]CostCenter, error) {
	query := `
		SELECT id, company_id, name, COALESCE(code, ''), active, created_at
		FROM cost_centers
		WHERE company_id = $1`
	if activeOnly {
		query += ` AND active = true`
	}
	query += ` ORDER BY name`

	rows, err := s.DB.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list cost centers: %w", err)
	}
	defer rows.Close()

	var out []CostCenter
	for rows.Next() {
		var cc CostCenter
		if err := rows.Scan(&cc.ID, &cc.CompanyID, &cc.Name, &cc.Code, &cc.Active, &cc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cost center: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (s *Store) CreateCostCenter(ctx context.Context, companyID string, cc CostCenter) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO cost_centers (company_id, name, code, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		companyID, cc.Name, nullIfEmpty(cc.Code), cc.Active,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create cost center: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateCostCenter(ctx context.Context, companyID, id string, cc CostCenter) error {
	cmd, err := s.DB.Exec(ctx, `
		UPDATE cost_centers SET name = $1, code = $2, active = $3
		WHERE company_id = $4 AND id = $5`,
		cc.Name, nullIfEmpty(cc.Code), cc.Active, companyID, id,
	)
	if err != nil {
		return fmt.Errorf("update cost center: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCostCenterNotFound
	}
	return nil
}

// DeactivateCostCenter refuses when the cost center still appears in any
// contract distribution. Historical transaction rows keep referencing it.
func (s *Store) DeactivateCostCenter(ctx context.Context, companyID, id string) error {
	var inUse int
	err := s.DB.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM contract_cost_centers ccc
		JOIN contracts c ON c.id = ccc.contract_id
		WHERE c.company_id = $1 AND ccc.cost_center_id = $2`,
		companyID, id,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check cost center usage: %w", err)
	}
	if inUse > 0 {
		return ErrCostCenterInUse
	}

	cmd, err := s.DB.Exec(ctx, `
		UPDATE cost_centers SET active = false
		WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deactivate cost center: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCostCenterNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.Email, &e.Phone, &e.Document,
		&e.Role, &e.DateOfBirth, &e.HireDate, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
