package contract

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, c *Contract) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contracts (company_id, employee_id, value, contract_type,
                           is_payroll, has_inss, has_irrf, has_fgts, start_date, end_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, c.CompanyID, c.EmployeeID, c.Value, c.Type,
		c.IsPayroll, c.HasINSS, c.HasIRRF, c.HasFGTS, c.StartDate, c.EndDate).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, companyID, contractID string) (Contract, error) {
	var c Contract
	err := s.DB.QueryRow(ctx, `
    SELECT id, company_id, employee_id, value, contract_type,
           is_payroll, has_inss, has_irrf, has_fgts, start_date, end_date, created_at
    FROM contracts
    WHERE company_id = $1 AND id = $2
  `, companyID, contractID).Scan(&c.ID, &c.CompanyID, &c.EmployeeID, &c.Value, &c.Type,
		&c.IsPayroll, &c.HasINSS, &c.HasIRRF, &c.HasFGTS, &c.StartDate, &c.EndDate, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	if err != nil {
		return Contract{}, err
	}
	if err := s.attachChildren(ctx, []*Contract{&c}); err != nil {
		return Contract{}, err
	}
	return c, nil
}

func (s *Store) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, employee_id, value, contract_type,
           is_payroll, has_inss, has_irrf, has_fgts, start_date, end_date, created_at
    FROM contracts
    WHERE company_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContracts(ctx, s, rows)
}

// ListActiveForPeriod materializes every payroll-eligible contract whose
// active range overlaps [start, end], children included, so calculation
// code receives the full graph up front.
func (s *Store) ListActiveForPeriod(ctx context.Context, companyID string, start, end time.Time) ([]Contract, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.company_id, c.employee_id, c.value, c.contract_type,
           c.is_payroll, c.has_inss, c.has_irrf, c.has_fgts, c.start_date, c.end_date, c.created_at
    FROM contracts c
    JOIN employees e ON c.employee_id = e.id
    WHERE c.company_id = $1
      AND c.is_payroll = true
      AND e.status = 'active'
      AND c.start_date <= $2
      AND (c.end_date IS NULL OR c.end_date >= $3)
    ORDER BY c.created_at, c.id
  `, companyID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContracts(ctx, s, rows)
}

func scanContracts(ctx context.Context, s *Store, rows pgx.Rows) ([]Contract, error) {
	var contracts []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.EmployeeID, &c.Value, &c.Type,
			&c.IsPayroll, &c.HasINSS, &c.HasIRRF, &c.HasFGTS, &c.StartDate, &c.EndDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*Contract, len(contracts))
	for i := range contracts {
		refs[i] = &contracts[i]
	}
	if err := s.attachChildren(ctx, refs); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (s *Store) attachChildren(ctx context.Context, contracts []*Contract) error {
	if len(contracts) == 0 {
		return nil
	}
	ids := make([]string, len(contracts))
	index := make(map[string]*Contract, len(contracts))
	for i, c := range contracts {
		ids[i] = c.ID
		index[c.ID] = c
	}

	bdRows, err := s.DB.Query(ctx, `
    SELECT id, contract_id, COALESCE(description, ''), kind, application, amount,
           COALESCE(month, 0), is_proportional, has_taxes
    FROM contract_benefit_discounts
    WHERE contract_id = ANY($1)
    ORDER BY created_at, id
  `, ids)
	if err != nil {
		return err
	}
	defer bdRows.Close()
	for bdRows.Next() {
		var bd BenefitDiscount
		if err := bdRows.Scan(&bd.ID, &bd.ContractID, &bd.Description, &bd.Kind, &bd.Application,
			&bd.Amount, &bd.Month, &bd.IsProportional, &bd.HasTaxes); err != nil {
			return err
		}
		if c, ok := index[bd.ContractID]; ok {
			c.BenefitDiscounts = append(c.BenefitDiscounts, bd)
		}
	}
	if err := bdRows.Err(); err != nil {
		return err
	}

	ccRows, err := s.DB.Query(ctx, `
    SELECT contract_id, cost_center_id, percent::text
    FROM contract_cost_centers
    WHERE contract_id = ANY($1)
    ORDER BY position
  `, ids)
	if err != nil {
		return err
	}
	defer ccRows.Close()
	for ccRows.Next() {
		var share CostCenterShare
		var percent string
		if err := ccRows.Scan(&share.ContractID, &share.CostCenterID, &percent); err != nil {
			return err
		}
		if share.Percent, err = decimal.NewFromString(percent); err != nil {
			return err
		}
		if c, ok := index[share.ContractID]; ok {
			c.CostCenters = append(c.CostCenters, share)
		}
	}
	return ccRows.Err()
}

func (s *Store) AddBenefitDiscount(ctx context.Context, bd *BenefitDiscount) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contract_benefit_discounts (contract_id, description, kind, application,
                                            amount, month, is_proportional, has_taxes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, bd.ContractID, bd.Description, bd.Kind, bd.Application,
		bd.Amount, nullIfZero(bd.Month), bd.IsProportional, bd.HasTaxes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RemoveBenefitDiscount(ctx context.Context, contractID, benefitDiscountID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM contract_benefit_discounts WHERE contract_id = $1 AND id = $2
  `, contractID, benefitDiscountID)
	return err
}

// SetCostCenters replaces a contract's distribution atomically, enforcing
// the 100.00 sum and rejecting inactive cost centers.
func (s *Store) SetCostCenters(ctx context.Context, contractID string, shares []CostCenterShare) error {
	sum := decimal.Zero
	for _, share := range shares {
		if share.Percent.IsNegative() {
			return ErrInvalidDistribution
		}
		sum = sum.Add(share.Percent)
	}
	if len(shares) > 0 && sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		return ErrInvalidDistribution
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, share := range shares {
		var active bool
		if err := tx.QueryRow(ctx, "SELECT active FROM cost_centers WHERE id = $1", share.CostCenterID).Scan(&active); err != nil {
			return err
		}
		if !active {
			return ErrInactiveCostCenter
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM contract_cost_centers WHERE contract_id = $1", contractID); err != nil {
		return err
	}
	for i, share := range shares {
		if _, err := tx.Exec(ctx, `
      INSERT INTO contract_cost_centers (contract_id, cost_center_id, percent, position)
      VALUES ($1,$2,$3,$4)
    `, contractID, share.CostCenterID, share.Percent.StringFixed(2), i); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func nullIfZero(value int) any {
	if value == 0 {
		return nil
	}
	return value
}
