package payroll

import (
	"context"
	"time"

	"gestor/internal/domain/contract"
)

// StoreAPI is the persistence collaborator boundary. Implementations load
// and save whole payroll aggregates; each mutating call runs in a single
// transaction scoped to one payroll.
type StoreAPI interface {
	HasOverlappingPeriod(ctx context.Context, companyID string, start, end time.Time) (bool, error)
	InsertPayroll(ctx context.Context, p *Payroll) error
	LoadPayroll(ctx context.Context, payrollID string) (*Payroll, error)
	SavePayroll(ctx context.Context, p *Payroll) error
	ClosePayroll(ctx context.Context, p *Payroll, snapshot []byte) error
	ReopenPayroll(ctx context.Context, payrollID string) error
	ListPayrolls(ctx context.Context, companyID string, limit, offset int) ([]Payroll, error)
	CountPayrolls(ctx context.Context, companyID string) (int, error)
	Snapshot(ctx context.Context, payrollID string) ([]byte, error)

	// ActiveContracts returns the company's payroll-eligible contracts
	// overlapping the period, fully materialized with benefit/discounts
	// and cost-center weights.
	ActiveContracts(ctx context.Context, companyID string, start, end time.Time) ([]contract.Contract, error)

	CreateAdvance(ctx context.Context, adv *Advance) error
	DeleteAdvanceBySource(ctx context.Context, sourcePayrollID, employeeID string) error
	PendingAdvances(ctx context.Context, companyID string, start, end time.Time, payrollID string) ([]Advance, error)
	MarkAdvanceConsumed(ctx context.Context, advanceID, payrollID string) error
}

// TransactionPoster records one settlement per employee when a payroll
// closes. The engine does not know how transactions are persisted.
//
// PostSettlement must be idempotent per (PayrollID, EmployeeID): posting
// the same employee's settlement again returns the id of the existing
// unreversed transaction instead of writing a duplicate. Close relies on
// this when it retries after a partial failure.
type TransactionPoster interface {
	PostSettlement(ctx context.Context, posting Posting) (string, error)
}
