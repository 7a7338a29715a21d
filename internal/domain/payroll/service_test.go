package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gestor/internal/domain/contract"
)

// fakeStore keeps whole aggregates in memory and clones on load so a
// failed mutation cannot leak partial state back into "persistence".
type fakeStore struct {
	payrolls  map[string]*Payroll
	snapshots map[string][]byte
	contracts []contract.Contract
	advances  map[string]*Advance
}

func newFakeStore(contracts ...contract.Contract) *fakeStore {
	return &fakeStore{
		payrolls:  map[string]*Payroll{},
		snapshots: map[string][]byte{},
		contracts: contracts,
		advances:  map[string]*Advance{},
	}
}

func clonePayroll(p *Payroll) *Payroll {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var out Payroll
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func (f *fakeStore) HasOverlappingPeriod(_ context.Context, companyID string, start, end time.Time) (bool, error) {
	for _, p := range f.payrolls {
		if p.CompanyID == companyID && !start.After(p.PeriodEnd) && !end.Before(p.PeriodStart) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertPayroll(_ context.Context, p *Payroll) error {
	f.payrolls[p.ID] = clonePayroll(p)
	return nil
}

func (f *fakeStore) LoadPayroll(_ context.Context, payrollID string) (*Payroll, error) {
	p, ok := f.payrolls[payrollID]
	if !ok {
		return nil, ErrPayrollNotFound
	}
	return clonePayroll(p), nil
}

func (f *fakeStore) SavePayroll(_ context.Context, p *Payroll) error {
	stored, ok := f.payrolls[p.ID]
	if !ok {
		return ErrPayrollNotFound
	}
	if stored.IsClosed {
		return ErrPayrollClosed
	}
	f.payrolls[p.ID] = clonePayroll(p)
	return nil
}

func (f *fakeStore) ClosePayroll(_ context.Context, p *Payroll, snapshot []byte) error {
	stored, ok := f.payrolls[p.ID]
	if !ok {
		return ErrPayrollNotFound
	}
	if stored.IsClosed {
		return ErrPayrollClosed
	}
	f.payrolls[p.ID] = clonePayroll(p)
	f.snapshots[p.ID] = snapshot
	return nil
}

func (f *fakeStore) ReopenPayroll(_ context.Context, payrollID string) error {
	stored, ok := f.payrolls[payrollID]
	if !ok {
		return ErrPayrollNotFound
	}
	if !stored.IsClosed {
		return ErrPayrollNotClosed
	}
	stored.IsClosed = false
	stored.ClosedAt = nil
	stored.ClosedBy = ""
	return nil
}

func (f *fakeStore) ListPayrolls(_ context.Context, companyID string, _, _ int) ([]Payroll, error) {
	var out []Payroll
	for _, p := range f.payrolls {
		if p.CompanyID == companyID {
			out = append(out, *clonePayroll(p))
		}
	}
	return out, nil
}

func (f *fakeStore) CountPayrolls(_ context.Context, companyID string) (int, error) {
	n := 0
	for _, p := range f.payrolls {
		if p.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Snapshot(_ context.Context, payrollID string) ([]byte, error) {
	return f.snapshots[payrollID], nil
}

func (f *fakeStore) ActiveContracts(_ context.Context, companyID string, start, end time.Time) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range f.contracts {
		if c.CompanyID != companyID || !c.IsPayroll {
			continue
		}
		if c.StartDate.After(end) {
			continue
		}
		if c.EndDate != nil && c.EndDate.Before(start) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateAdvance(_ context.Context, adv *Advance) error {
	cp := *adv
	f.advances[adv.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteAdvanceBySource(_ context.Context, sourcePayrollID, employeeID string) error {
	for id, adv := range f.advances {
		if adv.SourcePayrollID == sourcePayrollID && adv.EmployeeID == employeeID && adv.ConsumedPayrollID == "" {
			delete(f.advances, id)
		}
	}
	return nil
}

func (f *fakeStore) PendingAdvances(_ context.Context, companyID string, start, end time.Time, payrollID string) ([]Advance, error) {
	var out []Advance
	for _, adv := range f.advances {
		if adv.CompanyID != companyID || adv.DueDate.Before(start) || adv.DueDate.After(end) {
			continue
		}
		if adv.ConsumedPayrollID != "" && adv.ConsumedPayrollID != payrollID {
			continue
		}
		out = append(out, *adv)
	}
	return out, nil
}

func (f *fakeStore) MarkAdvanceConsumed(_ context.Context, advanceID, payrollID string) error {
	if adv, ok := f.advances[advanceID]; ok {
		adv.ConsumedPayrollID = payrollID
		now := time.Now().UTC()
		adv.ConsumedAt = &now
	}
	return nil
}

type posterSpy struct {
	postings []Posting
}

func (ps *posterSpy) PostSettlement(_ context.Context, p Posting) (string, error) {
	ps.postings = append(ps.postings, p)
	return uuid.NewString(), nil
}

// settlementLedger honors the TransactionPoster idempotency contract: one
// settlement per (payroll, employee), with an injectable failure.
type settlementLedger struct {
	settled map[string]string
	calls   int
	failOn  int
}

func newSettlementLedger() *settlementLedger {
	return &settlementLedger{settled: map[string]string{}}
}

func (sl *settlementLedger) PostSettlement(_ context.Context, p Posting) (string, error) {
	sl.calls++
	key := p.PayrollID + "/" + p.EmployeeID
	if id, ok := sl.settled[key]; ok {
		return id, nil
	}
	if sl.failOn != 0 && sl.calls == sl.failOn {
		return "", errors.New("ledger unavailable")
	}
	id := uuid.NewString()
	sl.settled[key] = id
	return id, nil
}

func monthlyContract(companyID, employeeID string, value int64) contract.Contract {
	return contract.Contract{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Value:      value,
		Type:       contract.TypeMonthly,
		IsPayroll:  true,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var (
	periodStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
)

func TestCreateSeedsEmployeesFromContracts(t *testing.T) {
	store := newFakeStore(
		monthlyContract("co1", "e1", 500000),
		monthlyContract("co1", "e2", 300000),
		monthlyContract("co2", "e3", 100000),
	)
	svc := NewService(store, &posterSpy{}, Rates{})

	p, err := svc.Create(context.Background(), "co1", periodStart, periodEnd)
	require.NoError(t, err)
	require.Len(t, p.Employees, 2)
	require.Equal(t, 30, p.Employees[0].DaysInPeriod)
	require.Equal(t, int64(800000), p.TotalGrossPay)
	require.Equal(t, int64(800000), p.TotalNetPay)
	require.NoError(t, VerifyAggregates(p))
}

func TestCreateRejectsBadPeriods(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})

	_, err := svc.Create(context.Background(), "co1", periodEnd, periodStart)
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Create(context.Background(), "co1", periodStart, periodEnd)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "co1", periodStart.AddDate(0, 0, 15), periodEnd.AddDate(0, 0, 15))
	require.ErrorIs(t, err, ErrOverlappingPeriod)
}

func TestSetEmployeeDaysProratesBenefits(t *testing.T) {
	c := monthlyContract("co1", "e1", 500000)
	c.BenefitDiscounts = []contract.BenefitDiscount{{
		ID: uuid.NewString(), ContractID: c.ID,
		Description: "Meal allowance", Kind: contract.KindBenefit,
		Application: ApplicationSalary, Amount: 10000, IsProportional: true,
	}}
	store := newFakeStore(c)
	svc := NewService(store, &posterSpy{}, Rates{})

	p, err := svc.Create(context.Background(), "co1", periodStart, periodEnd)
	require.NoError(t, err)
	require.Equal(t, int64(510000), p.TotalGrossPay)

	p, err = svc.SetEmployeeDays(context.Background(), p.ID, p.Employees[0].ID, 20, 0)
	require.NoError(t, err)
	// Monthly salary stays whole; the proportional benefit becomes 6667.
	require.Equal(t, int64(506667), p.TotalGrossPay)
	require.NoError(t, VerifyAggregates(p))
}

func TestManualItemLifecycle(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	peID := p.Employees[0].ID

	p, err = svc.AddItem(ctx, p.ID, peID, "Spot bonus", ItemTypeCredit, "", 25000)
	require.NoError(t, err)
	require.Equal(t, int64(525000), p.TotalGrossPay)

	var manualID string
	for _, item := range p.Employees[0].Items {
		if item.IsManual {
			manualID = item.ID
		}
	}
	require.NotEmpty(t, manualID)

	p, err = svc.UpdateItem(ctx, p.ID, manualID, "Spot bonus", 30000)
	require.NoError(t, err)
	require.Equal(t, int64(530000), p.TotalGrossPay)

	_, err = svc.AddItem(ctx, p.ID, peID, "Bad", ItemTypeCredit, "", -1)
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = svc.AddItem(ctx, p.ID, peID, "Bad", "transfer", "", 100)
	require.ErrorIs(t, err, ErrInvalidItemType)

	p, err = svc.RemoveItem(ctx, p.ID, manualID)
	require.NoError(t, err)
	require.Equal(t, int64(500000), p.TotalGrossPay)

	_, err = svc.RemoveItem(ctx, p.ID, manualID)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestManualItemsSurviveRecalculate(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	p, err = svc.AddItem(ctx, p.ID, p.Employees[0].ID, "Spot bonus", ItemTypeCredit, "", 25000)
	require.NoError(t, err)

	p, err = svc.Recalculate(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(525000), p.TotalGrossPay)

	manual := 0
	for _, item := range p.Employees[0].Items {
		if item.IsManual {
			manual++
		}
	}
	require.Equal(t, 1, manual)
}

func TestThirteenthApplyAndRemove(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	before := append([]Item(nil), p.Employees[0].Items...)

	p, err = svc.ApplyThirteenth(ctx, p.ID, pct("100"), false)
	require.NoError(t, err)
	require.Equal(t, int64(1000000), p.TotalGrossPay)

	_, err = svc.ApplyThirteenth(ctx, p.ID, pct("100"), false)
	require.ErrorIs(t, err, ErrThirteenthAlreadyApplied)

	p, err = svc.RemoveThirteenth(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500000), p.TotalGrossPay)
	require.False(t, p.ThirteenthPercent.IsPositive())
	// Remove restores the exact pre-apply item set.
	require.Equal(t, before, p.Employees[0].Items)

	_, err = svc.RemoveThirteenth(ctx, p.ID)
	require.ErrorIs(t, err, ErrThirteenthNotApplied)
}

func TestThirteenthSurvivesRecalculate(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	p, err = svc.ApplyThirteenth(ctx, p.ID, pct("100"), false)
	require.NoError(t, err)

	p, err = svc.Recalculate(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000000), p.TotalGrossPay)
}

func TestVacationApplyAndRemove(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 300000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	peID := p.Employees[0].ID

	_, err = svc.ApplyVacation(ctx, p.ID, peID, VacationParams{Days: 0})
	require.ErrorIs(t, err, ErrInvalidVacationDays)
	_, err = svc.ApplyVacation(ctx, p.ID, peID, VacationParams{Days: 31})
	require.ErrorIs(t, err, ErrInvalidVacationDays)

	p, err = svc.ApplyVacation(ctx, p.ID, peID, VacationParams{Days: 30, StartDate: periodStart})
	require.NoError(t, err)
	// Salary 300000 plus vacation pay 300000 plus one-third 100000.
	require.Equal(t, int64(700000), p.TotalGrossPay)
	require.True(t, p.Employees[0].IsOnVacation)

	_, err = svc.ApplyVacation(ctx, p.ID, peID, VacationParams{Days: 30})
	require.ErrorIs(t, err, ErrVacationAlreadyApplied)

	p, err = svc.RemoveVacation(ctx, p.ID, peID)
	require.NoError(t, err)
	require.Equal(t, int64(300000), p.TotalGrossPay)
	require.False(t, p.Employees[0].IsOnVacation)

	_, err = svc.RemoveVacation(ctx, p.ID, peID)
	require.ErrorIs(t, err, ErrVacationNotApplied)
}

func TestVacationAdvanceSchedulesNextPeriodDeduction(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 300000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	p, err = svc.ApplyVacation(ctx, p.ID, p.Employees[0].ID, VacationParams{
		Days: 30, StartDate: periodStart, AdvanceNextMonth: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(400000), p.Employees[0].AdvanceAmount)
	require.Len(t, store.advances, 1)

	// The following period consumes the advance as a deduction.
	next, err := svc.Create(ctx, "co1", periodEnd.AddDate(0, 0, 1), periodEnd.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Equal(t, int64(400000), next.TotalDeductions)
	for _, adv := range store.advances {
		require.Equal(t, next.ID, adv.ConsumedPayrollID)
	}
}

func TestRemoveVacationWithdrawsPendingAdvance(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 300000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)
	peID := p.Employees[0].ID

	_, err = svc.ApplyVacation(ctx, p.ID, peID, VacationParams{Days: 30, StartDate: periodStart, AdvanceNextMonth: true})
	require.NoError(t, err)
	require.Len(t, store.advances, 1)

	_, err = svc.RemoveVacation(ctx, p.ID, peID)
	require.NoError(t, err)
	require.Empty(t, store.advances)
}

func TestCloseFreezesAndPostsSettlements(t *testing.T) {
	c := monthlyContract("co1", "e1", 500000)
	c.CostCenters = []contract.CostCenterShare{
		{ContractID: c.ID, CostCenterID: "cc-ops", Percent: pct("60")},
		{ContractID: c.ID, CostCenterID: "cc-admin", Percent: pct("40")},
	}
	store := newFakeStore(c)
	poster := &posterSpy{}
	svc := NewService(store, poster, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	payday := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	p, err = svc.Close(ctx, p.ID, "acct1", payday, 55000, 40000, "user1")
	require.NoError(t, err)
	require.True(t, p.IsClosed)
	require.Equal(t, "user1", p.ClosedBy)
	require.Equal(t, int64(55000), p.PaidINSS)

	require.Len(t, poster.postings, 1)
	posting := poster.postings[0]
	require.Equal(t, int64(500000), posting.Amount)
	require.Equal(t, "acct1", posting.AccountID)
	require.Len(t, posting.Distributions, 2)
	require.Equal(t, int64(300000), posting.Distributions[0].Amount)
	require.Equal(t, int64(200000), posting.Distributions[1].Amount)

	require.NotEmpty(t, store.snapshots[p.ID])

	_, err = svc.AddItem(ctx, p.ID, p.Employees[0].ID, "Late", ItemTypeCredit, "", 100)
	require.ErrorIs(t, err, ErrPayrollClosed)
	_, err = svc.Close(ctx, p.ID, "acct1", payday, 0, 0, "user1")
	require.ErrorIs(t, err, ErrPayrollClosed)
}

func TestCloseStaysOpenWhenSettlementFails(t *testing.T) {
	store := newFakeStore(
		monthlyContract("co1", "e1", 500000),
		monthlyContract("co1", "e2", 300000),
	)
	ledger := newSettlementLedger()
	ledger.failOn = 2
	svc := NewService(store, ledger, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	payday := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	_, err = svc.Close(ctx, p.ID, "acct1", payday, 0, 0, "user1")
	require.Error(t, err)

	// The failed close must not commit: the payroll stays open and mutable.
	p, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, p.IsClosed)
	require.Empty(t, store.snapshots[p.ID])
	require.Len(t, ledger.settled, 1)

	_, err = svc.AddItem(ctx, p.ID, p.Employees[0].ID, "Adjust", ItemTypeCredit, "", 100)
	require.NoError(t, err)

	// Retrying completes the close without duplicating the first
	// employee's settlement.
	ledger.failOn = 0
	p, err = svc.Close(ctx, p.ID, "acct1", payday, 0, 0, "user1")
	require.NoError(t, err)
	require.True(t, p.IsClosed)
	require.Len(t, ledger.settled, 2)
}

func TestCloseRejectsEmptyPayroll(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	_, err = svc.Close(ctx, p.ID, "acct1", periodEnd, 0, 0, "user1")
	require.ErrorIs(t, err, ErrEmptyPayroll)
}

func TestReopenRestoresMutability(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	poster := &posterSpy{}
	svc := NewService(store, poster, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	_, err = svc.Reopen(ctx, p.ID)
	require.ErrorIs(t, err, ErrPayrollNotClosed)

	_, err = svc.Close(ctx, p.ID, "acct1", periodEnd, 0, 0, "user1")
	require.NoError(t, err)

	p, err = svc.Reopen(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, p.IsClosed)
	require.Empty(t, p.ClosedBy)

	// Reopening never reverses postings on its own.
	require.Len(t, poster.postings, 1)

	p, err = svc.AddItem(ctx, p.ID, p.Employees[0].ID, "Correction", ItemTypeCredit, "", 100)
	require.NoError(t, err)
	require.Equal(t, int64(500100), p.TotalGrossPay)
}

func TestWithholdingFromContractFlags(t *testing.T) {
	c := monthlyContract("co1", "e1", 500000)
	c.HasINSS = true
	c.HasFGTS = true
	store := newFakeStore(c)
	svc := NewService(store, &posterSpy{}, Rates{INSS: pct("11"), IRRF: pct("7.5"), FGTS: pct("8")})

	p, err := svc.Create(context.Background(), "co1", periodStart, periodEnd)
	require.NoError(t, err)
	require.Equal(t, int64(500000), p.TotalGrossPay)
	require.Equal(t, int64(55000), p.TotalDeductions)
	require.Equal(t, int64(445000), p.TotalNetPay)
	require.Equal(t, int64(55000), p.TotalINSS)
	// FGTS is employer-funded: informational, never a deduction.
	require.Equal(t, int64(40000), p.TotalFGTS)
}

func TestGetDetectsTamperedAggregates(t *testing.T) {
	store := newFakeStore(monthlyContract("co1", "e1", 500000))
	svc := NewService(store, &posterSpy{}, Rates{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "co1", periodStart, periodEnd)
	require.NoError(t, err)

	store.payrolls[p.ID].TotalNetPay += 1
	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrAggregateMismatch)
}
