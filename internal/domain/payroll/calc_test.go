package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []Item{
		{Type: ItemTypeCredit, Amount: 500000},
		{Type: ItemTypeCredit, Amount: 10000},
		{Type: ItemTypeDebit, Amount: 55000},
	}

	gross, deductions, net := ComputeTotals(items)
	require.Equal(t, int64(510000), gross)
	require.Equal(t, int64(55000), deductions)
	require.Equal(t, int64(455000), net)
}

func TestReaggregate(t *testing.T) {
	p := &Payroll{Employees: []PayrollEmployee{
		{Items: []Item{
			{Type: ItemTypeCredit, Category: CategorySalary, Amount: 300000},
			{Type: ItemTypeDebit, Category: CategoryINSS, Amount: 33000},
		}},
		{Items: []Item{
			{Type: ItemTypeCredit, Category: CategorySalary, Amount: 200000},
		}},
	}}

	Reaggregate(p)
	require.Equal(t, int64(500000), p.TotalGrossPay)
	require.Equal(t, int64(33000), p.TotalDeductions)
	require.Equal(t, int64(467000), p.TotalNetPay)
	require.Equal(t, int64(33000), p.TotalINSS)
	require.Equal(t, int64(267000), p.Employees[0].TotalNetPay)
	require.Equal(t, int64(200000), p.Employees[1].TotalNetPay)
}

func TestVerifyAggregatesDetectsDrift(t *testing.T) {
	p := &Payroll{Employees: []PayrollEmployee{
		{Items: []Item{{Type: ItemTypeCredit, Amount: 1000}}},
	}}
	Reaggregate(p)
	require.NoError(t, VerifyAggregates(p))

	p.TotalNetPay++
	require.ErrorIs(t, VerifyAggregates(p), ErrAggregateMismatch)

	Reaggregate(p)
	p.Employees[0].TotalGrossPay = 999
	require.ErrorIs(t, VerifyAggregates(p), ErrAggregateMismatch)
}
