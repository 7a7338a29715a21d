package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gestor/internal/domain/contract"
)

func TestVacationItemsFullEntitlement(t *testing.T) {
	pe := PayrollEmployee{ID: "pe1", IsOnVacation: true, VacationDays: 30}
	c := contract.Contract{ID: "c1", Value: 300000, Type: contract.TypeMonthly}

	items := VacationItems(pe, c, Rates{})
	require.Len(t, items, 2)
	require.Equal(t, int64(300000), items[0].Amount)
	require.Equal(t, CategoryVacation, items[0].Category)
	require.Equal(t, int64(100000), items[1].Amount)
	require.Equal(t, CategoryVacationBonus, items[1].Category)
	require.Equal(t, items[0].ID, items[1].ReferenceID)
}

func TestVacationItemsPartialDays(t *testing.T) {
	pe := PayrollEmployee{ID: "pe1", IsOnVacation: true, VacationDays: 10}
	c := contract.Contract{ID: "c1", Value: 300000, Type: contract.TypeMonthly}

	items := VacationItems(pe, c, Rates{})
	// 300000 * 10/30 = 100000 pay, one third of that as bonus.
	require.Equal(t, int64(100000), items[0].Amount)
	require.Equal(t, int64(33333), items[1].Amount)
}

func TestVacationItemsDailyContract(t *testing.T) {
	pe := PayrollEmployee{ID: "pe1", IsOnVacation: true, VacationDays: 30}
	c := contract.Contract{ID: "c1", Value: 10000, Type: contract.TypeDaily}

	items := VacationItems(pe, c, Rates{})
	require.Equal(t, int64(300000), items[0].Amount)
}

func TestVacationItemsWithTaxes(t *testing.T) {
	pe := PayrollEmployee{ID: "pe1", IsOnVacation: true, VacationDays: 30, VacationTaxes: true}
	c := contract.Contract{ID: "c1", Value: 300000, Type: contract.TypeMonthly, HasINSS: true}

	items := VacationItems(pe, c, Rates{INSS: pct("11")})
	require.Len(t, items, 3)
	// 11% of pay plus bonus (400000).
	require.Equal(t, int64(44000), items[2].Amount)
	require.Equal(t, ItemTypeDebit, items[2].Type)
}

func TestVacationAdvanceAmount(t *testing.T) {
	pe := PayrollEmployee{ID: "pe1", VacationDays: 30}
	c := contract.Contract{ID: "c1", Value: 300000, Type: contract.TypeMonthly}

	require.Equal(t, int64(400000), VacationAdvanceAmount(pe, c))
}
