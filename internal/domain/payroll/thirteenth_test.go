package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gestor/internal/domain/contract"
)

func salariedEmployee(amount int64) PayrollEmployee {
	return PayrollEmployee{
		ID:           "pe1",
		DaysInPeriod: 30,
		DaysWorked:   30,
		Items: []Item{{
			ID:          "salary",
			Type:        ItemTypeCredit,
			Category:    CategorySalary,
			Application: ApplicationSalary,
			Amount:      amount,
		}},
	}
}

func TestThirteenthItemsFullPercent(t *testing.T) {
	pe := salariedEmployee(500000)
	c := contract.Contract{ID: "c1", Value: 500000, Type: contract.TypeMonthly}

	items := ThirteenthItems(pe, c, january, pct("100"), false, Rates{})
	require.Len(t, items, 1)
	require.Equal(t, int64(500000), items[0].Amount)
	require.Equal(t, ItemTypeCredit, items[0].Type)
	require.Equal(t, CategoryThirteenth, items[0].Category)
}

func TestThirteenthItemsHalfPercent(t *testing.T) {
	pe := salariedEmployee(500000)
	c := contract.Contract{ID: "c1", Value: 500000, Type: contract.TypeMonthly}

	items := ThirteenthItems(pe, c, january, pct("50"), false, Rates{})
	require.Len(t, items, 1)
	require.Equal(t, int64(250000), items[0].Amount)
}

func TestThirteenthItemsWithTaxes(t *testing.T) {
	pe := salariedEmployee(500000)
	c := contract.Contract{ID: "c1", Value: 500000, Type: contract.TypeMonthly, HasINSS: true, HasIRRF: true}
	rates := Rates{INSS: pct("11"), IRRF: pct("7.5")}

	items := ThirteenthItems(pe, c, january, pct("100"), true, rates)
	require.Len(t, items, 3)

	byCategory := map[string]Item{}
	for _, item := range items {
		byCategory[item.Category] = item
	}
	require.Equal(t, int64(55000), byCategory[CategoryINSS].Amount)
	require.Equal(t, int64(37500), byCategory[CategoryIRRF].Amount)
	require.Equal(t, ItemTypeDebit, byCategory[CategoryINSS].Type)
	// Tax debits reference the main thirteenth item so removal cascades.
	require.Equal(t, byCategory[CategoryThirteenth].ID, byCategory[CategoryINSS].ReferenceID)
}

func TestThirteenthItemsContractFlagsGateTaxes(t *testing.T) {
	pe := salariedEmployee(500000)
	c := contract.Contract{ID: "c1", Value: 500000, Type: contract.TypeMonthly, HasINSS: true}
	rates := Rates{INSS: pct("11"), IRRF: pct("7.5")}

	items := ThirteenthItems(pe, c, january, pct("100"), true, rates)
	require.Len(t, items, 2)
	require.Equal(t, CategoryINSS, items[1].Category)
}

func TestThirteenthItemsScopedBenefits(t *testing.T) {
	pe := salariedEmployee(500000)
	c := contract.Contract{
		ID: "c1", Value: 500000, Type: contract.TypeMonthly,
		BenefitDiscounts: []contract.BenefitDiscount{
			{Description: "Year-end bonus", Kind: contract.KindBenefit, Application: ApplicationThirteenth, Amount: 20000},
			{Description: "Salary-only allowance", Kind: contract.KindBenefit, Application: ApplicationSalary, Amount: 9999},
		},
	}

	items := ThirteenthItems(pe, c, january, pct("100"), false, Rates{})
	require.Len(t, items, 2)
	require.Equal(t, "Year-end bonus", items[1].Description)
	require.Equal(t, int64(20000), items[1].Amount)
}
