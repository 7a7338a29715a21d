package payroll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gestor/internal/domain/contract"
)

var three = decimal.NewFromInt(3)

// monthlyValue normalizes a contract's base value to a monthly figure:
// daily contracts assume the full entitlement month, hourly ones the
// statutory 220-hour month.
func monthlyValue(c contract.Contract) int64 {
	switch c.Type {
	case contract.TypeDaily:
		return c.Value * VacationEntitlementDays
	case contract.TypeHourly:
		return c.Value * 220
	default:
		return c.Value
	}
}

// VacationItems builds the vacation line items for an employee whose
// vacation fields are already set: proportional vacation pay seeded by
// vacationDays over the annual entitlement, the one-third constitutional
// bonus, the contract's vacation-scoped benefit/discounts, and optional
// withholding debits.
func VacationItems(pe PayrollEmployee, c contract.Contract, rates Rates) []Item {
	base := monthlyValue(c)
	pay := decimal.NewFromInt(base).
		Mul(decimal.NewFromInt(int64(pe.VacationDays))).
		DivRound(decimal.NewFromInt(VacationEntitlementDays), 0).
		IntPart()
	bonus := decimal.NewFromInt(pay).DivRound(three, 0).IntPart()

	main := Item{
		ID:                uuid.NewString(),
		PayrollEmployeeID: pe.ID,
		Description:       "Vacation pay",
		Type:              ItemTypeCredit,
		Category:          CategoryVacation,
		Application:       ApplicationVacation,
		Amount:            pay,
		CalculationBasis:  fmt.Sprintf("%d/%d", pe.VacationDays, VacationEntitlementDays),
		CalculationDetails: details(map[string]any{
			"base":         base,
			"vacationDays": pe.VacationDays,
			"entitlement":  VacationEntitlementDays,
		}),
	}
	items := []Item{main, {
		ID:                uuid.NewString(),
		PayrollEmployeeID: pe.ID,
		Description:       "Vacation one-third bonus",
		Type:              ItemTypeCredit,
		Category:          CategoryVacationBonus,
		Application:       ApplicationVacation,
		Amount:            bonus,
		ReferenceID:       main.ID,
		CalculationBasis:  fmt.Sprintf("%d/3", pay),
	}}

	taxable := pay + bonus
	start := time.Time{}
	if pe.VacationStart != nil {
		start = *pe.VacationStart
	}
	for _, bd := range c.BenefitDiscounts {
		value := Prorate(bd, ApplicationVacation, start, VacationEntitlementDays, pe.VacationDays)
		if value == 0 {
			continue
		}
		item := Item{
			ID:                uuid.NewString(),
			PayrollEmployeeID: pe.ID,
			Description:       bd.Description,
			Type:              ItemTypeCredit,
			Category:          CategoryVacation,
			Application:       ApplicationVacation,
			Amount:            value,
			ReferenceID:       main.ID,
		}
		if bd.Kind == contract.KindDiscount {
			item.Type = ItemTypeDebit
		}
		items = append(items, item)
		if bd.HasTaxes {
			if item.Type == ItemTypeCredit {
				taxable += value
			} else {
				taxable -= value
			}
		}
	}

	if pe.VacationTaxes {
		items = append(items, taxItems(pe.ID, main.ID, CategoryVacation, taxable, c, rates)...)
	}
	return items
}

// VacationAdvanceAmount is the gross value moved into the next period when
// the advance option is chosen: vacation pay plus the one-third bonus.
func VacationAdvanceAmount(pe PayrollEmployee, c contract.Contract) int64 {
	base := monthlyValue(c)
	pay := decimal.NewFromInt(base).
		Mul(decimal.NewFromInt(int64(pe.VacationDays))).
		DivRound(decimal.NewFromInt(VacationEntitlementDays), 0).
		IntPart()
	return pay + decimal.NewFromInt(pay).DivRound(three, 0).IntPart()
}
