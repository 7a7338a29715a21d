package payroll

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gestor/internal/domain/contract"
)

// ThirteenthItems builds the thirteenth-salary line items for one
// employee: a credit of percent applied to the regular-salary base, the
// contract's thirteenth-scoped benefit/discounts, and, when withTaxes is
// set, withholding debits gated by the contract's tax flags.
//
// Generation is deterministic apart from item ids, so removing and
// reapplying with identical inputs reproduces the same item set.
func ThirteenthItems(pe PayrollEmployee, c contract.Contract, periodStart time.Time, percent decimal.Decimal, withTaxes bool, rates Rates) []Item {
	base := salaryBase(pe.Items)
	amount := roundPercentOf(base, percent)

	main := Item{
		ID:                uuid.NewString(),
		PayrollEmployeeID: pe.ID,
		Description:       "Thirteenth salary",
		Type:              ItemTypeCredit,
		Category:          CategoryThirteenth,
		Application:       ApplicationThirteenth,
		Amount:            amount,
		CalculationBasis:  fmt.Sprintf("%d*%s%%", base, percent.StringFixed(2)),
		CalculationDetails: details(map[string]any{
			"base":    base,
			"percent": percent.StringFixed(2),
		}),
	}
	items := []Item{main}

	taxable := amount
	for _, bd := range c.BenefitDiscounts {
		value := Prorate(bd, ApplicationThirteenth, periodStart, pe.DaysInPeriod, pe.DaysWorked)
		if value == 0 {
			continue
		}
		item := Item{
			ID:                uuid.NewString(),
			PayrollEmployeeID: pe.ID,
			Description:       bd.Description,
			Type:              ItemTypeCredit,
			Category:          CategoryThirteenth,
			Application:       ApplicationThirteenth,
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

	if withTaxes {
		items = append(items, taxItems(pe.ID, main.ID, CategoryThirteenth, taxable, c, rates)...)
	}
	return items
}

// taxItems builds the withholding debits for a taxable base, honoring the
// contract tax flags. FGTS is employer-funded and never a line item here.
func taxItems(payrollEmployeeID, referenceID, context string, taxable int64, c contract.Contract, rates Rates) []Item {
	if taxable <= 0 {
		return nil
	}
	var items []Item
	if c.HasINSS && rates.INSS.IsPositive() {
		items = append(items, Item{
			ID:                uuid.NewString(),
			PayrollEmployeeID: payrollEmployeeID,
			Description:       "INSS (" + context + ")",
			Type:              ItemTypeDebit,
			Category:          CategoryINSS,
			Application:       contextApplication(context),
			Amount:            roundPercentOf(taxable, rates.INSS),
			ReferenceID:       referenceID,
			CalculationBasis:  fmt.Sprintf("%d*%s%%", taxable, rates.INSS.StringFixed(2)),
		})
	}
	if c.HasIRRF && rates.IRRF.IsPositive() {
		items = append(items, Item{
			ID:                uuid.NewString(),
			PayrollEmployeeID: payrollEmployeeID,
			Description:       "IRRF (" + context + ")",
			Type:              ItemTypeDebit,
			Category:          CategoryIRRF,
			Application:       contextApplication(context),
			Amount:            roundPercentOf(taxable, rates.IRRF),
			ReferenceID:       referenceID,
			CalculationBasis:  fmt.Sprintf("%d*%s%%", taxable, rates.IRRF.StringFixed(2)),
		})
	}
	return items
}

func contextApplication(context string) string {
	switch context {
	case CategoryThirteenth:
		return ApplicationThirteenth
	case CategoryVacation:
		return ApplicationVacation
	default:
		return ApplicationSalary
	}
}

func details(v map[string]any) json.RawMessage {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return payload
}
