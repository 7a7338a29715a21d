package payroll

// ComputeTotals derives the three ledger aggregates from a full item set.
func ComputeTotals(items []Item) (gross, deductions, net int64) {
	for _, item := range items {
		switch item.Type {
		case ItemTypeCredit:
			gross += item.Amount
		case ItemTypeDebit:
			deductions += item.Amount
		}
	}
	net = gross - deductions
	return gross, deductions, net
}

// Reaggregate re-derives every employee total from its item set and then
// the payroll totals by re-summing all employees. Totals are never
// adjusted by incremental deltas; a full re-sum on every mutation keeps
// drift out.
func Reaggregate(p *Payroll) {
	p.TotalGrossPay = 0
	p.TotalDeductions = 0
	p.TotalNetPay = 0
	p.TotalINSS = 0
	p.TotalFGTS = 0
	for i := range p.Employees {
		pe := &p.Employees[i]
		pe.TotalGrossPay, pe.TotalDeductions, pe.TotalNetPay = ComputeTotals(pe.Items)
		pe.TotalINSS = sumCategory(pe.Items, CategoryINSS)

		p.TotalGrossPay += pe.TotalGrossPay
		p.TotalDeductions += pe.TotalDeductions
		p.TotalNetPay += pe.TotalNetPay
		p.TotalINSS += pe.TotalINSS
		p.TotalFGTS += pe.TotalFGTS
	}
}

// VerifyAggregates recomputes every total from the item sets and reports
// ErrAggregateMismatch when stored values differ. A discrepancy here means
// persisted data was mutated outside the ledger operations; callers abort
// rather than repair.
func VerifyAggregates(p *Payroll) error {
	var gross, deductions, net int64
	for i := range p.Employees {
		pe := &p.Employees[i]
		g, d, n := ComputeTotals(pe.Items)
		if pe.TotalGrossPay != g || pe.TotalDeductions != d || pe.TotalNetPay != n {
			return ErrAggregateMismatch
		}
		gross += g
		deductions += d
		net += n
	}
	if p.TotalGrossPay != gross || p.TotalDeductions != deductions || p.TotalNetPay != net {
		return ErrAggregateMismatch
	}
	return nil
}

func sumCategory(items []Item, category string) int64 {
	var total int64
	for _, item := range items {
		if item.Category == category {
			total += item.Amount
		}
	}
	return total
}

// salaryBase sums the employee's regular-salary credits, the basis for
// thirteenth-salary and reference calculations.
func salaryBase(items []Item) int64 {
	var base int64
	for _, item := range items {
		if item.Type == ItemTypeCredit && item.Application == ApplicationSalary {
			base += item.Amount
		}
	}
	return base
}
