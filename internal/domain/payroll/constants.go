package payroll

const (
	ItemTypeCredit = "credit"
	ItemTypeDebit  = "debit"

	// Application scopes mirror contract benefit/discount applications and
	// double as the calculation context for a proration run.
	ApplicationSalary     = "salary"
	ApplicationThirteenth = "thirteenth"
	ApplicationVacation   = "vacation"
	ApplicationBonus      = "bonus"
	ApplicationCommission = "commission"
	ApplicationAll        = "all"

	CategorySalary          = "salary"
	CategoryBenefit         = "benefit"
	CategoryDiscount        = "discount"
	CategoryThirteenth      = "thirteenth"
	CategoryVacation        = "vacation"
	CategoryVacationBonus   = "vacation_bonus"
	CategoryVacationAdvance = "vacation_advance"
	CategoryINSS            = "inss"
	CategoryIRRF            = "irrf"
	CategoryManual          = "manual"

	// Statutory annual vacation entitlement, in days.
	VacationEntitlementDays = 30
)
