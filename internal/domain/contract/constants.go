package contract

const (
	TypeMonthly = "monthly"
	TypeDaily   = "daily"
	TypeHourly  = "hourly"

	KindBenefit  = "benefit"
	KindDiscount = "discount"
)
