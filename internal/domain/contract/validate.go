package contract

var applications = map[string]bool{
	"salary":     true,
	"thirteenth": true,
	"vacation":   true,
	"bonus":      true,
	"commission": true,
	"all":        true,
}

func (bd BenefitDiscount) Validate() error {
	if bd.Kind != KindBenefit && bd.Kind != KindDiscount {
		return ErrInvalidKind
	}
	if !applications[bd.Application] {
		return ErrInvalidApplication
	}
	if bd.Amount < 0 {
		return ErrNegativeAmount
	}
	if bd.Month < 0 || bd.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}
