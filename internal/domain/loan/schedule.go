package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Installment struct {
	Month     int             `json:"month"`
	DueDate   time.Time       `json:"due_date"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Total     decimal.Decimal `json:"total"`
}

// Schedule is the flat-rate plan: equal principal and equal interest every month,
// due dates counted from the loan's creation.
func (l *Loan) Schedule() ([]Installment, error) {
	if !l.ApprovedAmount.Valid {
		return nil, ErrNotApproved
	}
	if l.RepaymentMonths <= 0 {
		return nil, ErrInvalidTerm
	}
	approved := l.ApprovedAmount.Decimal
	months := decimal.NewFromInt(int64(l.RepaymentMonths))
	principal := approved.Div(months).Round(2)
	interest := approved.Mul(l.InterestRate).Div(decimal.NewFromInt(100)).Div(months).Round(2)

	out := make([]Installment, 0, l.RepaymentMonths)
	for i := 1; i <= l.RepaymentMonths; i++ {
		out = append(out, Installment{
			Month:     i,
			DueDate:   l.CreatedAt.AddDate(0, i, 0),
			Principal: principal,
			Interest:  interest,
			Total:     principal.Add(interest),
		})
	}
	return out, nil
}
