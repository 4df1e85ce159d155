// Package policy holds the cooperative's tunable business thresholds.
// Values are injected from configuration; defaults match the long-standing constants.
package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

type Policy struct {
	// Loans strictly above this amount need a multi-party vote to approve or disburse.
	WorkflowThreshold decimal.Decimal
	// Amount a borrower may take without any guarantor.
	GuarantorFreeLimit decimal.Decimal
	// Each started step above GuarantorFreeLimit needs one more guarantor.
	GuarantorStep decimal.Decimal
	SharePrice    decimal.Decimal
	// Borrowing limit = total active shares * SharePrice * LoanMultiplier.
	LoanMultiplier      int64
	DefaultInterestRate decimal.Decimal
	RequiredApprovals   int
	// Auto-allocation only routes a remainder to savings at or above this amount.
	MinSavings             decimal.Decimal
	MemberApprovalWorkflow bool
	// Pending actions older than this are expired by the sweep.
	ActionTTL time.Duration
}

func Default() Policy {
	return Policy{
		WorkflowThreshold:      decimal.NewFromInt(50_000),
		GuarantorFreeLimit:     decimal.NewFromInt(50_000),
		GuarantorStep:          decimal.NewFromInt(100_000),
		SharePrice:             decimal.NewFromInt(500),
		LoanMultiplier:         3,
		DefaultInterestRate:    decimal.NewFromInt(10),
		RequiredApprovals:      2,
		MinSavings:             decimal.NewFromInt(500),
		MemberApprovalWorkflow: true,
		ActionTTL:              7 * 24 * time.Hour,
	}
}

func (p Policy) RequiresWorkflow(amount decimal.Decimal) bool {
	return amount.GreaterThan(p.WorkflowThreshold)
}

func (p Policy) MaxLoanAmount(totalShares int64) decimal.Decimal {
	return decimal.NewFromInt(totalShares).Mul(p.SharePrice).Mul(decimal.NewFromInt(p.LoanMultiplier))
}

func (p Policy) GuarantorsRequired(amount decimal.Decimal) int {
	if amount.LessThanOrEqual(p.GuarantorFreeLimit) || !p.GuarantorStep.IsPositive() {
		return 0
	}
	return int(amount.Sub(p.GuarantorFreeLimit).Div(p.GuarantorStep).Ceil().IntPart())
}

// SharesFor converts money into whole shares and the amount they cost.
func (p Policy) SharesFor(amount decimal.Decimal) (int64, decimal.Decimal) {
	if !p.SharePrice.IsPositive() {
		return 0, decimal.Zero
	}
	qty := amount.Div(p.SharePrice).Floor().IntPart()
	return qty, decimal.NewFromInt(qty).Mul(p.SharePrice)
}
