package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/usecase/approval"
)

type RequestInput struct {
	Amount          decimal.Decimal `json:"amount"`
	RepaymentMonths int             `json:"repayment_months"`
	Purpose         string          `json:"purpose"`
}

type LoanDTO struct {
	LoanID              string           `json:"loan_id"`
	BorrowerID          string           `json:"borrower_id"`
	RequestedAmount     decimal.Decimal  `json:"requested_amount"`
	ApprovedAmount      *decimal.Decimal `json:"approved_amount,omitempty"`
	RepaymentMonths     int              `json:"repayment_months"`
	InterestRate        decimal.Decimal  `json:"interest_rate"`
	BalanceRemaining    decimal.Decimal  `json:"balance_remaining"`
	InterestOutstanding decimal.Decimal  `json:"interest_outstanding"`
	Purpose             string           `json:"purpose,omitempty"`
	State               string           `json:"state"`
	RejectionReason     string           `json:"rejection_reason,omitempty"`
	ApprovedAt          *time.Time       `json:"approved_at,omitempty"`
	DisbursedAt         *time.Time       `json:"disbursed_at,omitempty"`
	DueDate             *time.Time       `json:"due_date,omitempty"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// DecisionDTO is the outcome of approve or disburse: either the loan moved,
// or a pending action now gates the move.
type DecisionDTO struct {
	Loan          *LoanDTO            `json:"loan"`
	PendingAction *approval.ActionDTO `json:"pending_action,omitempty"`
}

type RepaymentDTO struct {
	RepaymentID   string          `json:"repayment_id"`
	LoanID        string          `json:"loan_id"`
	TransactionID string          `json:"transaction_id"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	Applied       decimal.Decimal `json:"applied"`
	Unallocated   decimal.Decimal `json:"unallocated"`
	LoanState     string          `json:"loan_state"`
	Balance       decimal.Decimal `json:"balance_remaining"`
	PaidAt        time.Time       `json:"paid_at"`
}

type EligibilityDTO struct {
	BorrowerID         string          `json:"borrower_id"`
	TotalShares        int64           `json:"total_shares"`
	MaxLoanAmount      decimal.Decimal `json:"max_loan_amount"`
	HasActiveLoan      bool            `json:"has_active_loan"`
	HasPendingLoan     bool            `json:"has_pending_loan"`
	GuarantorsRequired int             `json:"guarantors_required"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:              l.LoanID,
		BorrowerID:          l.BorrowerID,
		RequestedAmount:     l.RequestedAmount,
		RepaymentMonths:     l.RepaymentMonths,
		InterestRate:        l.InterestRate,
		BalanceRemaining:    l.BalanceRemaining,
		InterestOutstanding: l.InterestOutstanding,
		Purpose:             l.Purpose,
		State:               string(l.State),
		RejectionReason:     l.RejectionReason,
		ApprovedAt:          l.ApprovedAt,
		DisbursedAt:         l.DisbursedAt,
		DueDate:             l.DueDate,
		CompletedAt:         l.CompletedAt,
		CreatedAt:           l.CreatedAt,
	}
	if l.ApprovedAmount.Valid {
		v := l.ApprovedAmount.Decimal
		dto.ApprovedAmount = &v
	}
	return dto
}
