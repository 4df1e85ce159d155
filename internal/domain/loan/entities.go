package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrNotFound          = fmt.Errorf("loan %w", errs.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("loan transition not allowed: %w", errs.ErrInvalidState)
	ErrAlreadyApproved   = fmt.Errorf("loan already approved: %w", errs.ErrInvalidState)
	ErrNotActive         = fmt.Errorf("loan is not active: %w", errs.ErrInvalidState)
	ErrNotApproved       = fmt.Errorf("loan has no approved amount: %w", errs.ErrInvalidState)
	ErrPendingExists     = fmt.Errorf("borrower already has a pending loan: %w", errs.ErrInvalidState)
	ErrNotBorrower       = fmt.Errorf("only the borrower may do this: %w", errs.ErrUnauthorized)
	ErrNotStaff          = fmt.Errorf("only staff may decide on loans: %w", errs.ErrUnauthorized)
	ErrInvalidAmount     = fmt.Errorf("amount must be positive: %w", errs.ErrValidation)
	ErrInvalidTerm       = fmt.Errorf("repayment months must be positive: %w", errs.ErrValidation)
	ErrExceedsLimit      = fmt.Errorf("amount exceeds borrowing limit: %w", errs.ErrValidation)
)

type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateActive    State = "active"
	StateRejected  State = "rejected"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateDefaulted State = "defaulted"
)

var transitions = map[State][]State{
	StatePending:  {StateApproved, StateRejected, StateCancelled},
	StateApproved: {StateActive},
	StateActive:   {StateCompleted, StateDefaulted},
}

func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool { return len(transitions[s]) == 0 }

type Loan struct {
	ID                  uint64              `gorm:"primaryKey;column:id" json:"-"`
	LoanID              string              `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID          string              `gorm:"size:32;index:idx_loans_borrower_state" json:"borrower_id"`
	RequestedAmount     decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"requested_amount"`
	ApprovedAmount      decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"approved_amount"`
	RepaymentMonths     int                 `gorm:"not null" json:"repayment_months"`
	InterestRate        decimal.Decimal     `gorm:"type:decimal(6,2);not null" json:"interest_rate"`
	BalanceRemaining    decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"balance_remaining"`
	InterestOutstanding decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"interest_outstanding"`
	Purpose             string              `gorm:"type:text" json:"purpose"`
	State               State               `gorm:"size:16;index:idx_loans_borrower_state;default:'pending'" json:"state"`
	RejectionReason     string              `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	DisbursedAt         *time.Time          `json:"disbursed_at,omitempty"`
	DueDate             *time.Time          `json:"due_date,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	StateUpdatedAt      time.Time           `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// New validates the request and returns a pending loan. The balance starts at the requested amount.
func New(loanID, borrowerID string, amount decimal.Decimal, months int, rate decimal.Decimal, purpose string) (*Loan, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if months <= 0 {
		return nil, ErrInvalidTerm
	}
	return &Loan{
		LoanID:              loanID,
		BorrowerID:          borrowerID,
		RequestedAmount:     amount.Round(2),
		RepaymentMonths:     months,
		InterestRate:        rate,
		BalanceRemaining:    amount.Round(2),
		InterestOutstanding: decimal.Zero,
		Purpose:             purpose,
		State:               StatePending,
	}, nil
}

func (l *Loan) transition(to State, now time.Time) error {
	if !CanTransition(l.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.State, to)
	}
	l.State = to
	l.StateUpdatedAt = now
	return nil
}

// Approve fixes the approved amount. It is set exactly once.
func (l *Loan) Approve(now time.Time) error {
	if l.ApprovedAmount.Valid {
		return ErrAlreadyApproved
	}
	if err := l.transition(StateApproved, now); err != nil {
		return err
	}
	l.ApprovedAmount = decimal.NewNullDecimal(l.RequestedAmount)
	l.ApprovedAt = &now
	return nil
}

func (l *Loan) Reject(reason string, now time.Time) error {
	if err := l.transition(StateRejected, now); err != nil {
		return err
	}
	l.RejectionReason = reason
	return nil
}

func (l *Loan) Cancel(actorID string, now time.Time) error {
	if actorID != l.BorrowerID {
		return ErrNotBorrower
	}
	return l.transition(StateCancelled, now)
}

// Disburse activates the loan: the principal becomes owed and flat interest accrues once.
func (l *Loan) Disburse(now time.Time) error {
	if !l.ApprovedAmount.Valid {
		return ErrNotApproved
	}
	if err := l.transition(StateActive, now); err != nil {
		return err
	}
	approved := l.ApprovedAmount.Decimal
	l.BalanceRemaining = approved
	l.InterestOutstanding = approved.Mul(l.InterestRate).Div(decimal.NewFromInt(100)).Round(2)
	due := now.AddDate(0, l.RepaymentMonths, 0)
	l.DisbursedAt = &now
	l.DueDate = &due
	return nil
}

// ApplyPayment reduces the principal balance by at most the balance.
// The amount is rounded to cents before it is checked.
// It returns the applied amount and whether the loan completed.
func (l *Loan) ApplyPayment(amount decimal.Decimal, now time.Time) (decimal.Decimal, bool, error) {
	if l.State != StateActive {
		return decimal.Zero, false, ErrNotActive
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, false, ErrInvalidAmount
	}
	applied := decimal.Min(amount, l.BalanceRemaining)
	l.BalanceRemaining = l.BalanceRemaining.Sub(applied)
	if l.BalanceRemaining.Sign() <= 0 {
		l.BalanceRemaining = decimal.Zero
		if err := l.transition(StateCompleted, now); err != nil {
			return decimal.Zero, false, err
		}
		l.CompletedAt = &now
		return applied, true, nil
	}
	return applied, false, nil
}

// PayInterest settles accrued interest and returns the part applied.
func (l *Loan) PayInterest(amount decimal.Decimal) (decimal.Decimal, error) {
	if l.State != StateActive {
		return decimal.Zero, ErrNotActive
	}
	applied := decimal.Min(amount.Round(2), l.InterestOutstanding)
	if applied.Sign() < 0 {
		applied = decimal.Zero
	}
	l.InterestOutstanding = l.InterestOutstanding.Sub(applied)
	return applied, nil
}

func (l *Loan) MarkDefaulted(now time.Time) error {
	return l.transition(StateDefaulted, now)
}

// Table: loan_repayments. One row per payment applied to a loan.
type Repayment struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID   string          `gorm:"size:32;uniqueIndex" json:"repayment_id"`
	LoanID        string          `gorm:"size:32;index;not null" json:"loan_id"`
	TransactionID string          `gorm:"size:32;index" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Repayment) TableName() string { return "loan_repayments" }
