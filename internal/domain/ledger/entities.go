// Package ledger holds the running-balance rows money is routed into
// besides loans and shares: savings, welfare contributions and fines.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrFineNotPending = fmt.Errorf("fine is not pending: %w", errs.ErrInvalidState)
	ErrInvalidAmount  = fmt.Errorf("amount must be positive: %w", errs.ErrValidation)
)

// PeriodLayout formats welfare periods as YYYY-MM.
const PeriodLayout = "2006-01"

type SavingsEntry struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	EntryID       string          `gorm:"size:32;uniqueIndex" json:"entry_id"`
	UserID        string          `gorm:"size:32;index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	TransactionID string          `gorm:"size:32;index" json:"transaction_id,omitempty"`
	Source        string          `gorm:"size:32" json:"source"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (SavingsEntry) TableName() string { return "savings_entries" }

type WelfarePayment struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID     string          `gorm:"size:32;uniqueIndex" json:"payment_id"`
	UserID        string          `gorm:"size:32;index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Period        string          `gorm:"size:7;index;not null" json:"period"`
	TransactionID string          `gorm:"size:32;index" json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (WelfarePayment) TableName() string { return "welfare_payments" }

type FineStatus string

const (
	FinePending FineStatus = "pending"
	FinePaid    FineStatus = "paid"
	FineWaived  FineStatus = "waived"
)

// DefaultFineAmount applies when a penalty is raised without an explicit amount.
var DefaultFineAmount = decimal.NewFromInt(500)

type Fine struct {
	ID         uint64          `gorm:"primaryKey;column:id" json:"-"`
	FineID     string          `gorm:"size:32;uniqueIndex" json:"fine_id"`
	UserID     string          `gorm:"size:32;index:idx_fines_user_status;not null" json:"user_id"`
	LoanID     string          `gorm:"size:32;index" json:"loan_id,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"paid_amount"`
	Reason     string          `gorm:"type:text" json:"reason"`
	Status     FineStatus      `gorm:"size:16;index:idx_fines_user_status;default:'pending'" json:"status"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Fine) TableName() string { return "fines" }

func NewFine(fineID, userID, loanID string, amount decimal.Decimal, reason string) (*Fine, error) {
	if amount.IsZero() {
		amount = DefaultFineAmount
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Fine{
		FineID:     fineID,
		UserID:     userID,
		LoanID:     loanID,
		Amount:     amount.Round(2),
		PaidAmount: decimal.Zero,
		Reason:     reason,
		Status:     FinePending,
	}, nil
}

func (f *Fine) Outstanding() decimal.Decimal {
	return decimal.Max(decimal.Zero, f.Amount.Sub(f.PaidAmount))
}

// Pay applies up to the outstanding amount and returns what was taken.
func (f *Fine) Pay(amount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if f.Status != FinePending {
		return decimal.Zero, ErrFineNotPending
	}
	take := decimal.Min(amount.Round(2), f.Outstanding())
	if !take.IsPositive() {
		return decimal.Zero, nil
	}
	f.PaidAmount = f.PaidAmount.Add(take)
	if !f.Outstanding().IsPositive() {
		f.Status = FinePaid
		f.PaidAt = &now
	}
	return take, nil
}

func (f *Fine) Waive() error {
	if f.Status != FinePending {
		return ErrFineNotPending
	}
	f.Status = FineWaived
	return nil
}
