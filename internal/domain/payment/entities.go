package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrNotFound        = fmt.Errorf("transaction %w", errs.ErrNotFound)
	ErrNotPending      = fmt.Errorf("transaction is not pending: %w", errs.ErrInvalidState)
	ErrNotCompleted    = fmt.Errorf("transaction is not completed: %w", errs.ErrInvalidState)
	ErrNotOwner        = fmt.Errorf("transaction belongs to another member: %w", errs.ErrUnauthorized)
	ErrManualNotStaff  = fmt.Errorf("only staff may allocate without a transaction: %w", errs.ErrUnauthorized)
	ErrInvalidAmount   = fmt.Errorf("amount must be positive: %w", errs.ErrValidation)
	ErrInvalidCategory = fmt.Errorf("unknown payment category: %w", errs.ErrValidation)
	ErrUnsupportedType = fmt.Errorf("allocation: %w", errs.ErrUnsupportedAllocationType)
	ErrStaleVersion    = fmt.Errorf("transaction changed concurrently: %w", errs.ErrConflict)
	ErrGateway         = fmt.Errorf("payment gateway rejected the request: %w", errs.ErrUnavailable)
	ErrBelowSharePrice = fmt.Errorf("amount is below the price of one share: %w", errs.ErrInsufficientFunds)
)

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// Allocated means every unit of the amount has been routed.
	StatusAllocated Status = "allocated"
)

type Category string

const (
	CategoryDeposit       Category = "deposit"
	CategoryLoanRepayment Category = "loan_repayment"
	CategorySavings       Category = "savings"
	CategoryShares        Category = "shares"
	CategoryWelfare       Category = "welfare"
	CategoryRegistration  Category = "registration"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryDeposit, CategoryLoanRepayment, CategorySavings, CategoryShares, CategoryWelfare, CategoryRegistration:
		return c, nil
	}
	return "", ErrInvalidCategory
}

// Table: transactions.
type Transaction struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	TransactionID   string          `gorm:"size:32;uniqueIndex" json:"transaction_id"`
	Reference       string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	UserID          string          `gorm:"size:32;index;not null" json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"allocated_amount"`
	Direction       Direction       `gorm:"size:8;not null" json:"direction"`
	Category        Category        `gorm:"size:24;not null" json:"category"`
	TargetID        string          `gorm:"size:32" json:"target_id,omitempty"`
	Status          Status          `gorm:"size:16;index:idx_transactions_status_created;default:'pending'" json:"status"`
	PhoneNumber     string          `gorm:"size:20" json:"phone_number,omitempty"`
	ExternalID      string          `gorm:"size:64;index" json:"external_id,omitempty"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Version         int64           `gorm:"not null" json:"-"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index:idx_transactions_status_created" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

func NewCredit(transactionID, reference, userID string, amount decimal.Decimal, category Category, targetID string) (*Transaction, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		TransactionID:   transactionID,
		Reference:       reference,
		UserID:          userID,
		Amount:          amount.Round(2),
		AllocatedAmount: decimal.Zero,
		Direction:       Credit,
		Category:        category,
		TargetID:        targetID,
		Status:          StatusPending,
		Version:         1,
	}, nil
}

func (t *Transaction) Unallocated() decimal.Decimal {
	if r := t.Amount.Sub(t.AllocatedAmount); r.IsPositive() {
		return r
	}
	return decimal.Zero
}

func (t *Transaction) FullyAllocated() bool { return !t.Unallocated().IsPositive() }

// Complete is the only way out of pending towards allocation.
func (t *Transaction) Complete(now time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	return nil
}

func (t *Transaction) Fail() error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	t.Status = StatusFailed
	return nil
}

// Reserve clamps amount to what is still unallocated and books it.
// The returned value is what the caller may route; zero means nothing is left.
func (t *Transaction) Reserve(amount decimal.Decimal) (decimal.Decimal, error) {
	if t.Status != StatusCompleted && t.Status != StatusAllocated {
		return decimal.Zero, ErrNotCompleted
	}
	take := decimal.Min(amount.Round(2), t.Unallocated())
	if !take.IsPositive() {
		return decimal.Zero, nil
	}
	t.AllocatedAmount = t.AllocatedAmount.Add(take)
	if t.FullyAllocated() {
		t.Status = StatusAllocated
	}
	return take, nil
}

// Unreserve gives back the part of a reservation the destination could not absorb.
func (t *Transaction) Unreserve(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	t.AllocatedAmount = decimal.Max(decimal.Zero, t.AllocatedAmount.Sub(amount))
	if t.Status == StatusAllocated && !t.FullyAllocated() {
		t.Status = StatusCompleted
	}
}
