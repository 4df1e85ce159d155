package allocation

import (
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/payment"
)

type AllocateInput struct {
	UserID string `json:"user_id"`
	// Optional. Without it the allocation is a manual, transaction-less entry.
	TransactionID string          `json:"transaction_id,omitempty"`
	Type          string          `json:"allocation_type"`
	TargetID      string          `json:"target_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

type AllocationDTO struct {
	AllocationID  string          `json:"allocation_id,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	UserID        string          `json:"user_id"`
	Type          string          `json:"allocation_type"`
	Component     string          `json:"component,omitempty"`
	TargetID      string          `json:"target_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	// Skipped is set when the transaction had nothing left to allocate.
	Skipped bool `json:"skipped,omitempty"`
	// Unallocated is what remains on the transaction afterwards.
	Unallocated decimal.Decimal `json:"unallocated"`
}

type TransactionDTO struct {
	TransactionID   string          `json:"transaction_id"`
	Reference       string          `json:"reference"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Category        string          `json:"category"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type RulesDTO struct {
	Priority   []string        `json:"priority"`
	MinSavings decimal.Decimal `json:"min_savings"`
	SharePrice decimal.Decimal `json:"share_price"`
}

type AutoReport struct {
	Scanned     int             `json:"scanned"`
	Allocated   int             `json:"allocated"`
	Failed      int             `json:"failed"`
	Total       decimal.Decimal `json:"total"`
	Allocations []AllocationDTO `json:"allocations"`
}

func toDTO(a *payment.Allocation) AllocationDTO {
	return AllocationDTO{
		AllocationID:  a.AllocationID,
		TransactionID: a.TransactionID,
		UserID:        a.UserID,
		Type:          string(a.Type),
		Component:     string(a.Component),
		TargetID:      a.TargetID,
		Amount:        a.Amount,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

func toTransactionDTO(t *payment.Transaction) TransactionDTO {
	return TransactionDTO{
		TransactionID:   t.TransactionID,
		Reference:       t.Reference,
		UserID:          t.UserID,
		Amount:          t.Amount,
		AllocatedAmount: t.AllocatedAmount,
		Category:        string(t.Category),
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt,
	}
}
