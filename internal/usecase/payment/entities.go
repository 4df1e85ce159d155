package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/payment"
)

type InitiateInput struct {
	UserID   string          `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	// Loan id for loan_repayment. Ignored otherwise.
	TargetID    string `json:"target_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Description string `json:"description,omitempty"`
}

type TransactionDTO struct {
	TransactionID   string          `json:"transaction_id"`
	Reference       string          `json:"reference"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Unallocated     decimal.Decimal `json:"unallocated"`
	Category        string          `json:"category"`
	TargetID        string          `json:"target_id,omitempty"`
	Status          string          `json:"status"`
	ExternalID      string          `json:"external_id,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	// Replayed is set when Complete found the transaction already completed.
	Replayed bool `json:"replayed,omitempty"`
}

func toDTO(t *payment.Transaction) *TransactionDTO {
	return &TransactionDTO{
		TransactionID:   t.TransactionID,
		Reference:       t.Reference,
		UserID:          t.UserID,
		Amount:          t.Amount,
		AllocatedAmount: t.AllocatedAmount,
		Unallocated:     t.Unallocated(),
		Category:        string(t.Category),
		TargetID:        t.TargetID,
		Status:          string(t.Status),
		ExternalID:      t.ExternalID,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
	}
}
