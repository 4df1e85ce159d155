package share

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPledged Status = "pledged_as_guarantee"
)

// Table: shares. One row per purchase block.
type Share struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	ShareID       string          `gorm:"size:32;uniqueIndex" json:"share_id"`
	UserID        string          `gorm:"size:32;index:idx_shares_user_status;not null" json:"user_id"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_paid"`
	TransactionID string          `gorm:"size:32;index" json:"transaction_id,omitempty"`
	PurchaseDate  time.Time       `gorm:"not null" json:"purchase_date"`
	Status        Status          `gorm:"size:24;index:idx_shares_user_status;default:'active'" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Share) TableName() string { return "shares" }

type Repository interface {
	Create(ctx context.Context, s *Share) error
	// Sum of Quantity over the user's active blocks.
	SumActiveByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]Share, error)
}
