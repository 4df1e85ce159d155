package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AllocationType string

const (
	AllocLoan    AllocationType = "LOAN"
	AllocSavings AllocationType = "SAVINGS"
	AllocShares  AllocationType = "SHARES"
	AllocWelfare AllocationType = "WELFARE"
	// Only produced by auto-allocation.
	AllocFine AllocationType = "FINE"
)

// ParseAllocationType accepts the types a caller may route to directly.
func ParseAllocationType(s string) (AllocationType, error) {
	switch t := AllocationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AllocLoan, AllocSavings, AllocShares, AllocWelfare:
		return t, nil
	}
	return "", ErrUnsupportedType
}

type Component string

const (
	ComponentFines     Component = "FINES"
	ComponentInterest  Component = "INTEREST"
	ComponentPrincipal Component = "PRINCIPAL"
	ComponentSavings   Component = "SAVINGS"
)

// Priority is the fixed auto-allocation order.
var Priority = []Component{ComponentFines, ComponentInterest, ComponentPrincipal, ComponentSavings}

type AllocationStatus string

const (
	AllocationCompleted AllocationStatus = "completed"
	AllocationReversed  AllocationStatus = "reversed"
)

// Table: payment_allocations.
type Allocation struct {
	ID            uint64           `gorm:"primaryKey;column:id" json:"-"`
	AllocationID  string           `gorm:"size:32;uniqueIndex" json:"allocation_id"`
	TransactionID string           `gorm:"size:32;index" json:"transaction_id,omitempty"`
	UserID        string           `gorm:"size:32;index;not null" json:"user_id"`
	Type          AllocationType   `gorm:"size:16;not null" json:"allocation_type"`
	Component     Component        `gorm:"size:16" json:"component,omitempty"`
	TargetID      string           `gorm:"size:32" json:"target_id,omitempty"`
	Amount        decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status        AllocationStatus `gorm:"size:16;default:'completed'" json:"status"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (Allocation) TableName() string { return "payment_allocations" }
