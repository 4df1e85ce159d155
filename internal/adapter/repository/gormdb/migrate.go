package gormdb

import (
	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/guarantor"
	"sacco-backend/internal/domain/ledger"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/share"

	"gorm.io/gorm"
)

// Models lists every table the core owns, in dependency order.
func Models() []any {
	return []any{
		&member.Member{},
		&action.PendingAction{},
		&action.Verification{},
		&loan.Loan{},
		&loan.Repayment{},
		&guarantor.Pledge{},
		&share.Share{},
		&payment.Transaction{},
		&payment.Allocation{},
		&ledger.SavingsEntry{},
		&ledger.WelfarePayment{},
		&ledger.Fine{},
		&notification.Notification{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
