package uow

import (
	"context"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/guarantor"
	"sacco-backend/internal/domain/ledger"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/share"
)

// Repos are bound to one database transaction.
type Repos struct {
	Actions       action.Repository
	Loans         loan.Repository
	Members       member.Repository
	Guarantors    guarantor.Repository
	Shares        share.Repository
	Payments      payment.Repository
	Ledger        ledger.Repository
	Notifications notification.Repository
}

// Each Within*Tx locks its aggregate row first and hands it to fn.
// When one operation needs a transaction and a loan, the transaction is locked first.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	WithinActionTx(ctx context.Context, actionID string, fn func(r Repos, a *action.PendingAction) error) error
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
	// Locks the guarantor's member row. All share reservations for that member serialize here.
	WithinGuarantorTx(ctx context.Context, guarantorID string, fn func(r Repos, m *member.Member) error) error
	WithinTransactionTx(ctx context.Context, transactionID string, fn func(r Repos, t *payment.Transaction) error) error
}
