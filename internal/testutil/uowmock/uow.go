package uowmock

import (
	"context"
	"errors"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn            func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinActionTxFn      func(ctx context.Context, actionID string, fn func(r uow.Repos, a *action.PendingAction) error) error
	WithinLoanTxFn        func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
	WithinGuarantorTxFn   func(ctx context.Context, guarantorID string, fn func(r uow.Repos, m *member.Member) error) error
	WithinTransactionTxFn func(ctx context.Context, transactionID string, fn func(r uow.Repos, t *payment.Transaction) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLoanTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}
func (m *UoW) WithWithinActionTx(fn func(context.Context, string, func(uow.Repos, *action.PendingAction) error) error) *UoW {
	m.WithinActionTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passthrough runs every callback against repos. Locked aggregates come from get*.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinActionTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *action.PendingAction) error) error {
			a, err := repos.Actions.GetByActionIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, a)
		},
		WithinLoanTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := repos.Loans.GetByLoanIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, l)
		},
		WithinGuarantorTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *member.Member) error) error {
			mb, err := repos.Members.GetByMemberIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, mb)
		},
		WithinTransactionTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *payment.Transaction) error) error {
			t, err := repos.Payments.GetByTransactionIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, t)
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinActionTx(ctx context.Context, actionID string, fn func(r uow.Repos, a *action.PendingAction) error) error {
	if m.WithinActionTxFn != nil {
		return m.WithinActionTxFn(ctx, actionID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinGuarantorTx(ctx context.Context, guarantorID string, fn func(r uow.Repos, mb *member.Member) error) error {
	if m.WithinGuarantorTxFn != nil {
		return m.WithinGuarantorTxFn(ctx, guarantorID, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinTransactionTx(ctx context.Context, transactionID string, fn func(r uow.Repos, t *payment.Transaction) error) error {
	if m.WithinTransactionTxFn != nil {
		return m.WithinTransactionTxFn(ctx, transactionID, fn)
	}
	return errUnimplemented
}
