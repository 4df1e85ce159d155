package gormdb

import (
	"context"
	"errors"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Actions:       &ActionRepository{db: tx},
		Loans:         &LoanRepository{db: tx},
		Members:       &MemberRepository{db: tx},
		Guarantors:    &GuarantorRepository{db: tx},
		Shares:        &ShareRepository{db: tx},
		Payments:      &PaymentRepository{db: tx},
		Ledger:        &LedgerRepository{db: tx},
		Notifications: &NotificationRepository{db: tx},
	}
}

func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinActionTx(ctx context.Context, actionID string, fn func(r uow.Repos, a *action.PendingAction) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		a, err := r.Actions.GetByActionIDForUpdate(ctx, actionID)
		if err != nil {
			return notFound(err, action.ErrNotFound)
		}
		return fn(r, a)
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return notFound(err, loan.ErrNotFound)
		}
		return fn(r, l)
	})
}

func (u *GormUoW) WithinGuarantorTx(ctx context.Context, guarantorID string, fn func(r uow.Repos, m *member.Member) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		m, err := r.Members.GetByMemberIDForUpdate(ctx, guarantorID)
		if err != nil {
			return notFound(err, member.ErrNotFound)
		}
		return fn(r, m)
	})
}

func (u *GormUoW) WithinTransactionTx(ctx context.Context, transactionID string, fn func(r uow.Repos, t *payment.Transaction) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		t, err := r.Payments.GetByTransactionIDForUpdate(ctx, transactionID)
		if err != nil {
			return notFound(err, payment.ErrNotFound)
		}
		return fn(r, t)
	})
}
