package loanmock

import (
	"context"

	domain "sacco-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Getters without a func return context.Canceled; writers are no-ops.
type Repo struct {
	CreateFn                        func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                   func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn    func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	ListByBorrowerFn                func(ctx context.Context, borrowerID string) ([]domain.Loan, error)
	ListActiveByBorrowerForUpdateFn func(ctx context.Context, borrowerID string) ([]domain.Loan, error)
	CountActiveByBorrowerFn         func(ctx context.Context, borrowerID string) (int64, error)
	SaveFn                          func(ctx context.Context, l *domain.Loan) error
	CreateRepaymentFn               func(ctx context.Context, r *domain.Repayment) error
	ListRepaymentsFn                func(ctx context.Context, loanID string) ([]domain.Repayment, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrower(ctx context.Context, borrowerID string) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActiveByBorrowerForUpdate(ctx context.Context, borrowerID string) ([]domain.Loan, error) {
	if m.ListActiveByBorrowerForUpdateFn != nil {
		return m.ListActiveByBorrowerForUpdateFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) CountActiveByBorrower(ctx context.Context, borrowerID string) (int64, error) {
	if m.CountActiveByBorrowerFn != nil {
		return m.CountActiveByBorrowerFn(ctx, borrowerID)
	}
	return 0, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) CreateRepayment(ctx context.Context, r *domain.Repayment) error {
	if m.CreateRepaymentFn != nil {
		return m.CreateRepaymentFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListRepayments(ctx context.Context, loanID string) ([]domain.Repayment, error) {
	if m.ListRepaymentsFn != nil {
		return m.ListRepaymentsFn(ctx, loanID)
	}
	return nil, context.Canceled
}
