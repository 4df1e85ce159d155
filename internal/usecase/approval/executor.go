package approval

import (
	"context"
	"errors"
	"time"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/uow"

	"gorm.io/gorm"
)

// executor applies an approved action inside the vote's transaction.
// It calls the same domain mutations the direct, below-threshold paths use.
type executor struct {
	r   uow.Repos
	now time.Time
	out *[]notification.Message
}

var _ action.Handler = executor{}

func (e executor) lockLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := e.r.Loans.GetByLoanIDForUpdate(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	return l, err
}

func (e executor) ApproveLoan(ctx context.Context, c action.ApproveLoan) error {
	l, err := e.lockLoan(ctx, c.LoanID)
	if err != nil {
		return err
	}
	if err := l.Approve(e.now); err != nil {
		return err
	}
	if err := e.r.Loans.Save(ctx, l); err != nil {
		return err
	}
	*e.out = append(*e.out, notification.Message{
		UserID: l.BorrowerID,
		Kind:   notification.KindLoanApproved,
		Title:  "Loan approved",
		Body:   "Your loan of " + l.ApprovedAmount.Decimal.StringFixed(2) + " has been approved.",
		Data:   map[string]string{"loan_id": l.LoanID},
	})
	return nil
}

func (e executor) DisburseLoan(ctx context.Context, c action.DisburseLoan) error {
	l, err := e.lockLoan(ctx, c.LoanID)
	if err != nil {
		return err
	}
	if err := l.Disburse(e.now); err != nil {
		return err
	}
	if err := e.r.Loans.Save(ctx, l); err != nil {
		return err
	}
	*e.out = append(*e.out, notification.Message{
		UserID: l.BorrowerID,
		Kind:   notification.KindLoanDisbursed,
		Title:  "Loan disbursed",
		Body:   "Your loan of " + l.BalanceRemaining.StringFixed(2) + " has been disbursed.",
		Data:   map[string]string{"loan_id": l.LoanID},
	})
	return nil
}

func (e executor) ApproveMember(ctx context.Context, c action.ApproveMember) error {
	m, err := e.r.Members.GetByMemberIDForUpdate(ctx, c.MemberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := m.Activate(e.now); err != nil {
		return err
	}
	if err := e.r.Members.Save(ctx, m); err != nil {
		return err
	}
	*e.out = append(*e.out, notification.Message{
		UserID: m.MemberID,
		Kind:   notification.KindMemberActivated,
		Title:  "Membership approved",
		Body:   "Your membership is now active.",
	})
	return nil
}
