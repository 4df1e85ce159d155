package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/internal/usecase/approval"
	"sacco-backend/pkg/id"
	"sacco-backend/pkg/retry"

	"gorm.io/gorm"
)

// Approvals is the part of the workflow engine loans need.
type Approvals interface {
	InitiateIn(ctx context.Context, r uow.Repos, cmd action.Command, reason, initiator string) (*action.PendingAction, error)
	Withdraw(ctx context.Context, t action.Type, entityID string) error
}

type Usecase struct {
	uow       uow.UnitOfWork
	approvals Approvals
	policy    policy.Policy
	notifier  notification.Notifier
	retry     retry.Policy
	now       func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, a Approvals, p policy.Policy, n notification.Notifier) *Usecase {
	if n == nil {
		n = notification.Discard{}
	}
	return &Usecase{
		uow:       tx,
		approvals: a,
		policy:    p,
		notifier:  n,
		retry:     retry.Default,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) MaxLoanAmount(totalShares int64) decimal.Decimal {
	return u.policy.MaxLoanAmount(totalShares)
}

func (u *Usecase) GuarantorsRequired(amount decimal.Decimal) int {
	return u.policy.GuarantorsRequired(amount)
}

// Request opens a pending loan for the calling member.
func (u *Usecase) Request(ctx context.Context, actor member.Actor, in RequestInput) (*LoanDTO, error) {
	l, err := loan.New(id.NewID32(), actor.ID, in.Amount, in.RepaymentMonths, u.policy.DefaultInterestRate, in.Purpose)
	if err != nil {
		return nil, err
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.GetByMemberID(ctx, actor.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !m.Active {
			return member.ErrInactive
		}

		// Block if the borrower already has a pending loan.
		pending, err := r.Loans.GetPendingLoanByBorrowerID(ctx, actor.ID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", loan.ErrPendingExists, pending.LoanID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		shares, err := r.Shares.SumActiveByUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		if limit := u.policy.MaxLoanAmount(shares); l.RequestedAmount.GreaterThan(limit) {
			return fmt.Errorf("%w: limit %s", loan.ErrExceedsLimit, limit.StringFixed(2))
		}

		return r.Loans.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// Approve moves a pending loan to approved, or gates the move behind a vote when
// the requested amount is above the workflow threshold.
func (u *Usecase) Approve(ctx context.Context, actor member.Actor, loanID, reason string) (*DecisionDTO, error) {
	if !actor.IsStaff() {
		return nil, loan.ErrNotStaff
	}
	var (
		out    DecisionDTO
		outbox []notification.Message
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.ApprovedAmount.Valid {
			return loan.ErrAlreadyApproved
		}
		if !loan.CanTransition(l.State, loan.StateApproved) {
			return fmt.Errorf("%w: %s -> %s", loan.ErrInvalidTransition, l.State, loan.StateApproved)
		}

		if u.policy.RequiresWorkflow(l.RequestedAmount) {
			a, err := u.approvals.InitiateIn(ctx, r, action.ApproveLoan{LoanID: l.LoanID}, reason, actor.ID)
			if err != nil {
				return err
			}
			out = DecisionDTO{Loan: toDTO(l), PendingAction: approval.ToDTO(a)}
			return nil
		}

		if err := l.Approve(u.now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		outbox = append(outbox, loanNotice(l, notification.KindLoanApproved, "Loan approved"))
		out = DecisionDTO{Loan: toDTO(l)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.send(ctx, outbox)
	return &out, nil
}

// Disburse activates an approved loan. Above the workflow threshold it opens a
// DISBURSE_LOAN action instead.
func (u *Usecase) Disburse(ctx context.Context, actor member.Actor, loanID, reason string) (*DecisionDTO, error) {
	if !actor.IsStaff() {
		return nil, loan.ErrNotStaff
	}
	var (
		out    DecisionDTO
		outbox []notification.Message
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !loan.CanTransition(l.State, loan.StateActive) {
			return fmt.Errorf("%w: %s -> %s", loan.ErrInvalidTransition, l.State, loan.StateActive)
		}
		if !l.ApprovedAmount.Valid {
			return loan.ErrNotApproved
		}

		if u.policy.RequiresWorkflow(l.ApprovedAmount.Decimal) {
			a, err := u.approvals.InitiateIn(ctx, r, action.DisburseLoan{LoanID: l.LoanID}, reason, actor.ID)
			if err != nil {
				return err
			}
			out = DecisionDTO{Loan: toDTO(l), PendingAction: approval.ToDTO(a)}
			return nil
		}

		if err := l.Disburse(u.now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		outbox = append(outbox, loanNotice(l, notification.KindLoanDisbursed, "Loan disbursed"))
		out = DecisionDTO{Loan: toDTO(l)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.send(ctx, outbox)
	return &out, nil
}

// Repay books a credit transaction against an active loan and reduces its balance.
// Any part of amount above the balance stays on the transaction, unallocated.
func (u *Usecase) Repay(ctx context.Context, actor member.Actor, loanID string, amount decimal.Decimal, notes string) (*RepaymentDTO, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, loan.ErrInvalidAmount
	}
	var (
		out    *RepaymentDTO
		outbox []notification.Message
	)
	err := u.retry.Do(ctx, func(ctx context.Context) error {
		outbox = outbox[:0]
		return u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
			if actor.ID != l.BorrowerID && !actor.IsStaff() {
				return loan.ErrNotBorrower
			}
			now := u.now()
			applied, completed, err := l.ApplyPayment(amount, now)
			if err != nil {
				return err
			}

			t, err := payment.NewCredit(id.NewID32(), id.NewReference("REP"), l.BorrowerID, amount, payment.CategoryLoanRepayment, l.LoanID)
			if err != nil {
				return err
			}
			t.Description = "Loan repayment"
			if err := t.Complete(now); err != nil {
				return err
			}
			if _, err := t.Reserve(applied); err != nil {
				return err
			}
			if err := r.Payments.Create(ctx, t); err != nil {
				return err
			}
			if err := r.Payments.CreateAllocation(ctx, &payment.Allocation{
				AllocationID:  id.NewID32(),
				TransactionID: t.TransactionID,
				UserID:        l.BorrowerID,
				Type:          payment.AllocLoan,
				Component:     payment.ComponentPrincipal,
				TargetID:      l.LoanID,
				Amount:        applied,
				Status:        payment.AllocationCompleted,
			}); err != nil {
				return err
			}

			rp := &loan.Repayment{
				RepaymentID:   id.NewID32(),
				LoanID:        l.LoanID,
				TransactionID: t.TransactionID,
				Amount:        applied,
				PaidAt:        now,
				Notes:         notes,
			}
			if err := r.Loans.CreateRepayment(ctx, rp); err != nil {
				return err
			}
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			if completed {
				if err := u.releasePledges(ctx, r, l.LoanID, now); err != nil {
					return err
				}
				outbox = append(outbox, loanNotice(l, notification.KindLoanCompleted, "Loan fully repaid"))
			}

			out = &RepaymentDTO{
				RepaymentID:   rp.RepaymentID,
				LoanID:        l.LoanID,
				TransactionID: t.TransactionID,
				Reference:     t.Reference,
				Amount:        t.Amount,
				Applied:       applied,
				Unallocated:   t.Unallocated(),
				LoanState:     string(l.State),
				Balance:       l.BalanceRemaining,
				PaidAt:        now,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	u.send(ctx, outbox)
	return out, nil
}

func (u *Usecase) Cancel(ctx context.Context, actor member.Actor, loanID string) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		now := u.now()
		if err := l.Cancel(actor.ID, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.releasePledges(ctx, r, l.LoanID, now); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.withdraw(ctx, loanID)
	return dto, nil
}

func (u *Usecase) Reject(ctx context.Context, actor member.Actor, loanID, reason string) (*LoanDTO, error) {
	if !actor.IsStaff() {
		return nil, loan.ErrNotStaff
	}
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		now := u.now()
		if err := l.Reject(reason, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.releasePledges(ctx, r, l.LoanID, now); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.withdraw(ctx, loanID)
	return dto, nil
}

// MarkDefaulted closes an active loan that will not be repaid. Pledges stay
// accepted so the guarantors' shares remain committed.
func (u *Usecase) MarkDefaulted(ctx context.Context, actor member.Actor, loanID string) (*LoanDTO, error) {
	if !actor.IsStaff() {
		return nil, loan.ErrNotStaff
	}
	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := l.MarkDefaulted(u.now()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("loan: %s marked defaulted by %s", loanID, actor.ID)
	return dto, nil
}

// Schedule is the flat-rate repayment plan of an approved loan.
func (u *Usecase) Schedule(ctx context.Context, loanID string) ([]loan.Installment, error) {
	l, err := u.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return l.Schedule()
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID string) ([]LoanDTO, error) {
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ls, err := r.Loans.ListByBorrower(ctx, borrowerID)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(ls))
		for i := range ls {
			out = append(out, *toDTO(&ls[i]))
		}
		return nil
	})
	return out, err
}

func (u *Usecase) Repayments(ctx context.Context, loanID string) ([]loan.Repayment, error) {
	var out []loan.Repayment
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Loans.ListRepayments(ctx, loanID)
		return err
	})
	return out, err
}

// Eligibility reports the borrowing limit and, for amount > 0, the guarantors it needs.
func (u *Usecase) Eligibility(ctx context.Context, borrowerID string, amount decimal.Decimal) (*EligibilityDTO, error) {
	out := &EligibilityDTO{BorrowerID: borrowerID}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		shares, err := r.Shares.SumActiveByUser(ctx, borrowerID)
		if err != nil {
			return err
		}
		active, err := r.Loans.CountActiveByBorrower(ctx, borrowerID)
		if err != nil {
			return err
		}
		_, err = r.Loans.GetPendingLoanByBorrowerID(ctx, borrowerID)
		switch {
		case err == nil:
			out.HasPendingLoan = true
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		out.TotalShares = shares
		out.MaxLoanAmount = u.policy.MaxLoanAmount(shares)
		out.HasActiveLoan = active > 0
		if amount.IsPositive() {
			out.GuarantorsRequired = u.policy.GuarantorsRequired(amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) load(ctx context.Context, loanID string) (*loan.Loan, error) {
	var l *loan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		l, err = r.Loans.GetByLoanID(ctx, loanID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return loan.ErrNotFound
		}
		return err
	})
	return l, err
}

func (u *Usecase) releasePledges(ctx context.Context, r uow.Repos, loanID string, now time.Time) error {
	n, err := r.Guarantors.ReleaseByLoan(ctx, loanID, now)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("loan: released %d guarantor pledges for %s", n, loanID)
	}
	return nil
}

// withdraw closes a vote that can no longer succeed. Failures only delay the sweep.
func (u *Usecase) withdraw(ctx context.Context, loanID string) {
	if u.approvals == nil {
		return
	}
	if err := u.approvals.Withdraw(ctx, action.TypeApproveLoan, loanID); err != nil {
		log.Printf("loan: withdraw pending approval for %s: %v", loanID, err)
	}
}

func (u *Usecase) send(ctx context.Context, msgs []notification.Message) {
	for _, m := range msgs {
		u.notifier.Notify(ctx, m)
	}
}

func loanNotice(l *loan.Loan, kind notification.Kind, title string) notification.Message {
	return notification.Message{
		UserID: l.BorrowerID,
		Kind:   kind,
		Title:  title,
		Body:   fmt.Sprintf("Loan %s is now %s. Balance %s.", l.LoanID, l.State, l.BalanceRemaining.StringFixed(2)),
		Data:   map[string]string{"loan_id": l.LoanID},
	}
}
