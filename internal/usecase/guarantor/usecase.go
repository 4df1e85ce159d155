package guarantor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sacco-backend/internal/domain/guarantor"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/pkg/id"

	"gorm.io/gorm"
)

type Usecase struct {
	uow      uow.UnitOfWork
	notifier notification.Notifier
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, n notification.Notifier) *Usecase {
	if n == nil {
		n = notification.Discard{}
	}
	return &Usecase{uow: tx, notifier: n, now: func() time.Time { return time.Now().UTC() }}
}

// RequestGuarantee asks guarantorID to back the borrower's loan with shares.
// Holdings are not checked here; acceptance is where shares get reserved.
func (u *Usecase) RequestGuarantee(ctx context.Context, actor member.Actor, in RequestInput) (*PledgeDTO, error) {
	var p *guarantor.Pledge
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if actor.ID != l.BorrowerID {
			return loan.ErrNotBorrower
		}
		var err error
		p, err = guarantor.NewPledge(id.NewID32(), l.LoanID, l.BorrowerID, in.GuarantorID, in.Shares)
		if err != nil {
			return err
		}
		if l.State != loan.StatePending && l.State != loan.StateApproved {
			return fmt.Errorf("%w: loan is %s", loan.ErrInvalidTransition, l.State)
		}

		g, err := r.Members.GetByMemberID(ctx, in.GuarantorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !g.Active {
			return member.ErrInactive
		}

		_, err = r.Guarantors.FindOpen(ctx, l.LoanID, in.GuarantorID)
		switch {
		case err == nil:
			return guarantor.ErrAlreadyRequested
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return r.Guarantors.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	u.notifier.Notify(ctx, notification.Message{
		UserID: p.GuarantorID,
		Kind:   notification.KindGuarantorRequest,
		Title:  "Guarantor request",
		Body:   fmt.Sprintf("You have been asked to pledge %d shares for loan %s.", p.SharesPledged, p.LoanID),
		Data:   map[string]string{"request_id": p.RequestID, "loan_id": p.LoanID},
	})
	return toDTO(p), nil
}

// Respond records the guarantor's answer. Accepting reserves the shares under
// the guarantor's lock, so concurrent accepts for one guarantor cannot over-commit.
// A closed loan takes no new acceptances.
func (u *Usecase) Respond(ctx context.Context, actor member.Actor, requestID, decision string) (*PledgeDTO, error) {
	d, err := guarantor.ParseDecision(decision)
	if err != nil {
		return nil, err
	}
	p, err := u.pledge(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != p.GuarantorID {
		return nil, guarantor.ErrNotGuarantor
	}

	err = u.uow.WithinGuarantorTx(ctx, p.GuarantorID, func(r uow.Repos, _ *member.Member) error {
		// re-read under the lock
		cur, err := r.Guarantors.GetByRequestID(ctx, requestID)
		if err != nil {
			return err
		}
		now := u.now()
		switch d {
		case guarantor.DecisionAccepted:
			l, err := r.Loans.GetByLoanID(ctx, cur.LoanID)
			if err != nil {
				return err
			}
			if l.State != loan.StatePending && l.State != loan.StateApproved {
				return fmt.Errorf("%w: loan is %s", guarantor.ErrLoanClosed, l.State)
			}
			active, err := r.Shares.SumActiveByUser(ctx, cur.GuarantorID)
			if err != nil {
				return err
			}
			pledged, err := r.Guarantors.SumAcceptedShares(ctx, cur.GuarantorID)
			if err != nil {
				return err
			}
			if err := cur.Reserve(active, pledged, now); err != nil {
				return err
			}
		case guarantor.DecisionRejected:
			if err := cur.Decline(now); err != nil {
				return err
			}
		}
		// release under the loan lock may have answered it since the read
		if err := r.Guarantors.Answer(ctx, cur); err != nil {
			return err
		}
		p = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.notifier.Notify(ctx, notification.Message{
		UserID: p.BorrowerID,
		Kind:   notification.KindGuarantorAnswered,
		Title:  "Guarantor responded",
		Body:   fmt.Sprintf("Your guarantor request for loan %s was %s.", p.LoanID, p.Status),
		Data:   map[string]string{"request_id": p.RequestID, "loan_id": p.LoanID},
	})
	return toDTO(p), nil
}

// AvailableShares = active shares minus shares under accepted pledges.
func (u *Usecase) AvailableShares(ctx context.Context, userID string) (*AvailabilityDTO, error) {
	out := &AvailabilityDTO{UserID: userID}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		active, err := r.Shares.SumActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		pledged, err := r.Guarantors.SumAcceptedShares(ctx, userID)
		if err != nil {
			return err
		}
		out.ActiveShares = active
		out.PledgedShares = pledged
		out.AvailableShares = guarantor.Available(active, pledged)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) PendingRequests(ctx context.Context, guarantorID string) ([]PledgeDTO, error) {
	var out []PledgeDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ps, err := r.Guarantors.ListPendingByGuarantor(ctx, guarantorID)
		if err != nil {
			return err
		}
		out = toDTOs(ps)
		return nil
	})
	return out, err
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]PledgeDTO, error) {
	var out []PledgeDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ps, err := r.Guarantors.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		out = toDTOs(ps)
		return nil
	})
	return out, err
}

func (u *Usecase) pledge(ctx context.Context, requestID string) (*guarantor.Pledge, error) {
	var p *guarantor.Pledge
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		p, err = r.Guarantors.GetByRequestID(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return guarantor.ErrNotFound
		}
		return err
	})
	return p, err
}
