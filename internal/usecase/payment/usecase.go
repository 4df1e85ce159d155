package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/internal/usecase/allocation"
	"sacco-backend/pkg/id"
	"sacco-backend/pkg/retry"

	"gorm.io/gorm"
)

// Allocator routes money already held by a locked transaction.
type Allocator interface {
	AllocateIn(ctx context.Context, r uow.Repos, t *payment.Transaction, typ payment.AllocationType, targetID string, amount decimal.Decimal) (*allocation.AllocationDTO, error)
}

type Usecase struct {
	uow       uow.UnitOfWork
	gateway   payment.Gateway
	allocator Allocator
	notifier  notification.Notifier
	retry     retry.Policy
	now       func() time.Time
}

// NewUsecase wires payment intake. A nil gateway records payments without an STK push.
func NewUsecase(tx uow.UnitOfWork, g payment.Gateway, a Allocator, n notification.Notifier) *Usecase {
	if n == nil {
		n = notification.Discard{}
	}
	return &Usecase{
		uow:       tx,
		gateway:   g,
		allocator: a,
		notifier:  n,
		retry:     retry.Default,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate records a pending credit and asks the gateway to collect it.
func (u *Usecase) Initiate(ctx context.Context, actor member.Actor, in InitiateInput) (*TransactionDTO, error) {
	if actor.ID != in.UserID && !actor.IsStaff() {
		return nil, payment.ErrNotOwner
	}
	cat, err := payment.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	targetID := ""
	if cat == payment.CategoryLoanRepayment {
		targetID = in.TargetID
	}
	t, err := payment.NewCredit(id.NewID32(), id.NewReference("TRX"), in.UserID, in.Amount, cat, targetID)
	if err != nil {
		return nil, err
	}
	t.Description = in.Description
	if t.Description == "" {
		t.Description = fmt.Sprintf("SACCO %s payment", cat)
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.GetByMemberID(ctx, in.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member.ErrNotFound
		}
		if err != nil {
			return err
		}
		t.PhoneNumber = in.PhoneNumber
		if t.PhoneNumber == "" {
			t.PhoneNumber = m.PhoneNumber
		}
		return r.Payments.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	if u.gateway == nil {
		return toDTO(t), nil
	}

	var externalID string
	gwErr := u.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		externalID, err = u.gateway.InitiateStkPush(ctx, t.PhoneNumber, t.Amount, t.Reference, t.Description)
		return err
	})

	var out *TransactionDTO
	err = u.retry.Do(ctx, func(ctx context.Context) error {
		return u.uow.WithinTransactionTx(ctx, t.TransactionID, func(r uow.Repos, locked *payment.Transaction) error {
			if gwErr != nil {
				if err := locked.Fail(); err != nil {
					return err
				}
			} else {
				locked.ExternalID = externalID
			}
			if err := r.Payments.Save(ctx, locked); err != nil {
				return err
			}
			out = toDTO(locked)
			return nil
		})
	})
	if gwErr != nil {
		log.Printf("payment: stk push for %s failed: %v", t.Reference, gwErr)
		if err != nil {
			log.Printf("payment: mark %s failed: %v", t.Reference, err)
		}
		return nil, fmt.Errorf("%w: %v", payment.ErrGateway, gwErr)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete confirms a pending payment and, when its category names a
// destination, allocates it in the same transaction. Completing twice is a no-op.
func (u *Usecase) Complete(ctx context.Context, reference string) (*TransactionDTO, error) {
	transactionID, err := u.resolve(ctx, reference)
	if err != nil {
		return nil, err
	}

	var (
		out    *TransactionDTO
		outbox []notification.Message
	)
	err = u.retry.Do(ctx, func(ctx context.Context) error {
		outbox = outbox[:0]
		return u.uow.WithinTransactionTx(ctx, transactionID, func(r uow.Repos, t *payment.Transaction) error {
			switch t.Status {
			case payment.StatusCompleted, payment.StatusAllocated:
				out = toDTO(t)
				out.Replayed = true
				return nil
			case payment.StatusFailed:
				return payment.ErrNotPending
			}

			if err := t.Complete(u.now()); err != nil {
				return err
			}
			if err := r.Payments.Save(ctx, t); err != nil {
				return err
			}
			if err := u.settle(ctx, r, t); err != nil {
				return err
			}
			out = toDTO(t)
			outbox = append(outbox, notification.Message{
				UserID: t.UserID,
				Kind:   notification.KindPaymentReceived,
				Title:  "Payment received",
				Body:   fmt.Sprintf("We received %s (ref %s).", t.Amount.StringFixed(2), t.Reference),
				Data:   map[string]string{"reference": t.Reference, "transaction_id": t.TransactionID},
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for _, m := range outbox {
		u.notifier.Notify(ctx, m)
	}
	return out, nil
}

// settle routes a freshly completed transaction by category. Money that cannot
// be routed stays unallocated for the auto-allocation sweep.
func (u *Usecase) settle(ctx context.Context, r uow.Repos, t *payment.Transaction) error {
	var typ payment.AllocationType
	switch t.Category {
	case payment.CategoryDeposit:
		return nil
	case payment.CategoryRegistration:
		return u.register(ctx, r, t)
	case payment.CategoryLoanRepayment:
		if t.TargetID == "" {
			return nil
		}
		ok, err := u.repayable(ctx, r, t)
		if err != nil || !ok {
			return err
		}
		typ = payment.AllocLoan
	case payment.CategorySavings:
		typ = payment.AllocSavings
	case payment.CategoryShares:
		typ = payment.AllocShares
	case payment.CategoryWelfare:
		typ = payment.AllocWelfare
	default:
		return nil
	}
	if u.allocator == nil {
		return nil
	}
	_, err := u.allocator.AllocateIn(ctx, r, t, typ, t.TargetID, t.Unallocated())
	return err
}

// repayable locks the target loan and reports whether it can take money from t.
func (u *Usecase) repayable(ctx context.Context, r uow.Repos, t *payment.Transaction) (bool, error) {
	l, err := r.Loans.GetByLoanIDForUpdate(ctx, t.TargetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payment: %s targets unknown loan %s, left unallocated", t.Reference, t.TargetID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if l.BorrowerID != t.UserID || l.State != loan.StateActive {
		log.Printf("payment: %s cannot repay loan %s (%s), left unallocated", t.Reference, l.LoanID, l.State)
		return false, nil
	}
	return true, nil
}

// register marks the member's registration fee paid. The whole amount is consumed.
func (u *Usecase) register(ctx context.Context, r uow.Repos, t *payment.Transaction) error {
	m, err := r.Members.GetByMemberIDForUpdate(ctx, t.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !m.RegistrationPaid {
		m.RegistrationPaid = true
		if err := r.Members.Save(ctx, m); err != nil {
			return err
		}
	}
	if _, err := t.Reserve(t.Amount); err != nil {
		return err
	}
	return r.Payments.Save(ctx, t)
}

// Fail closes a pending payment the gateway reported as unsuccessful.
func (u *Usecase) Fail(ctx context.Context, reference string) (*TransactionDTO, error) {
	transactionID, err := u.resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	var out *TransactionDTO
	err = u.retry.Do(ctx, func(ctx context.Context) error {
		return u.uow.WithinTransactionTx(ctx, transactionID, func(r uow.Repos, t *payment.Transaction) error {
			if t.Status == payment.StatusFailed {
				out = toDTO(t)
				out.Replayed = true
				return nil
			}
			if err := t.Fail(); err != nil {
				return err
			}
			if err := r.Payments.Save(ctx, t); err != nil {
				return err
			}
			out = toDTO(t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, reference string) (*TransactionDTO, error) {
	var out *TransactionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		t, err := r.Payments.GetByReference(ctx, reference)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payment.ErrNotFound
		}
		if err != nil {
			return err
		}
		out = toDTO(t)
		return nil
	})
	return out, err
}

func (u *Usecase) resolve(ctx context.Context, reference string) (string, error) {
	dto, err := u.Get(ctx, reference)
	if err != nil {
		return "", err
	}
	return dto.TransactionID, nil
}
