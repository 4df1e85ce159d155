package allocation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/ledger"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/domain/share"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/pkg/id"
	"sacco-backend/pkg/retry"

	"gorm.io/gorm"
)

type Usecase struct {
	uow    uow.UnitOfWork
	policy policy.Policy
	retry  retry.Policy
	now    func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, p policy.Policy) *Usecase {
	return &Usecase{
		uow:    tx,
		policy: p,
		retry:  retry.Default,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Rules() RulesDTO {
	pr := make([]string, 0, len(payment.Priority))
	for _, c := range payment.Priority {
		pr = append(pr, string(c))
	}
	return RulesDTO{Priority: pr, MinSavings: u.policy.MinSavings, SharePrice: u.policy.SharePrice}
}

// Allocate routes amount to one destination. With a transaction id the amount is
// clamped to what the transaction still has unallocated, so replays are no-ops.
// Without one the entry is a manual staff posting.
func (u *Usecase) Allocate(ctx context.Context, actor member.Actor, in AllocateInput) (*AllocationDTO, error) {
	in.Amount = in.Amount.Round(2)
	if !in.Amount.IsPositive() {
		return nil, payment.ErrInvalidAmount
	}
	typ, err := payment.ParseAllocationType(in.Type)
	if err != nil {
		return nil, err
	}
	if actor.ID != in.UserID && !actor.IsStaff() {
		return nil, payment.ErrNotOwner
	}

	var out *AllocationDTO
	if in.TransactionID == "" {
		if !actor.IsStaff() {
			return nil, payment.ErrManualNotStaff
		}
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			a, err := u.route(ctx, r, dest{userID: in.UserID, typ: typ, targetID: in.TargetID}, in.Amount)
			if err != nil {
				return err
			}
			if a == nil {
				return payment.ErrBelowSharePrice
			}
			dto := toDTO(a)
			out = &dto
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	err = u.retry.Do(ctx, func(ctx context.Context) error {
		return u.uow.WithinTransactionTx(ctx, in.TransactionID, func(r uow.Repos, t *payment.Transaction) error {
			if t.UserID != in.UserID {
				return payment.ErrNotOwner
			}
			var err error
			out, err = u.AllocateIn(ctx, r, t, typ, in.TargetID, in.Amount)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AllocateIn allocates from t, which the caller has locked, and saves t.
func (u *Usecase) AllocateIn(ctx context.Context, r uow.Repos, t *payment.Transaction, typ payment.AllocationType, targetID string, amount decimal.Decimal) (*AllocationDTO, error) {
	take, err := t.Reserve(amount)
	if err != nil {
		return nil, err
	}
	if !take.IsPositive() {
		log.Printf("allocation: transaction %s already fully allocated, skipping", t.TransactionID)
		return &AllocationDTO{
			TransactionID: t.TransactionID,
			UserID:        t.UserID,
			Type:          string(typ),
			TargetID:      targetID,
			Amount:        decimal.Zero,
			Skipped:       true,
			Unallocated:   t.Unallocated(),
		}, nil
	}

	a, err := u.route(ctx, r, dest{userID: t.UserID, transactionID: t.TransactionID, typ: typ, targetID: targetID}, take)
	if err != nil {
		return nil, err
	}
	applied := decimal.Zero
	if a != nil {
		applied = a.Amount
	}
	t.Unreserve(take.Sub(applied))
	if err := r.Payments.Save(ctx, t); err != nil {
		return nil, err
	}

	if a == nil {
		return &AllocationDTO{
			TransactionID: t.TransactionID,
			UserID:        t.UserID,
			Type:          string(typ),
			TargetID:      targetID,
			Amount:        decimal.Zero,
			Skipped:       true,
			Unallocated:   t.Unallocated(),
		}, nil
	}
	dto := toDTO(a)
	dto.Unallocated = t.Unallocated()
	return &dto, nil
}

type dest struct {
	userID        string
	transactionID string
	typ           payment.AllocationType
	component     payment.Component
	targetID      string
}

// route applies amount to the destination ledger and records the allocation row.
// It may apply less than amount; a nil allocation means nothing could be applied.
func (u *Usecase) route(ctx context.Context, r uow.Repos, d dest, amount decimal.Decimal) (*payment.Allocation, error) {
	now := u.now()
	applied := amount

	switch d.typ {
	case payment.AllocLoan:
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, d.targetID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		got, err := u.applyPrincipal(ctx, r, l, amount, d.transactionID, now)
		if err != nil {
			return nil, err
		}
		applied = got
		if d.component == "" {
			d.component = payment.ComponentPrincipal
		}
		d.targetID = l.LoanID

	case payment.AllocSavings:
		if err := r.Ledger.CreateSavings(ctx, &ledger.SavingsEntry{
			EntryID:       id.NewID32(),
			UserID:        d.userID,
			Amount:        amount,
			TransactionID: d.transactionID,
			Source:        "allocation",
		}); err != nil {
			return nil, err
		}

	case payment.AllocShares:
		qty, cost := u.policy.SharesFor(amount)
		if qty == 0 {
			return nil, nil
		}
		s := &share.Share{
			ShareID:       id.NewID32(),
			UserID:        d.userID,
			Quantity:      qty,
			AmountPaid:    cost,
			TransactionID: d.transactionID,
			PurchaseDate:  now,
			Status:        share.StatusActive,
		}
		if err := r.Shares.Create(ctx, s); err != nil {
			return nil, err
		}
		applied = cost
		d.targetID = s.ShareID

	case payment.AllocWelfare:
		w := &ledger.WelfarePayment{
			PaymentID:     id.NewID32(),
			UserID:        d.userID,
			Amount:        amount,
			Period:        now.Format(ledger.PeriodLayout),
			TransactionID: d.transactionID,
		}
		if err := r.Ledger.CreateWelfare(ctx, w); err != nil {
			return nil, err
		}
		d.targetID = w.Period

	default:
		return nil, payment.ErrUnsupportedType
	}

	if !applied.IsPositive() {
		return nil, nil
	}
	return u.record(ctx, r, d, applied)
}

func (u *Usecase) record(ctx context.Context, r uow.Repos, d dest, amount decimal.Decimal) (*payment.Allocation, error) {
	a := &payment.Allocation{
		AllocationID:  id.NewID32(),
		TransactionID: d.transactionID,
		UserID:        d.userID,
		Type:          d.typ,
		Component:     d.component,
		TargetID:      d.targetID,
		Amount:        amount,
		Status:        payment.AllocationCompleted,
	}
	if err := r.Payments.CreateAllocation(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// applyPrincipal reduces the loan balance, books the repayment and, when the loan
// completes, releases its guarantors. l must be locked.
func (u *Usecase) applyPrincipal(ctx context.Context, r uow.Repos, l *loan.Loan, amount decimal.Decimal, transactionID string, now time.Time) (decimal.Decimal, error) {
	applied, completed, err := l.ApplyPayment(amount, now)
	if err != nil {
		return decimal.Zero, err
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return decimal.Zero, err
	}
	if err := r.Loans.CreateRepayment(ctx, &loan.Repayment{
		RepaymentID:   id.NewID32(),
		LoanID:        l.LoanID,
		TransactionID: transactionID,
		Amount:        applied,
		PaidAt:        now,
		Notes:         "allocation",
	}); err != nil {
		return decimal.Zero, err
	}
	if completed {
		if _, err := r.Guarantors.ReleaseByLoan(ctx, l.LoanID, now); err != nil {
			return decimal.Zero, err
		}
		log.Printf("allocation: loan %s completed", l.LoanID)
	}
	return applied, nil
}

// AutoAllocate walks every completed transaction with money left and splits it
// over FINES, INTEREST, PRINCIPAL and SAVINGS in that order. A remainder below the
// savings minimum stays on the transaction for the next pass.
func (u *Usecase) AutoAllocate(ctx context.Context) (*AutoReport, error) {
	var pending []payment.Transaction
	if err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		pending, err = r.Payments.ListPendingAllocation(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	report := &AutoReport{Scanned: len(pending), Total: decimal.Zero, Allocations: []AllocationDTO{}}
	for _, p := range pending {
		var made []payment.Allocation
		err := u.retry.Do(ctx, func(ctx context.Context) error {
			made = made[:0]
			return u.uow.WithinTransactionTx(ctx, p.TransactionID, func(r uow.Repos, t *payment.Transaction) error {
				var err error
				made, err = u.autoOne(ctx, r, t)
				return err
			})
		})
		if err != nil {
			report.Failed++
			log.Printf("allocation: auto-allocate %s: %v", p.TransactionID, err)
			continue
		}
		if len(made) > 0 {
			report.Allocated++
		}
		for i := range made {
			report.Total = report.Total.Add(made[i].Amount)
			report.Allocations = append(report.Allocations, toDTO(&made[i]))
		}
	}
	return report, nil
}

func (u *Usecase) autoOne(ctx context.Context, r uow.Repos, t *payment.Transaction) ([]payment.Allocation, error) {
	if t.Status != payment.StatusCompleted || t.FullyAllocated() {
		return nil, nil
	}
	now := u.now()
	var made []payment.Allocation

	book := func(d dest, amount decimal.Decimal) error {
		if _, err := t.Reserve(amount); err != nil {
			return err
		}
		d.userID = t.UserID
		d.transactionID = t.TransactionID
		a, err := u.record(ctx, r, d, amount)
		if err != nil {
			return err
		}
		made = append(made, *a)
		return nil
	}

	// FINES
	fines, err := r.Ledger.ListPendingFinesByUser(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	for i := range fines {
		if !t.Unallocated().IsPositive() {
			break
		}
		f := &fines[i]
		take, err := f.Pay(t.Unallocated(), now)
		if err != nil {
			return nil, err
		}
		if !take.IsPositive() {
			continue
		}
		if err := r.Ledger.SaveFine(ctx, f); err != nil {
			return nil, err
		}
		if err := book(dest{typ: payment.AllocFine, component: payment.ComponentFines, targetID: f.FineID}, take); err != nil {
			return nil, err
		}
	}

	loans, err := r.Loans.ListActiveByBorrowerForUpdate(ctx, t.UserID)
	if err != nil {
		return nil, err
	}

	// INTEREST
	for i := range loans {
		if !t.Unallocated().IsPositive() {
			break
		}
		l := &loans[i]
		take, err := l.PayInterest(t.Unallocated())
		if err != nil {
			return nil, err
		}
		if !take.IsPositive() {
			continue
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return nil, err
		}
		if err := book(dest{typ: payment.AllocLoan, component: payment.ComponentInterest, targetID: l.LoanID}, take); err != nil {
			return nil, err
		}
	}

	// PRINCIPAL
	for i := range loans {
		if !t.Unallocated().IsPositive() {
			break
		}
		l := &loans[i]
		if l.State != loan.StateActive {
			continue
		}
		take, err := u.applyPrincipal(ctx, r, l, t.Unallocated(), t.TransactionID, now)
		if err != nil {
			return nil, err
		}
		if !take.IsPositive() {
			continue
		}
		if err := book(dest{typ: payment.AllocLoan, component: payment.ComponentPrincipal, targetID: l.LoanID}, take); err != nil {
			return nil, err
		}
	}

	// SAVINGS
	if rest := t.Unallocated(); rest.IsPositive() && rest.GreaterThanOrEqual(u.policy.MinSavings) {
		if err := r.Ledger.CreateSavings(ctx, &ledger.SavingsEntry{
			EntryID:       id.NewID32(),
			UserID:        t.UserID,
			Amount:        rest,
			TransactionID: t.TransactionID,
			Source:        "auto_allocation",
		}); err != nil {
			return nil, err
		}
		if err := book(dest{typ: payment.AllocSavings, component: payment.ComponentSavings}, rest); err != nil {
			return nil, err
		}
	}

	if len(made) == 0 {
		return nil, nil
	}
	if err := r.Payments.Save(ctx, t); err != nil {
		return nil, err
	}
	return made, nil
}

// IssueFine raises a penalty that auto-allocation settles first.
// A zero amount uses the default fine.
func (u *Usecase) IssueFine(ctx context.Context, actor member.Actor, userID, loanID string, amount decimal.Decimal, reason string) (*ledger.Fine, error) {
	if !actor.IsStaff() {
		return nil, member.ErrNotStaff
	}
	f, err := ledger.NewFine(id.NewID32(), userID, loanID, amount, reason)
	if err != nil {
		return nil, err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Members.GetByMemberID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return member.ErrNotFound
			}
			return err
		}
		return r.Ledger.CreateFine(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("allocation: fine %s of %s issued to %s", f.FineID, f.Amount.StringFixed(2), userID)
	return f, nil
}

// PendingPayments are completed transactions not yet fully allocated.
func (u *Usecase) PendingPayments(ctx context.Context) ([]TransactionDTO, error) {
	var out []TransactionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ts, err := r.Payments.ListPendingAllocation(ctx)
		if err != nil {
			return err
		}
		out = make([]TransactionDTO, 0, len(ts))
		for i := range ts {
			out = append(out, toTransactionDTO(&ts[i]))
		}
		return nil
	})
	return out, err
}

func (u *Usecase) History(ctx context.Context, userID string) ([]AllocationDTO, error) {
	var out []AllocationDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		as, err := r.Payments.ListAllocationsByUser(ctx, userID)
		if err != nil {
			return err
		}
		out = make([]AllocationDTO, 0, len(as))
		for i := range as {
			out = append(out, toDTO(&as[i]))
		}
		return nil
	})
	return out, err
}
