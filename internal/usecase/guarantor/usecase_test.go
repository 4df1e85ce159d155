package guarantor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/guarantor"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/share"
	"sacco-backend/internal/testutil/dbtest"
	guarantoruc "sacco-backend/internal/usecase/guarantor"
	"sacco-backend/pkg/id"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (r *recorder) Notify(_ context.Context, m notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func setup(t *testing.T) (*gorm.DB, *guarantoruc.Usecase, *recorder) {
	t.Helper()
	db := dbtest.Open(t)
	rec := &recorder{}
	return db, guarantoruc.NewUsecase(gormdb.NewGormUoW(db), rec), rec
}

func holder(t *testing.T, db *gorm.DB, qty int64) member.Actor {
	t.Helper()
	mid := dbtest.Member(t, db, member.RoleMember)
	require.NoError(t, db.Create(&share.Share{
		ShareID:      id.NewID32(),
		UserID:       mid,
		Quantity:     qty,
		AmountPaid:   decimal.NewFromInt(qty * 500),
		PurchaseDate: time.Now().UTC(),
		Status:       share.StatusActive,
	}).Error)
	return member.Actor{ID: mid, Role: member.RoleMember}
}

func pendingLoan(t *testing.T, db *gorm.DB, borrowerID string) *loan.Loan {
	t.Helper()
	l, err := loan.New(id.NewID32(), borrowerID, decimal.NewFromInt(20_000), 6, decimal.NewFromInt(12), "stock")
	require.NoError(t, err)
	require.NoError(t, db.Create(l).Error)
	return l
}

func TestRequestGuarantee_NotifiesGuarantor(t *testing.T) {
	db, uc, rec := setup(t)
	ctx := context.Background()
	b := holder(t, db, 10)
	g := holder(t, db, 10)
	l := pendingLoan(t, db, b.ID)

	p, err := uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 4})
	require.NoError(t, err)
	require.Equal(t, string(guarantor.StatusPending), p.Status)
	require.Equal(t, b.ID, p.BorrowerID)

	require.Len(t, rec.msgs, 1)
	require.Equal(t, g.ID, rec.msgs[0].UserID)
	require.Equal(t, notification.KindGuarantorRequest, rec.msgs[0].Kind)
	require.Equal(t, p.RequestID, rec.msgs[0].Data["request_id"])

	list, err := uc.ListByLoan(ctx, l.LoanID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, p.RequestID, list[0].RequestID)
}

func TestRequestGuarantee_Rules(t *testing.T) {
	db, uc, _ := setup(t)
	ctx := context.Background()
	b := holder(t, db, 10)
	g := holder(t, db, 10)
	l := pendingLoan(t, db, b.ID)

	_, err := uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: id.NewID32(), GuarantorID: g.ID, Shares: 1})
	require.ErrorIs(t, err, loan.ErrNotFound)

	_, err = uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 0})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: id.NewID32(), Shares: 1})
	require.ErrorIs(t, err, member.ErrNotFound)

	idle := holder(t, db, 10)
	require.NoError(t, db.Model(&member.Member{}).Where("member_id = ?", idle.ID).Update("active", false).Error)
	_, err = uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: idle.ID, Shares: 1})
	require.ErrorIs(t, err, member.ErrInactive)

	require.NoError(t, db.Model(&loan.Loan{}).Where("loan_id = ?", l.LoanID).Update("state", loan.StateActive).Error)
	_, err = uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 1})
	require.ErrorIs(t, err, loan.ErrInvalidTransition)
}

func TestRespond_AcceptReservesShares(t *testing.T) {
	db, uc, rec := setup(t)
	ctx := context.Background()
	b := holder(t, db, 10)
	g := holder(t, db, 10)
	l := pendingLoan(t, db, b.ID)

	p, err := uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 7})
	require.NoError(t, err)

	_, err = uc.Respond(ctx, g, p.RequestID, "maybe")
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = uc.Respond(ctx, g, id.NewID32(), "accepted")
	require.ErrorIs(t, err, guarantor.ErrNotFound)

	got, err := uc.Respond(ctx, g, p.RequestID, " Accepted ")
	require.NoError(t, err)
	require.Equal(t, string(guarantor.StatusAccepted), got.Status)
	require.NotNil(t, got.RespondedAt)

	av, err := uc.AvailableShares(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), av.ActiveShares)
	require.Equal(t, int64(7), av.PledgedShares)
	require.Equal(t, int64(3), av.AvailableShares)

	require.Len(t, rec.msgs, 2)
	require.Equal(t, b.ID, rec.msgs[1].UserID)
	require.Equal(t, notification.KindGuarantorAnswered, rec.msgs[1].Kind)

	pending, err := uc.PendingRequests(ctx, g.ID)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRespond_RejectLeavesSharesFree(t *testing.T) {
	db, uc, _ := setup(t)
	ctx := context.Background()
	b := holder(t, db, 10)
	g := holder(t, db, 2)
	l := pendingLoan(t, db, b.ID)

	p, err := uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 5})
	require.NoError(t, err)

	_, err = uc.Respond(ctx, g, p.RequestID, "accepted")
	require.ErrorIs(t, err, errs.ErrInsufficientShares)

	got, err := uc.Respond(ctx, g, p.RequestID, "rejected")
	require.NoError(t, err)
	require.Equal(t, string(guarantor.StatusRejected), got.Status)

	av, err := uc.AvailableShares(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), av.AvailableShares)
}

func TestRespond_ClosedLoanTakesNoAcceptance(t *testing.T) {
	db, uc, _ := setup(t)
	ctx := context.Background()
	b := holder(t, db, 10)
	g := holder(t, db, 10)
	l := pendingLoan(t, db, b.ID)

	p, err := uc.RequestGuarantee(ctx, b, guarantoruc.RequestInput{LoanID: l.LoanID, GuarantorID: g.ID, Shares: 3})
	require.NoError(t, err)
	require.NoError(t, db.Model(&loan.Loan{}).Where("loan_id = ?", l.LoanID).Update("state", loan.StateCancelled).Error)

	_, err = uc.Respond(ctx, g, p.RequestID, "accepted")
	require.ErrorIs(t, err, guarantor.ErrLoanClosed)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	av, err := uc.AvailableShares(ctx, g.ID)
	require.NoError(t, err)
	require.Zero(t, av.PledgedShares)

	got, err := uc.Respond(ctx, g, p.RequestID, "rejected")
	require.NoError(t, err)
	require.Equal(t, string(guarantor.StatusRejected), got.Status)
}
