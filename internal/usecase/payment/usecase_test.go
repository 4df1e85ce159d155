package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/loan"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/payment"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/testutil/dbtest"
	"sacco-backend/internal/usecase/allocation"
	paymentuc "sacco-backend/internal/usecase/payment"
	"sacco-backend/pkg/id"
)

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) InitiateStkPush(_ context.Context, phone string, _ decimal.Decimal, reference, _ string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "ws_CO_" + reference, nil
}

func setup(t *testing.T, gw payment.Gateway) (*gorm.DB, *paymentuc.Usecase, member.Actor) {
	t.Helper()
	db := dbtest.Open(t)
	tx := gormdb.NewGormUoW(db)
	uc := paymentuc.NewUsecase(tx, gw, allocation.NewUsecase(tx, policy.Default()), nil)
	who := member.Actor{ID: dbtest.Member(t, db, member.RoleMember), Role: member.RoleMember}
	return db, uc, who
}

func initiate(t *testing.T, uc *paymentuc.Usecase, who member.Actor, amount int64, category, target string) *paymentuc.TransactionDTO {
	t.Helper()
	dto, err := uc.Initiate(context.Background(), who, paymentuc.InitiateInput{
		UserID: who.ID, Amount: decimal.NewFromInt(amount), Category: category, TargetID: target,
	})
	require.NoError(t, err)
	return dto
}

func TestInitiate_RecordsExternalID(t *testing.T) {
	gw := &fakeGateway{}
	_, uc, who := setup(t, gw)

	dto := initiate(t, uc, who, 1_500, "savings", "")
	require.Equal(t, string(payment.StatusPending), dto.Status)
	require.Regexp(t, `^TRX-[A-F0-9]{8}$`, dto.Reference)
	require.Equal(t, "ws_CO_"+dto.Reference, dto.ExternalID)
	require.Equal(t, 1, gw.calls)
}

func TestInitiate_GatewayFailureMarksFailed(t *testing.T) {
	gw := &fakeGateway{err: errors.New("provider down")}
	db, uc, who := setup(t, gw)

	_, err := uc.Initiate(context.Background(), who, paymentuc.InitiateInput{UserID: who.ID, Amount: decimal.NewFromInt(100), Category: "deposit"})
	require.ErrorIs(t, err, errs.ErrUnavailable)

	var tx payment.Transaction
	require.NoError(t, db.Where("user_id = ?", who.ID).First(&tx).Error)
	require.Equal(t, payment.StatusFailed, tx.Status)

	_, err = uc.Complete(context.Background(), tx.Reference)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestInitiate_Validation(t *testing.T) {
	_, uc, who := setup(t, nil)
	ctx := context.Background()

	_, err := uc.Initiate(ctx, who, paymentuc.InitiateInput{UserID: who.ID, Amount: decimal.NewFromInt(100), Category: "gift"})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = uc.Initiate(ctx, who, paymentuc.InitiateInput{UserID: who.ID, Amount: decimal.Zero, Category: "deposit"})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = uc.Initiate(ctx, member.Actor{ID: "x"}, paymentuc.InitiateInput{UserID: who.ID, Amount: decimal.NewFromInt(1), Category: "deposit"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = uc.Initiate(ctx, member.Actor{ID: "x"}, paymentuc.InitiateInput{UserID: "x", Amount: decimal.NewFromInt(1), Category: "deposit"})
	require.ErrorIs(t, err, member.ErrNotFound)
}

func TestComplete_SavingsIsAllocatedAndIdempotent(t *testing.T) {
	db, uc, who := setup(t, nil)
	ctx := context.Background()
	dto := initiate(t, uc, who, 1_500, "savings", "")

	done, err := uc.Complete(ctx, dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusAllocated), done.Status)
	require.False(t, done.Replayed)

	again, err := uc.Complete(ctx, dto.Reference)
	require.NoError(t, err)
	require.True(t, again.Replayed)

	total, err := gormdb.NewLedgerRepository(db).SumSavingsByUser(ctx, who.ID)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(1_500)), "savings %s", total)
}

func TestComplete_LoanRepaymentReducesBalance(t *testing.T) {
	db, uc, who := setup(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()
	l, err := loan.New(id.NewID32(), who.ID, decimal.NewFromInt(10_000), 6, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.NoError(t, l.Approve(now))
	require.NoError(t, l.Disburse(now))
	require.NoError(t, db.Create(l).Error)

	dto := initiate(t, uc, who, 4_000, "loan_repayment", l.LoanID)
	done, err := uc.Complete(ctx, dto.Reference)
	require.NoError(t, err)
	require.True(t, done.Unallocated.IsZero())

	got, err := gormdb.NewLoanRepository(db).GetByLoanID(ctx, l.LoanID)
	require.NoError(t, err)
	require.True(t, got.BalanceRemaining.Equal(decimal.NewFromInt(6_000)))
}

func TestComplete_InactiveLoanLeavesMoneyUnallocated(t *testing.T) {
	db, uc, who := setup(t, nil)
	ctx := context.Background()
	l, err := loan.New(id.NewID32(), who.ID, decimal.NewFromInt(10_000), 6, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.NoError(t, db.Create(l).Error)

	dto := initiate(t, uc, who, 4_000, "loan_repayment", l.LoanID)
	done, err := uc.Complete(ctx, dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusCompleted), done.Status)
	require.True(t, done.Unallocated.Equal(decimal.NewFromInt(4_000)))
}

func TestComplete_RegistrationMarksMember(t *testing.T) {
	db, uc, who := setup(t, nil)
	ctx := context.Background()
	dto := initiate(t, uc, who, 1_000, "registration", "")

	done, err := uc.Complete(ctx, dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusAllocated), done.Status)

	var m member.Member
	require.NoError(t, db.Where("member_id = ?", who.ID).First(&m).Error)
	require.True(t, m.RegistrationPaid)
}

func TestComplete_DepositWaitsForAutoAllocation(t *testing.T) {
	_, uc, who := setup(t, nil)
	dto := initiate(t, uc, who, 700, "deposit", "")

	done, err := uc.Complete(context.Background(), dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusCompleted), done.Status)
	require.True(t, done.Unallocated.Equal(decimal.NewFromInt(700)))
}

func TestFailAndGet(t *testing.T) {
	_, uc, who := setup(t, nil)
	ctx := context.Background()
	dto := initiate(t, uc, who, 700, "deposit", "")

	failed, err := uc.Fail(ctx, dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusFailed), failed.Status)
	again, err := uc.Fail(ctx, dto.Reference)
	require.NoError(t, err)
	require.True(t, again.Replayed)

	got, err := uc.Get(ctx, dto.Reference)
	require.NoError(t, err)
	require.Equal(t, string(payment.StatusFailed), got.Status)

	_, err = uc.Get(ctx, "TRX-NOPE")
	require.ErrorIs(t, err, payment.ErrNotFound)
}
