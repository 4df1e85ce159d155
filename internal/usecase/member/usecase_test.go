package member_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sacco-backend/internal/adapter/notify"
	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/testutil/dbtest"
	"sacco-backend/internal/usecase/approval"
	memberuc "sacco-backend/internal/usecase/member"
)

type env struct {
	db        *gorm.DB
	approvals *approval.Usecase
	members   *memberuc.Usecase
	staff     []member.Actor
}

func newEnv(t *testing.T, p policy.Policy) *env {
	t.Helper()
	db := dbtest.Open(t)
	tx := gormdb.NewGormUoW(db)
	inbox := notify.NewInApp(gormdb.NewNotificationRepository(db))
	e := &env{db: db, approvals: approval.NewUsecase(tx, p, inbox)}
	e.members = memberuc.NewUsecase(tx, e.approvals, p, inbox)
	for i := 0; i < 2; i++ {
		e.staff = append(e.staff, member.Actor{ID: dbtest.Member(t, db, member.RoleStaff), Role: member.RoleStaff})
	}
	return e
}

func TestRegister(t *testing.T) {
	e := newEnv(t, policy.Default())
	ctx := context.Background()

	m, err := e.members.Register(ctx, memberuc.RegisterInput{FullName: "  Jane Wanjiku ", Email: "Jane@Example.com", PhoneNumber: "254711000111"})
	require.NoError(t, err)
	require.Equal(t, "Jane Wanjiku", m.FullName)
	require.Equal(t, "jane@example.com", m.Email)
	require.False(t, m.Active)
	require.Equal(t, string(member.RoleMember), m.Role)

	got, err := e.members.Get(ctx, m.MemberID)
	require.NoError(t, err)
	require.Equal(t, m.MemberID, got.MemberID)

	_, err = e.members.Register(ctx, memberuc.RegisterInput{FullName: " "})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = e.members.Get(ctx, "missing")
	require.ErrorIs(t, err, member.ErrNotFound)
}

func TestApprove_DirectWhenWorkflowOff(t *testing.T) {
	p := policy.Default()
	p.MemberApprovalWorkflow = false
	e := newEnv(t, p)
	ctx := context.Background()
	m, err := e.members.Register(ctx, memberuc.RegisterInput{FullName: "Otieno"})
	require.NoError(t, err)

	out, err := e.members.Approve(ctx, e.staff[0], m.MemberID, "")
	require.NoError(t, err)
	require.Nil(t, out.PendingAction)
	require.True(t, out.Member.Active)
	require.NotNil(t, out.Member.ActivatedAt)

	_, err = e.members.Approve(ctx, e.staff[0], m.MemberID, "")
	require.ErrorIs(t, err, member.ErrAlreadyActive)

	unread, err := gormdb.NewNotificationRepository(e.db).CountUnread(ctx, m.MemberID)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)
}

func TestApprove_WorkflowOpensAction(t *testing.T) {
	e := newEnv(t, policy.Default())
	ctx := context.Background()
	m, err := e.members.Register(ctx, memberuc.RegisterInput{FullName: "Achieng"})
	require.NoError(t, err)

	out, err := e.members.Approve(ctx, e.staff[0], m.MemberID, "documents checked")
	require.NoError(t, err)
	require.NotNil(t, out.PendingAction)
	require.False(t, out.Member.Active)
	require.Equal(t, string(action.TypeApproveMember), out.PendingAction.ActionType)

	_, err = e.members.Approve(ctx, e.staff[1], m.MemberID, "")
	require.ErrorIs(t, err, action.ErrAlreadyPending)

	for _, s := range e.staff {
		_, err = e.approvals.Vote(ctx, approval.VoteInput{ActionID: out.PendingAction.ActionID, Verifier: s, Decision: "APPROVED"})
		require.NoError(t, err)
	}
	got, err := e.members.Get(ctx, m.MemberID)
	require.NoError(t, err)
	require.True(t, got.Active)
}

func TestApprove_Rules(t *testing.T) {
	e := newEnv(t, policy.Default())
	ctx := context.Background()

	_, err := e.members.Approve(ctx, member.Actor{ID: "m", Role: member.RoleMember}, "x", "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = e.members.Approve(ctx, e.staff[0], "missing", "")
	require.ErrorIs(t, err, member.ErrNotFound)
}
