package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/internal/testutil/actionmock"
	"sacco-backend/internal/testutil/uowmock"
	"sacco-backend/pkg/retry"
)

// mockVote wires a usecase over actionmock whose Save fails with
// ErrStaleVersion for the first staleSaves calls.
func mockVote(staleSaves int) (*Usecase, *actionmock.Repo, *int) {
	saves := 0
	repo := &actionmock.Repo{
		GetByActionIDForUpdateFn: func(context.Context, string) (*action.PendingAction, error) {
			a := action.New("AC-1", action.ApproveLoan{LoanID: "LN-1"}, "", "S0", 2)
			a.ID = 7
			return a, nil
		},
		SaveFn: func(context.Context, *action.PendingAction) error {
			saves++
			if saves <= staleSaves {
				return action.ErrStaleVersion
			}
			return nil
		},
	}
	repo.GetByActionIDFn = func(ctx context.Context, id string) (*action.PendingAction, error) {
		a, _ := repo.GetByActionIDForUpdateFn(ctx, id)
		a.ApprovalCount = 1
		return a, nil
	}
	u := NewUsecase(uowmock.Passthrough(uow.Repos{Actions: repo}), policy.Default(), nil)
	u.retry = retry.Policy{ConflictAttempts: 3, MaxElapsed: time.Second, InitialInterval: time.Millisecond}
	return u, repo, &saves
}

func TestVote_RetriesStaleVersion(t *testing.T) {
	u, _, saves := mockVote(1)
	staff := member.Actor{ID: "S1", Role: member.RoleStaff}

	dto, err := u.Vote(context.Background(), VoteInput{ActionID: "AC-1", Verifier: staff, Decision: "APPROVED"})
	require.NoError(t, err)
	require.Equal(t, 2, *saves)
	require.Equal(t, 1, dto.ApprovalCount)
	require.Equal(t, string(action.StatusPending), dto.Status)
}

func TestVote_GivesUpAfterRepeatedConflicts(t *testing.T) {
	u, _, saves := mockVote(10)
	staff := member.Actor{ID: "S1", Role: member.RoleStaff}

	_, err := u.Vote(context.Background(), VoteInput{ActionID: "AC-1", Verifier: staff, Decision: "APPROVED"})
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Equal(t, 3, *saves)
}

func TestVote_DuplicateVoterNeverWrites(t *testing.T) {
	u, repo, saves := mockVote(0)
	wrote := false
	repo.HasVerificationFn = func(_ context.Context, pendingID uint64, verifier string) (bool, error) {
		require.Equal(t, uint64(7), pendingID)
		return verifier == "S1", nil
	}
	repo.AddVerificationFn = func(context.Context, *action.Verification) error {
		wrote = true
		return nil
	}

	_, err := u.Vote(context.Background(), VoteInput{ActionID: "AC-1", Verifier: member.Actor{ID: "S1", Role: member.RoleStaff}, Decision: "REJECTED"})
	require.ErrorIs(t, err, action.ErrAlreadyVoted)
	require.False(t, wrote)
	require.Zero(t, *saves)
}
