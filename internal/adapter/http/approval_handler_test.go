package http

import (
	stdhttp "net/http"
	"testing"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/testutil/dbtest"
	"sacco-backend/internal/usecase/approval"
	loanuc "sacco-backend/internal/usecase/loan"
)

// pendingApproval opens an APPROVE_LOAN action on a fresh 80,000 loan.
func pendingApproval(a *api) string {
	a.t.Helper()
	b := a.member(100)
	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "80000", "repayment_months": 12}, &l), stdhttp.StatusCreated)
	var d loanuc.DecisionDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &a.staff[0], nil, &d), stdhttp.StatusOK)
	return d.PendingAction.ActionID
}

func TestVote_DuplicateVoterConflicts(t *testing.T) {
	a := newAPI(t)
	actionID := pendingApproval(a)
	path := "/api/v1/actions/" + actionID + "/votes"

	var dto approval.ActionDTO
	a.expect(a.do(stdhttp.MethodPost, path, &a.staff[0], map[string]any{"decision": "APPROVED", "comment": "ok"}, &dto), stdhttp.StatusOK)
	if dto.ApprovalCount != 1 || dto.Status != string(action.StatusPending) {
		t.Fatalf("unexpected action after one vote: %+v", dto)
	}
	a.expect(a.do(stdhttp.MethodPost, path, &a.staff[0], map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusConflict)
}

func TestVote_Validation(t *testing.T) {
	a := newAPI(t)
	actionID := pendingApproval(a)
	path := "/api/v1/actions/" + actionID + "/votes"

	rec := a.do(stdhttp.MethodPost, path, &a.staff[0], map[string]any{"decision": "MAYBE"}, nil)
	a.expect(rec, stdhttp.StatusUnprocessableEntity)

	b := a.member(0)
	a.expect(a.do(stdhttp.MethodPost, path, &b, map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusForbidden)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/actions/nope/votes", &a.staff[0], map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusNotFound)
}

func TestVote_RejectionClosesAction(t *testing.T) {
	a := newAPI(t)
	actionID := pendingApproval(a)
	path := "/api/v1/actions/" + actionID + "/votes"

	var dto approval.ActionDTO
	for _, s := range a.staff {
		a.expect(a.do(stdhttp.MethodPost, path, &s, map[string]any{"decision": "REJECTED", "comment": "no collateral"}, &dto), stdhttp.StatusOK)
	}
	if dto.Status != string(action.StatusRejected) || dto.RejectionCount != 2 {
		t.Fatalf("unexpected action after two rejections: %+v", dto)
	}
	late := member.Actor{ID: dbtest.Member(t, a.db, member.RoleStaff), Role: member.RoleStaff}
	a.expect(a.do(stdhttp.MethodPost, path, &late, map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusConflict)
}

func TestListPending(t *testing.T) {
	a := newAPI(t)
	actionID := pendingApproval(a)

	var out struct {
		Actions []approval.ActionDTO `json:"actions"`
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/actions/pending", &a.staff[1], nil, &out), stdhttp.StatusOK)
	if len(out.Actions) != 1 || out.Actions[0].ActionID != actionID {
		t.Fatalf("pending = %+v", out.Actions)
	}

	b := a.member(0)
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/actions/pending", &b, nil, nil), stdhttp.StatusForbidden)

	a.expect(a.do(stdhttp.MethodGet, "/api/v1/actions/"+actionID, &b, nil, nil), stdhttp.StatusForbidden)
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/actions/"+actionID, nil, nil, nil), stdhttp.StatusUnauthorized)

	var one approval.ActionDTO
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/actions/"+actionID, &a.staff[0], nil, &one), stdhttp.StatusOK)
	if one.ActionID != actionID {
		t.Fatalf("get returned %s", one.ActionID)
	}
}
