package http

import (
	stdhttp "net/http"
	"testing"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/loan"
	loanuc "sacco-backend/internal/usecase/loan"
)

func TestLoanLifecycle_BelowThreshold(t *testing.T) {
	a := newAPI(t)
	b := a.member(100)

	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "30000", "repayment_months": 6, "purpose": "stock"}, &l), stdhttp.StatusCreated)
	if l.State != string(loan.StatePending) {
		t.Fatalf("state = %s", l.State)
	}

	var d loanuc.DecisionDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &a.staff[0], map[string]any{}, &d), stdhttp.StatusOK)
	if d.PendingAction != nil || d.Loan.State != string(loan.StateApproved) {
		t.Fatalf("expected direct approval, got %+v", d)
	}
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/disburse", &a.staff[0], nil, &d), stdhttp.StatusOK)
	if d.Loan.State != string(loan.StateActive) {
		t.Fatalf("state = %s", d.Loan.State)
	}

	var sched struct {
		Installments []loan.Installment `json:"installments"`
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/loans/"+l.LoanID+"/schedule", &b, nil, &sched), stdhttp.StatusOK)
	if len(sched.Installments) != 6 {
		t.Fatalf("installments = %d, want 6", len(sched.Installments))
	}

	var rp loanuc.RepaymentDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/repayments", &b, map[string]any{"amount": "30000"}, &rp), stdhttp.StatusCreated)
	if rp.LoanState != string(loan.StateCompleted) {
		t.Fatalf("loan state after full repay = %s", rp.LoanState)
	}
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/repayments", &b, map[string]any{"amount": "10"}, nil), stdhttp.StatusConflict)
}

func TestLoanApprove_AboveThresholdNeedsVotes(t *testing.T) {
	a := newAPI(t)
	b := a.member(100)

	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "80000", "repayment_months": 12}, &l), stdhttp.StatusCreated)

	var d loanuc.DecisionDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &a.staff[0], map[string]any{"reason": "large"}, &d), stdhttp.StatusOK)
	if d.PendingAction == nil || d.PendingAction.ActionType != string(action.TypeApproveLoan) {
		t.Fatalf("expected pending APPROVE_LOAN, got %+v", d)
	}
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &a.staff[1], nil, nil), stdhttp.StatusConflict)

	path := "/api/v1/actions/" + d.PendingAction.ActionID + "/votes"
	for _, s := range a.staff {
		a.expect(a.do(stdhttp.MethodPost, path, &s, map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusOK)
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/loans/"+l.LoanID, &b, nil, &l), stdhttp.StatusOK)
	if l.State != string(loan.StateApproved) {
		t.Fatalf("state after votes = %s", l.State)
	}
}

func TestLoanHandler_Errors(t *testing.T) {
	a := newAPI(t)
	b := a.member(10)

	// 10 shares allow 15,000
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "20000", "repayment_months": 6}, nil), stdhttp.StatusBadRequest)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "0", "repayment_months": 6}, nil), stdhttp.StatusUnprocessableEntity)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "100", "repayment_months": 0}, nil), stdhttp.StatusUnprocessableEntity)

	rec := a.do(stdhttp.MethodPost, "/api/v1/loans", &b, nil, nil)
	if rec.Code == stdhttp.StatusCreated {
		t.Fatalf("empty body must not create a loan")
	}

	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "5000", "repayment_months": 6}, &l), stdhttp.StatusCreated)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &b, nil, nil), stdhttp.StatusForbidden)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/missing/approve", &a.staff[0], nil, nil), stdhttp.StatusNotFound)
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/loans/"+l.LoanID+"/schedule", &b, nil, nil), stdhttp.StatusConflict)

	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/cancel", &b, nil, &l), stdhttp.StatusOK)
	if l.State != string(loan.StateCancelled) {
		t.Fatalf("state = %s", l.State)
	}
}
