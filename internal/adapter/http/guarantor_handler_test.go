package http

import (
	stdhttp "net/http"
	"testing"

	"sacco-backend/internal/domain/guarantor"
	guarantoruc "sacco-backend/internal/usecase/guarantor"
	loanuc "sacco-backend/internal/usecase/loan"
)

func TestGuarantor_RequestAndRespond(t *testing.T) {
	a := newAPI(t)
	b := a.member(100)
	g := a.member(10)

	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "60000", "repayment_months": 12}, &l), stdhttp.StatusCreated)

	var p guarantoruc.PledgeDTO
	path := "/api/v1/loans/" + l.LoanID + "/guarantors"
	a.expect(a.do(stdhttp.MethodPost, path, &b, map[string]any{"guarantor_id": g.ID, "shares": 10}, &p), stdhttp.StatusCreated)
	a.expect(a.do(stdhttp.MethodPost, path, &b, map[string]any{"guarantor_id": b.ID, "shares": 1}, nil), stdhttp.StatusUnprocessableEntity)
	a.expect(a.do(stdhttp.MethodPost, path, &b, map[string]any{"guarantor_id": "bad", "shares": 1}, nil), stdhttp.StatusUnprocessableEntity)

	var inbox struct {
		Requests     []guarantoruc.PledgeDTO     `json:"requests"`
		Availability guarantoruc.AvailabilityDTO `json:"availability"`
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/me/guarantor-requests", &g, nil, &inbox), stdhttp.StatusOK)
	if len(inbox.Requests) != 1 || inbox.Availability.AvailableShares != 10 {
		t.Fatalf("inbox = %+v", inbox)
	}

	respond := "/api/v1/guarantor-requests/" + p.RequestID + "/respond"
	a.expect(a.do(stdhttp.MethodPost, respond, &b, map[string]any{"decision": "accepted"}, nil), stdhttp.StatusForbidden)
	a.expect(a.do(stdhttp.MethodPost, respond, &g, map[string]any{"decision": "accepted"}, &p), stdhttp.StatusOK)
	if p.Status != string(guarantor.StatusAccepted) {
		t.Fatalf("status = %s", p.Status)
	}
	a.expect(a.do(stdhttp.MethodPost, respond, &g, map[string]any{"decision": "rejected"}, nil), stdhttp.StatusConflict)

	var list struct {
		Guarantors []guarantoruc.PledgeDTO `json:"guarantors"`
	}
	a.expect(a.do(stdhttp.MethodGet, path, &b, nil, &list), stdhttp.StatusOK)
	if len(list.Guarantors) != 1 {
		t.Fatalf("guarantors = %d", len(list.Guarantors))
	}
}

func TestGuarantor_InsufficientShares(t *testing.T) {
	a := newAPI(t)
	g := a.member(10)

	var requests []string
	for i := 0; i < 2; i++ {
		b := a.member(100)
		var l loanuc.LoanDTO
		a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "60000", "repayment_months": 12}, &l), stdhttp.StatusCreated)
		var p guarantoruc.PledgeDTO
		a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/guarantors", &b, map[string]any{"guarantor_id": g.ID, "shares": 10}, &p), stdhttp.StatusCreated)
		requests = append(requests, p.RequestID)
	}

	a.expect(a.do(stdhttp.MethodPost, "/api/v1/guarantor-requests/"+requests[0]+"/respond", &g, map[string]any{"decision": "accepted"}, nil), stdhttp.StatusOK)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/guarantor-requests/"+requests[1]+"/respond", &g, map[string]any{"decision": "accepted"}, nil), stdhttp.StatusUnprocessableEntity)
}
