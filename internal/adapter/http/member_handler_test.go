package http

import (
	stdhttp "net/http"
	"testing"

	"sacco-backend/internal/usecase/inbox"
	loanuc "sacco-backend/internal/usecase/loan"
	memberuc "sacco-backend/internal/usecase/member"
)

func TestMember_RegisterAndApprove(t *testing.T) {
	a := newAPI(t)

	var m memberuc.MemberDTO
	a.expect(a.do(stdhttp.MethodPost, "/members", nil, map[string]any{"full_name": "Mary Njeri", "phone_number": "254722000000"}, &m), stdhttp.StatusCreated)
	if m.Active {
		t.Fatalf("new member must start inactive")
	}
	a.expect(a.do(stdhttp.MethodPost, "/members", nil, map[string]any{"full_name": "X", "phone_number": "1", "email": "nope"}, nil), stdhttp.StatusUnprocessableEntity)

	var out memberuc.ApprovalDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/members/"+m.MemberID+"/approve", &a.staff[0], nil, &out), stdhttp.StatusOK)
	if out.PendingAction == nil {
		t.Fatalf("member approval should open a vote by default")
	}
	for _, s := range a.staff {
		a.expect(a.do(stdhttp.MethodPost, "/api/v1/actions/"+out.PendingAction.ActionID+"/votes", &s, map[string]any{"decision": "APPROVED"}, nil), stdhttp.StatusOK)
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/members/"+m.MemberID, &a.staff[0], nil, &m), stdhttp.StatusOK)
	if !m.Active {
		t.Fatalf("member not active after votes")
	}
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/members/"+m.MemberID+"/approve", &a.staff[0], nil, nil), stdhttp.StatusConflict)
}

func TestNotifications(t *testing.T) {
	a := newAPI(t)
	b := a.member(100)

	var l loanuc.LoanDTO
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans", &b, map[string]any{"amount": "1000", "repayment_months": 2}, &l), stdhttp.StatusCreated)
	a.expect(a.do(stdhttp.MethodPost, "/api/v1/loans/"+l.LoanID+"/approve", &a.staff[0], nil, nil), stdhttp.StatusOK)

	var unread map[string]int64
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/me/notifications/unread-count", &b, nil, &unread), stdhttp.StatusOK)
	if unread["unread"] != 1 {
		t.Fatalf("unread = %v", unread)
	}

	var list struct {
		Notifications []inbox.NotificationDTO `json:"notifications"`
	}
	a.expect(a.do(stdhttp.MethodGet, "/api/v1/me/notifications?limit=5", &b, nil, &list), stdhttp.StatusOK)
	if len(list.Notifications) != 1 {
		t.Fatalf("notifications = %d", len(list.Notifications))
	}
	path := "/api/v1/me/notifications/" + list.Notifications[0].NotificationID + "/read"
	a.expect(a.do(stdhttp.MethodPost, path, &b, nil, nil), stdhttp.StatusNoContent)
	a.expect(a.do(stdhttp.MethodPost, path, &a.staff[0], nil, nil), stdhttp.StatusNotFound)

	a.expect(a.do(stdhttp.MethodGet, "/api/v1/me/notifications/unread-count", &b, nil, &unread), stdhttp.StatusOK)
	if unread["unread"] != 0 {
		t.Fatalf("unread after mark = %v", unread)
	}
}
