package action

import (
	"context"
	"fmt"
)

type Type string

const (
	TypeApproveLoan   Type = "APPROVE_LOAN"
	TypeApproveMember Type = "APPROVE_MEMBER"
	TypeDisburseLoan  Type = "DISBURSE_LOAN"
)

// Handler has one method per Command variant. A new variant cannot be added without
// every Handler implementation growing the matching method.
type Handler interface {
	ApproveLoan(ctx context.Context, c ApproveLoan) error
	ApproveMember(ctx context.Context, c ApproveMember) error
	DisburseLoan(ctx context.Context, c DisburseLoan) error
}

// Command is the closed set of mutations a PendingAction can gate.
type Command interface {
	Type() Type
	EntityType() string
	EntityID() string
	Dispatch(ctx context.Context, h Handler) error
	sealed()
}

type ApproveLoan struct{ LoanID string }

func (ApproveLoan) Type() Type                                      { return TypeApproveLoan }
func (ApproveLoan) EntityType() string                              { return "loan" }
func (c ApproveLoan) EntityID() string                              { return c.LoanID }
func (c ApproveLoan) Dispatch(ctx context.Context, h Handler) error { return h.ApproveLoan(ctx, c) }
func (ApproveLoan) sealed()                                         {}

type ApproveMember struct{ MemberID string }

func (ApproveMember) Type() Type                                      { return TypeApproveMember }
func (ApproveMember) EntityType() string                              { return "member" }
func (c ApproveMember) EntityID() string                              { return c.MemberID }
func (c ApproveMember) Dispatch(ctx context.Context, h Handler) error { return h.ApproveMember(ctx, c) }
func (ApproveMember) sealed()                                         {}

type DisburseLoan struct{ LoanID string }

func (DisburseLoan) Type() Type                                      { return TypeDisburseLoan }
func (DisburseLoan) EntityType() string                              { return "loan" }
func (c DisburseLoan) EntityID() string                              { return c.LoanID }
func (c DisburseLoan) Dispatch(ctx context.Context, h Handler) error { return h.DisburseLoan(ctx, c) }
func (DisburseLoan) sealed()                                         {}

// Decode maps a persisted action type back to its variant. Unknown types fail loudly so a
// completed vote can never end without an effect.
func Decode(t Type, entityID string) (Command, error) {
	switch t {
	case TypeApproveLoan:
		return ApproveLoan{LoanID: entityID}, nil
	case TypeApproveMember:
		return ApproveMember{MemberID: entityID}, nil
	case TypeDisburseLoan:
		return DisburseLoan{LoanID: entityID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, t)
}
