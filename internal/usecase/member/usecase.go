package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/internal/usecase/approval"
	"sacco-backend/pkg/id"

	"gorm.io/gorm"
)

var ErrNameRequired = fmt.Errorf("full name is required: %w", errs.ErrValidation)

// Approvals is the part of the workflow engine member activation needs.
type Approvals interface {
	InitiateIn(ctx context.Context, r uow.Repos, cmd action.Command, reason, initiator string) (*action.PendingAction, error)
}

type Usecase struct {
	uow       uow.UnitOfWork
	approvals Approvals
	policy    policy.Policy
	notifier  notification.Notifier
	now       func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, a Approvals, p policy.Policy, n notification.Notifier) *Usecase {
	if n == nil {
		n = notification.Discard{}
	}
	return &Usecase{
		uow:       tx,
		approvals: a,
		policy:    p,
		notifier:  n,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an inactive member.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*MemberDTO, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, ErrNameRequired
	}
	m := &member.Member{
		MemberID:    id.NewID32(),
		FullName:    name,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        member.RoleMember,
	}
	if err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Members.Create(ctx, m)
	}); err != nil {
		return nil, err
	}
	return toDTO(m), nil
}

// Approve activates a member, behind an APPROVE_MEMBER vote when the workflow is on.
func (u *Usecase) Approve(ctx context.Context, actor member.Actor, memberID, reason string) (*ApprovalDTO, error) {
	if !actor.IsStaff() {
		return nil, member.ErrNotStaff
	}
	var (
		out    ApprovalDTO
		notice *notification.Message
	)
	err := u.uow.WithinGuarantorTx(ctx, memberID, func(r uow.Repos, m *member.Member) error {
		if m.Active {
			return member.ErrAlreadyActive
		}
		if u.policy.MemberApprovalWorkflow && u.approvals != nil {
			a, err := u.approvals.InitiateIn(ctx, r, action.ApproveMember{MemberID: m.MemberID}, reason, actor.ID)
			if err != nil {
				return err
			}
			out = ApprovalDTO{Member: toDTO(m), PendingAction: approval.ToDTO(a)}
			return nil
		}

		if err := m.Activate(u.now()); err != nil {
			return err
		}
		if err := r.Members.Save(ctx, m); err != nil {
			return err
		}
		notice = &notification.Message{
			UserID: m.MemberID,
			Kind:   notification.KindMemberActivated,
			Title:  "Membership approved",
			Body:   "Your membership is now active.",
		}
		out = ApprovalDTO{Member: toDTO(m)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notice != nil {
		u.notifier.Notify(ctx, *notice)
	}
	return &out, nil
}

func (u *Usecase) Get(ctx context.Context, memberID string) (*MemberDTO, error) {
	var out *MemberDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.GetByMemberID(ctx, memberID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member.ErrNotFound
		}
		if err != nil {
			return err
		}
		out = toDTO(m)
		return nil
	})
	return out, err
}
