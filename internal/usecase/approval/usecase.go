package approval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/domain/policy"
	"sacco-backend/internal/domain/uow"
	"sacco-backend/pkg/id"
	"sacco-backend/pkg/retry"

	"gorm.io/gorm"
)

type Usecase struct {
	uow      uow.UnitOfWork
	policy   policy.Policy
	notifier notification.Notifier
	retry    retry.Policy
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, p policy.Policy, n notification.Notifier) *Usecase {
	if n == nil {
		n = notification.Discard{}
	}
	return &Usecase{
		uow:      tx,
		policy:   p,
		notifier: n,
		retry:    retry.Default,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a pending action on behalf of a staff member.
func (u *Usecase) Initiate(ctx context.Context, actor member.Actor, cmd action.Command, reason string) (*ActionDTO, error) {
	if !actor.IsStaff() {
		return nil, action.ErrNotStaff
	}
	var dto *ActionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := u.InitiateIn(ctx, r, cmd, reason, actor.ID)
		if err != nil {
			return err
		}
		dto = ToDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// InitiateIn creates the action inside the caller's transaction, so the caller's
// own checks and the new action commit together.
func (u *Usecase) InitiateIn(ctx context.Context, r uow.Repos, cmd action.Command, reason, initiator string) (*action.PendingAction, error) {
	existing, err := r.Actions.FindPending(ctx, cmd.Type(), cmd.EntityID())
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", action.ErrAlreadyPending, existing.ActionID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	a := action.New(id.NewID32(), cmd, reason, initiator, u.policy.RequiredApprovals)
	if err := r.Actions.Create(ctx, a); err != nil {
		return nil, err
	}
	log.Printf("approval: %s %s for %s awaiting %d votes", a.ActionID, a.ActionType, a.EntityID, a.RequiredApprovals)
	return a, nil
}

// Vote records one verifier's decision. The vote, the counters and, on the
// transition into APPROVED, the execution of the action commit as one unit.
func (u *Usecase) Vote(ctx context.Context, in VoteInput) (*ActionDTO, error) {
	if !in.Verifier.IsStaff() {
		return nil, action.ErrNotStaff
	}
	d, err := action.ParseDecision(in.Decision)
	if err != nil {
		return nil, err
	}

	var (
		dto    *ActionDTO
		outbox []notification.Message
	)
	err = u.retry.Do(ctx, func(ctx context.Context) error {
		outbox = outbox[:0]
		return u.uow.WithinActionTx(ctx, in.ActionID, func(r uow.Repos, a *action.PendingAction) error {
			voted, err := r.Actions.HasVerification(ctx, a.ID, in.Verifier.ID)
			if err != nil {
				return err
			}
			if voted {
				return action.ErrAlreadyVoted
			}
			if a.IsTerminal() {
				return action.ErrNotPending
			}

			now := u.now()
			approved, err := a.Record(d, now)
			if err != nil {
				return err
			}
			v := &action.Verification{
				PendingActionID: a.ID,
				VerifierID:      in.Verifier.ID,
				Decision:        d,
				Comment:         in.Comment,
			}
			if err := r.Actions.AddVerification(ctx, v); err != nil {
				return err
			}
			if err := r.Actions.Save(ctx, a); err != nil {
				return err
			}

			if approved {
				cmd, err := a.Command()
				if err != nil {
					return err
				}
				if err := cmd.Dispatch(ctx, executor{r: r, now: now, out: &outbox}); err != nil {
					return fmt.Errorf("execute %s %s: %w", a.ActionType, a.EntityID, err)
				}
			}
			if a.IsTerminal() {
				outbox = append(outbox, terminalNotice(a))
			}

			fresh, err := r.Actions.GetByActionID(ctx, a.ActionID)
			if err != nil {
				return err
			}
			dto = ToDTO(fresh)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	u.send(ctx, outbox)
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, actionID string) (*ActionDTO, error) {
	var dto *ActionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Actions.GetByActionID(ctx, actionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return action.ErrNotFound
		}
		if err != nil {
			return err
		}
		dto = ToDTO(a)
		return nil
	})
	return dto, err
}

// ListPending returns pending actions with their votes, oldest first.
func (u *Usecase) ListPending(ctx context.Context) ([]ActionDTO, error) {
	var out []ActionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		as, err := r.Actions.ListPending(ctx)
		if err != nil {
			return err
		}
		out = make([]ActionDTO, 0, len(as))
		for i := range as {
			out = append(out, *ToDTO(&as[i]))
		}
		return nil
	})
	return out, err
}

// ExpireStale moves pending actions created more than olderThan ago to EXPIRED.
// Voting never expires an action; only this sweep does.
func (u *Usecase) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = u.policy.ActionTTL
	}
	cutoff := u.now().Add(-olderThan)

	var stale []action.PendingAction
	if err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		stale, err = r.Actions.ListPendingCreatedBefore(ctx, cutoff)
		return err
	}); err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		var notice *notification.Message
		err := u.retry.Do(ctx, func(ctx context.Context) error {
			notice = nil
			return u.uow.WithinActionTx(ctx, s.ActionID, func(r uow.Repos, a *action.PendingAction) error {
				// a vote may have closed it since the listing
				if a.IsTerminal() {
					return nil
				}
				if err := a.Expire(u.now()); err != nil {
					return err
				}
				if err := r.Actions.Save(ctx, a); err != nil {
					return err
				}
				m := terminalNotice(a)
				notice = &m
				return nil
			})
		})
		if err != nil {
			return expired, fmt.Errorf("expire %s: %w", s.ActionID, err)
		}
		if notice != nil {
			expired++
			u.notifier.Notify(ctx, *notice)
		}
	}
	if expired > 0 {
		log.Printf("approval: expired %d stale actions (cutoff %s)", expired, cutoff.Format(time.RFC3339))
	}
	return expired, nil
}

// Withdraw expires the pending action of type t on entityID, if there is one.
// Callers use it after closing the entity itself, in a separate transaction,
// so the action lock is never taken while an entity lock is held.
func (u *Usecase) Withdraw(ctx context.Context, t action.Type, entityID string) error {
	var actionID string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Actions.FindPending(ctx, t, entityID)
		if err != nil {
			return err
		}
		actionID = a.ActionID
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return u.retry.Do(ctx, func(ctx context.Context) error {
		return u.uow.WithinActionTx(ctx, actionID, func(r uow.Repos, a *action.PendingAction) error {
			if a.IsTerminal() {
				return nil
			}
			if err := a.Expire(u.now()); err != nil {
				return err
			}
			return r.Actions.Save(ctx, a)
		})
	})
}

func (u *Usecase) send(ctx context.Context, msgs []notification.Message) {
	for _, m := range msgs {
		u.notifier.Notify(ctx, m)
	}
}

func terminalNotice(a *action.PendingAction) notification.Message {
	kind := notification.KindActionRejected
	switch a.Status {
	case action.StatusApproved:
		kind = notification.KindActionApproved
	case action.StatusExpired:
		kind = notification.KindActionExpired
	}
	return notification.Message{
		UserID: a.InitiatedBy,
		Kind:   kind,
		Title:  fmt.Sprintf("%s %s", a.ActionType, a.Status),
		Body:   fmt.Sprintf("Action %s on %s %s is %s.", a.ActionType, a.EntityType, a.EntityID, a.Status),
		Data:   map[string]string{"action_id": a.ActionID, "entity_id": a.EntityID},
	}
}
