package action

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrNotFound          = fmt.Errorf("pending action %w", errs.ErrNotFound)
	ErrNotPending        = fmt.Errorf("action is no longer pending: %w", errs.ErrInvalidState)
	ErrAlreadyVoted      = fmt.Errorf("verifier has %w on this action", errs.ErrAlreadyVoted)
	ErrAlreadyPending    = fmt.Errorf("an identical action is already awaiting approval: %w", errs.ErrInvalidState)
	ErrInvalidDecision   = fmt.Errorf("decision must be APPROVED or REJECTED: %w", errs.ErrValidation)
	ErrStaleVersion      = fmt.Errorf("pending action changed concurrently: %w", errs.ErrConflict)
	ErrNotStaff          = fmt.Errorf("only staff may initiate or verify actions: %w", errs.ErrUnauthorized)
	ErrUnsupportedAction = errors.New("unsupported action type")
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRejected:
		return DecisionRejected, nil
	}
	return "", ErrInvalidDecision
}

// DefaultRequiredApprovals is the 2-of-3 staff policy.
const DefaultRequiredApprovals = 2

// Table: pending_actions. Never deleted.
type PendingAction struct {
	ID                uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ActionID          string         `gorm:"column:action_id;type:char(32);not null;uniqueIndex" json:"action_id"`
	ActionType        Type           `gorm:"column:action_type;type:varchar(32);not null;index:idx_actions_entity" json:"action_type"`
	EntityType        string         `gorm:"column:entity_type;type:varchar(32);not null" json:"entity_type"`
	EntityID          string         `gorm:"column:entity_id;type:varchar(64);not null;index:idx_actions_entity" json:"entity_id"`
	Reason            string         `gorm:"column:reason;type:text" json:"reason"`
	InitiatedBy       string         `gorm:"column:initiated_by;type:char(32);not null" json:"initiated_by"`
	Status            Status         `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	RequiredApprovals int            `gorm:"column:required_approvals;not null" json:"required_approvals"`
	ApprovalCount     int            `gorm:"column:approval_count;not null" json:"approval_count"`
	RejectionCount    int            `gorm:"column:rejection_count;not null" json:"rejection_count"`
	CompletedAt       *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Version           int64          `gorm:"column:version;not null" json:"-"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Verifications     []Verification `gorm:"foreignKey:PendingActionID;references:ID;constraint:OnDelete:CASCADE" json:"verifications"`
}

func (PendingAction) TableName() string { return "pending_actions" }

// Table: action_verifications. Immutable once written.
type Verification struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PendingActionID uint64    `gorm:"column:pending_action_id;not null;uniqueIndex:ux_verifications_action_verifier" json:"-"`
	VerifierID      string    `gorm:"column:verifier_id;type:char(32);not null;uniqueIndex:ux_verifications_action_verifier" json:"verifier_id"`
	Decision        Decision  `gorm:"column:decision;type:varchar(16);not null" json:"decision"`
	Comment         string    `gorm:"column:comment;type:text" json:"comment"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Verification) TableName() string { return "action_verifications" }

// New builds a PENDING action for cmd. required <= 0 falls back to the default policy.
func New(actionID string, cmd Command, reason, initiator string, required int) *PendingAction {
	if required <= 0 {
		required = DefaultRequiredApprovals
	}
	return &PendingAction{
		ActionID:          actionID,
		ActionType:        cmd.Type(),
		EntityType:        cmd.EntityType(),
		EntityID:          cmd.EntityID(),
		Reason:            reason,
		InitiatedBy:       initiator,
		Status:            StatusPending,
		RequiredApprovals: required,
		Version:           1,
	}
}

// Command decodes the persisted type back into its variant.
func (a *PendingAction) Command() (Command, error) {
	return Decode(a.ActionType, a.EntityID)
}

func (a *PendingAction) IsTerminal() bool { return a.Status != StatusPending }

// Record applies one vote and reports whether this vote moved the action into APPROVED.
// Only that transition may trigger execution.
func (a *PendingAction) Record(d Decision, now time.Time) (bool, error) {
	if a.IsTerminal() {
		return false, ErrNotPending
	}
	switch d {
	case DecisionApproved:
		a.ApprovalCount++
	case DecisionRejected:
		a.RejectionCount++
	default:
		return false, ErrInvalidDecision
	}

	switch {
	case a.ApprovalCount >= a.RequiredApprovals:
		a.Status = StatusApproved
		a.CompletedAt = &now
		return true, nil
	case a.RejectionCount >= a.RequiredApprovals:
		a.Status = StatusRejected
		a.CompletedAt = &now
	}
	return false, nil
}

// Expire is driven by the scheduled sweep, never by voting.
func (a *PendingAction) Expire(now time.Time) error {
	if a.IsTerminal() {
		return ErrNotPending
	}
	a.Status = StatusExpired
	a.CompletedAt = &now
	return nil
}
