package approval

import (
	"time"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/domain/member"
)

type VoteInput struct {
	ActionID string
	Verifier member.Actor
	Decision string // APPROVED | REJECTED
	Comment  string
}

type VerificationDTO struct {
	VerifierID string    `json:"verifier_id"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ActionDTO struct {
	ActionID          string            `json:"action_id"`
	ActionType        string            `json:"action_type"`
	EntityType        string            `json:"entity_type"`
	EntityID          string            `json:"entity_id"`
	Reason            string            `json:"reason"`
	InitiatedBy       string            `json:"initiated_by"`
	Status            string            `json:"status"`
	RequiredApprovals int               `json:"required_approvals"`
	ApprovalCount     int               `json:"approval_count"`
	RejectionCount    int               `json:"rejection_count"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Verifications     []VerificationDTO `json:"verifications"`
}

func ToDTO(a *action.PendingAction) *ActionDTO {
	dto := &ActionDTO{
		ActionID:          a.ActionID,
		ActionType:        string(a.ActionType),
		EntityType:        a.EntityType,
		EntityID:          a.EntityID,
		Reason:            a.Reason,
		InitiatedBy:       a.InitiatedBy,
		Status:            string(a.Status),
		RequiredApprovals: a.RequiredApprovals,
		ApprovalCount:     a.ApprovalCount,
		RejectionCount:    a.RejectionCount,
		CompletedAt:       a.CompletedAt,
		CreatedAt:         a.CreatedAt,
		Verifications:     make([]VerificationDTO, 0, len(a.Verifications)),
	}
	for _, v := range a.Verifications {
		dto.Verifications = append(dto.Verifications, VerificationDTO{
			VerifierID: v.VerifierID,
			Decision:   string(v.Decision),
			Comment:    v.Comment,
			CreatedAt:  v.CreatedAt,
		})
	}
	return dto
}
