package member

import (
	"time"

	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/usecase/approval"
)

type RegisterInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type MemberDTO struct {
	MemberID         string     `json:"member_id"`
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	PhoneNumber      string     `json:"phone_number"`
	Role             string     `json:"role"`
	Active           bool       `json:"active"`
	RegistrationPaid bool       `json:"registration_paid"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ApprovalDTO carries either the activated member or the action gating it.
type ApprovalDTO struct {
	Member        *MemberDTO          `json:"member"`
	PendingAction *approval.ActionDTO `json:"pending_action,omitempty"`
}

func toDTO(m *member.Member) *MemberDTO {
	return &MemberDTO{
		MemberID:         m.MemberID,
		FullName:         m.FullName,
		Email:            m.Email,
		PhoneNumber:      m.PhoneNumber,
		Role:             string(m.Role),
		Active:           m.Active,
		RegistrationPaid: m.RegistrationPaid,
		ActivatedAt:      m.ActivatedAt,
		CreatedAt:        m.CreatedAt,
	}
}
