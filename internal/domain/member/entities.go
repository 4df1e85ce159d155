package member

import (
	"fmt"
	"time"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrNotFound      = fmt.Errorf("member %w", errs.ErrNotFound)
	ErrAlreadyActive = fmt.Errorf("member already active: %w", errs.ErrInvalidState)
	ErrInactive      = fmt.Errorf("member is not active: %w", errs.ErrInvalidState)
	ErrNotStaff      = fmt.Errorf("only staff may approve members: %w", errs.ErrUnauthorized)
)

type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// Actor is the already-authenticated caller of every core operation.
type Actor struct {
	ID   string
	Role Role
}

// IsStaff reports whether the actor may initiate or verify gated actions.
func (a Actor) IsStaff() bool { return a.Role == RoleStaff || a.Role == RoleAdmin }

// Table: members. The row doubles as the guarantor lock row.
type Member struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MemberID         string     `gorm:"column:member_id;type:char(32);not null;uniqueIndex" json:"member_id"`
	FullName         string     `gorm:"column:full_name;size:255" json:"full_name"`
	Email            string     `gorm:"column:email;size:255;index" json:"email"`
	PhoneNumber      string     `gorm:"column:phone_number;size:32" json:"phone_number"`
	Role             Role       `gorm:"column:role;type:varchar(16);not null;default:'member'" json:"role"`
	Active           bool       `gorm:"column:active;not null;default:false" json:"active"`
	RegistrationPaid bool       `gorm:"column:registration_paid;not null;default:false" json:"registration_paid"`
	ActivatedAt      *time.Time `gorm:"column:activated_at" json:"activated_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// Activate is the single mutation behind both direct and voted member approval.
func (m *Member) Activate(now time.Time) error {
	if m.Active {
		return ErrAlreadyActive
	}
	m.Active = true
	m.ActivatedAt = &now
	return nil
}
