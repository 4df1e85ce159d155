package guarantor

import (
	"fmt"
	"strings"
	"time"

	"sacco-backend/internal/domain/errs"
)

var (
	ErrNotFound           = fmt.Errorf("guarantor request %w", errs.ErrNotFound)
	ErrSelfGuarantee      = fmt.Errorf("a member cannot guarantee their own loan: %w", errs.ErrSelfGuarantee)
	ErrNotGuarantor       = fmt.Errorf("caller is not the named guarantor: %w", errs.ErrUnauthorized)
	ErrNotPending         = fmt.Errorf("guarantor request already answered: %w", errs.ErrInvalidState)
	ErrAlreadyRequested   = fmt.Errorf("guarantor already asked for this loan: %w", errs.ErrInvalidState)
	ErrLoanClosed         = fmt.Errorf("loan no longer takes guarantors: %w", errs.ErrInvalidState)
	ErrInsufficientShares = fmt.Errorf("pledge exceeds unpledged shares: %w", errs.ErrInsufficientShares)
	ErrInvalidShares      = fmt.Errorf("shares pledged must be positive: %w", errs.ErrValidation)
	ErrInvalidDecision    = fmt.Errorf("decision must be accepted or rejected: %w", errs.ErrValidation)
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	// Released pledges belong to closed loans and no longer lock shares.
	StatusReleased Status = "released"
)

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccepted:
		return DecisionAccepted, nil
	case DecisionRejected:
		return DecisionRejected, nil
	}
	return "", ErrInvalidDecision
}

type Pledge struct {
	ID            uint64     `gorm:"primaryKey;column:id" json:"-"`
	RequestID     string     `gorm:"size:32;uniqueIndex" json:"request_id"`
	LoanID        string     `gorm:"size:32;index;not null" json:"loan_id"`
	BorrowerID    string     `gorm:"size:32;not null" json:"borrower_id"`
	GuarantorID   string     `gorm:"size:32;index:idx_guarantors_guarantor_status;not null" json:"guarantor_id"`
	SharesPledged int64      `gorm:"not null" json:"shares_pledged"`
	Status        Status     `gorm:"size:16;index:idx_guarantors_guarantor_status;default:'pending'" json:"status"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	ReleasedAt    *time.Time `json:"released_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Pledge) TableName() string { return "loan_guarantors" }

func NewPledge(requestID, loanID, borrowerID, guarantorID string, shares int64) (*Pledge, error) {
	if guarantorID == borrowerID {
		return nil, ErrSelfGuarantee
	}
	if shares <= 0 {
		return nil, ErrInvalidShares
	}
	return &Pledge{
		RequestID:     requestID,
		LoanID:        loanID,
		BorrowerID:    borrowerID,
		GuarantorID:   guarantorID,
		SharesPledged: shares,
		Status:        StatusPending,
	}, nil
}

// Reserve accepts the pledge when the guarantor's unpledged shares cover it.
// The caller must hold the guarantor's lock for the check and the write to be atomic.
func (p *Pledge) Reserve(activeShares, acceptedShares int64, now time.Time) error {
	if p.Status != StatusPending {
		return ErrNotPending
	}
	if activeShares-acceptedShares < p.SharesPledged {
		return fmt.Errorf("%w: available %d, pledged %d", ErrInsufficientShares, activeShares-acceptedShares, p.SharesPledged)
	}
	p.Status = StatusAccepted
	p.RespondedAt = &now
	return nil
}

func (p *Pledge) Decline(now time.Time) error {
	if p.Status != StatusPending {
		return ErrNotPending
	}
	p.Status = StatusRejected
	p.RespondedAt = &now
	return nil
}

// Available is what a guarantor can still pledge. Never negative.
func Available(activeShares, acceptedShares int64) int64 {
	if v := activeShares - acceptedShares; v > 0 {
		return v
	}
	return 0
}
