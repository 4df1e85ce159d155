package guarantor

import (
	"time"

	"sacco-backend/internal/domain/guarantor"
)

type RequestInput struct {
	LoanID      string `json:"loan_id"`
	GuarantorID string `json:"guarantor_id"`
	Shares      int64  `json:"shares"`
}

type PledgeDTO struct {
	RequestID     string     `json:"request_id"`
	LoanID        string     `json:"loan_id"`
	BorrowerID    string     `json:"borrower_id"`
	GuarantorID   string     `json:"guarantor_id"`
	SharesPledged int64      `json:"shares_pledged"`
	Status        string     `json:"status"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AvailabilityDTO struct {
	UserID          string `json:"user_id"`
	ActiveShares    int64  `json:"active_shares"`
	PledgedShares   int64  `json:"pledged_shares"`
	AvailableShares int64  `json:"available_shares"`
}

func toDTO(p *guarantor.Pledge) *PledgeDTO {
	return &PledgeDTO{
		RequestID:     p.RequestID,
		LoanID:        p.LoanID,
		BorrowerID:    p.BorrowerID,
		GuarantorID:   p.GuarantorID,
		SharesPledged: p.SharesPledged,
		Status:        string(p.Status),
		RespondedAt:   p.RespondedAt,
		CreatedAt:     p.CreatedAt,
	}
}

func toDTOs(ps []guarantor.Pledge) []PledgeDTO {
	out := make([]PledgeDTO, 0, len(ps))
	for i := range ps {
		out = append(out, *toDTO(&ps[i]))
	}
	return out
}
