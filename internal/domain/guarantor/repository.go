package guarantor

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Pledge) error
	GetByRequestID(ctx context.Context, requestID string) (*Pledge, error)
	// Pending or accepted request for the pair, if any.
	FindOpen(ctx context.Context, loanID, guarantorID string) (*Pledge, error)
	SumAcceptedShares(ctx context.Context, guarantorID string) (int64, error)
	ListPendingByGuarantor(ctx context.Context, guarantorID string) ([]Pledge, error)
	ListByLoan(ctx context.Context, loanID string) ([]Pledge, error)
	// Answer writes p's decision only while the stored row is still pending;
	// otherwise it returns ErrNotPending.
	Answer(ctx context.Context, p *Pledge) error
	// ReleaseByLoan releases accepted pledges and rejects unanswered ones.
	ReleaseByLoan(ctx context.Context, loanID string, now time.Time) (int64, error)
}
