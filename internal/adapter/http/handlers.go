package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Handlers groups everything Routes mounts.
type Handlers struct {
	Health     *Handler
	Approvals  *ApprovalHandler
	Loans      *LoanHandler
	Guarantors *GuarantorHandler
	Payments   *PaymentHandler
	Members    *MemberHandler
}

// Routes mounts the API. Mutating member routes pass through idem; the gateway
// callback and registration do not, the usecases behind them being replay-safe.
func Routes(e *echo.Echo, h Handlers, idem echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)
	e.POST("/members", h.Members.Register)
	e.POST("/payments/callback", h.Payments.Callback)

	api := e.Group("/api/v1")
	if idem != nil {
		api.Use(idem)
	}

	api.GET("/actions/pending", h.Approvals.ListPending)
	api.GET("/actions/:action_id", h.Approvals.Get)
	api.POST("/actions/:action_id/votes", h.Approvals.Vote)

	api.GET("/members/:member_id", h.Members.Get)
	api.POST("/members/:member_id/approve", h.Members.Approve)
	api.GET("/me/notifications", h.Members.Notifications)
	api.GET("/me/notifications/unread-count", h.Members.UnreadCount)
	api.POST("/me/notifications/:notification_id/read", h.Members.MarkRead)

	api.POST("/loans", h.Loans.Request)
	api.GET("/me/loans", h.Loans.ListMine)
	api.GET("/me/eligibility", h.Loans.Eligibility)
	api.GET("/loans/:loan_id", h.Loans.Get)
	api.GET("/loans/:loan_id/schedule", h.Loans.Schedule)
	api.GET("/loans/:loan_id/repayments", h.Loans.Repayments)
	api.POST("/loans/:loan_id/approve", h.Loans.Approve)
	api.POST("/loans/:loan_id/disburse", h.Loans.Disburse)
	api.POST("/loans/:loan_id/reject", h.Loans.Reject)
	api.POST("/loans/:loan_id/cancel", h.Loans.Cancel)
	api.POST("/loans/:loan_id/default", h.Loans.MarkDefaulted)
	api.POST("/loans/:loan_id/repayments", h.Loans.Repay)

	api.GET("/loans/:loan_id/guarantors", h.Guarantors.ListByLoan)
	api.POST("/loans/:loan_id/guarantors", h.Guarantors.Request)
	api.GET("/me/guarantor-requests", h.Guarantors.Inbox)
	api.POST("/guarantor-requests/:request_id/respond", h.Guarantors.Respond)

	api.POST("/payments", h.Payments.Initiate)
	api.GET("/payments/:reference", h.Payments.Get)
	api.POST("/allocations", h.Payments.Allocate)
	api.GET("/allocations/rules", h.Payments.Rules)
	api.GET("/allocations/pending", h.Payments.PendingAllocation)
	api.GET("/me/allocations", h.Payments.History)
	api.POST("/allocations/auto", h.Payments.AutoAllocate)
	api.POST("/fines", h.Payments.IssueFine)
}
