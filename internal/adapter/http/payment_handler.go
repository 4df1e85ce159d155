package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sacco-backend/internal/usecase/allocation"
	"sacco-backend/internal/usecase/payment"
)

const HeaderCallbackToken = "X-Callback-Token"

type PaymentHandler struct {
	payments      *payment.Usecase
	allocations   *allocation.Usecase
	callbackToken string
}

// NewPaymentHandler serves payments and allocations. An empty token leaves the callback open.
func NewPaymentHandler(p *payment.Usecase, a *allocation.Usecase, callbackToken string) *PaymentHandler {
	return &PaymentHandler{payments: p, allocations: a, callbackToken: callbackToken}
}

type initiateReq struct {
	UserID      string          `json:"user_id"      validate:"required,hex32"`
	Amount      decimal.Decimal `json:"amount"       validate:"dpos,dec2"`
	Category    string          `json:"category"     validate:"required"`
	TargetID    string          `json:"target_id"`
	PhoneNumber string          `json:"phone_number" validate:"lte=32"`
	Description string          `json:"description"  validate:"lte=255"`
}

type callbackReq struct {
	Reference string `json:"reference"   validate:"required"`
	Status    string `json:"status"      validate:"required,oneof=success failed"`
	ResultMsg string `json:"result_desc"`
}

type allocateReq struct {
	UserID        string          `json:"user_id"         validate:"required,hex32"`
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"allocation_type" validate:"required"`
	TargetID      string          `json:"target_id"`
	Amount        decimal.Decimal `json:"amount"          validate:"dpos,dec2"`
}

type fineReq struct {
	UserID string          `json:"user_id" validate:"required,hex32"`
	LoanID string          `json:"loan_id"`
	Amount decimal.Decimal `json:"amount"  validate:"dec2"`
	Reason string          `json:"reason"  validate:"required,lte=500"`
}

func (h *PaymentHandler) Initiate(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req initiateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.payments.Initiate(c.Request().Context(), actor, payment.InitiateInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// Callback receives the gateway's final word on a payment. Replays answer 200.
func (h *PaymentHandler) Callback(c echo.Context) error {
	if h.callbackToken != "" {
		got := c.Request().Header.Get(HeaderCallbackToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackToken)) != 1 {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid callback token"})
		}
	}
	var req callbackReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	var (
		dto *payment.TransactionDTO
		err error
	)
	if strings.EqualFold(req.Status, "success") {
		dto, err = h.payments.Complete(ctx, req.Reference)
	} else {
		dto, err = h.payments.Fail(ctx, req.Reference)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) Get(c echo.Context) error {
	dto, err := h.payments.Get(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) Allocate(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req allocateReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.allocations.Allocate(c.Request().Context(), actor, allocation.AllocateInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PaymentHandler) Rules(c echo.Context) error {
	return c.JSON(http.StatusOK, h.allocations.Rules())
}

// PendingAllocation lists every member's unallocated money. Staff only.
func (h *PaymentHandler) PendingAllocation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if !actor.IsStaff() {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "staff only"})
	}
	list, err := h.allocations.PendingPayments(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": list})
}

// AutoAllocate runs one sweep on demand. Staff only.
func (h *PaymentHandler) AutoAllocate(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if !actor.IsStaff() {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "staff only"})
	}
	report, err := h.allocations.AutoAllocate(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *PaymentHandler) History(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	list, err := h.allocations.History(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"allocations": list})
}

func (h *PaymentHandler) IssueFine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req fineReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	f, err := h.allocations.IssueFine(c.Request().Context(), actor, req.UserID, req.LoanID, req.Amount, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}
