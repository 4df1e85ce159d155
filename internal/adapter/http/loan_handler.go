package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	Amount          decimal.Decimal `json:"amount"           validate:"dpos,dec2"`
	RepaymentMonths int             `json:"repayment_months" validate:"gte=1,lte=120"`
	Purpose         string          `json:"purpose"          validate:"lte=500"`
}

type reasonReq struct {
	Reason string `json:"reason" validate:"lte=1000"`
}

type repayReq struct {
	Amount decimal.Decimal `json:"amount" validate:"dpos,dec2"`
	Notes  string          `json:"notes"  validate:"lte=500"`
}

func (h *LoanHandler) Request(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req requestLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Request(c.Request().Context(), actor, loan.RequestInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// decide runs a staff decision that takes an optional reason.
func (h *LoanHandler) decide(c echo.Context, fn func(actor member.Actor, loanID, reason string) (any, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req reasonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := fn(actor, loanID, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Approve answers 200 with the loan, or with the pending action when the amount needs votes.
func (h *LoanHandler) Approve(c echo.Context) error {
	return h.decide(c, func(a member.Actor, id, reason string) (any, error) {
		return h.uc.Approve(c.Request().Context(), a, id, reason)
	})
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	return h.decide(c, func(a member.Actor, id, reason string) (any, error) {
		return h.uc.Disburse(c.Request().Context(), a, id, reason)
	})
}

func (h *LoanHandler) Reject(c echo.Context) error {
	return h.decide(c, func(a member.Actor, id, reason string) (any, error) {
		return h.uc.Reject(c.Request().Context(), a, id, reason)
	})
}

func (h *LoanHandler) Cancel(c echo.Context) error {
	return h.decide(c, func(a member.Actor, id, _ string) (any, error) {
		return h.uc.Cancel(c.Request().Context(), a, id)
	})
}

func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	return h.decide(c, func(a member.Actor, id, _ string) (any, error) {
		return h.uc.MarkDefaulted(c.Request().Context(), a, id)
	})
}

func (h *LoanHandler) Repay(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req repayReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Repay(c.Request().Context(), actor, c.Param("loan_id"), req.Amount, req.Notes)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	plan, err := h.uc.Schedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"installments": plan})
}

func (h *LoanHandler) Repayments(c echo.Context) error {
	list, err := h.uc.Repayments(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"repayments": list})
}

func (h *LoanHandler) ListMine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	list, err := h.uc.ListByBorrower(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": list})
}

// Eligibility reads an optional ?amount= to report the guarantors it would need.
func (h *LoanHandler) Eligibility(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	amount := decimal.Zero
	if raw := c.QueryParam("amount"); raw != "" {
		if amount, err = decimal.NewFromString(raw); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
		}
	}
	dto, err := h.uc.Eligibility(c.Request().Context(), actor.ID, amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
