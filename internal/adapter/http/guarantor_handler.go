package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sacco-backend/internal/usecase/guarantor"
)

type GuarantorHandler struct{ uc *guarantor.Usecase }

func NewGuarantorHandler(uc *guarantor.Usecase) *GuarantorHandler { return &GuarantorHandler{uc: uc} }

type guaranteeReq struct {
	GuarantorID string `json:"guarantor_id" validate:"required,hex32"`
	Shares      int64  `json:"shares"       validate:"gte=1"`
}

type respondReq struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

func (h *GuarantorHandler) Request(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req guaranteeReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.RequestGuarantee(c.Request().Context(), actor, guarantor.RequestInput{
		LoanID:      c.Param("loan_id"),
		GuarantorID: req.GuarantorID,
		Shares:      req.Shares,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *GuarantorHandler) Respond(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req respondReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Respond(c.Request().Context(), actor, c.Param("request_id"), req.Decision)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *GuarantorHandler) ListByLoan(c echo.Context) error {
	list, err := h.uc.ListByLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"guarantors": list})
}

// Inbox lists the caller's unanswered requests together with the shares they can still pledge.
func (h *GuarantorHandler) Inbox(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	ctx := c.Request().Context()
	pending, err := h.uc.PendingRequests(ctx, actor.ID)
	if err != nil {
		return fail(c, err)
	}
	avail, err := h.uc.AvailableShares(ctx, actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": pending, "availability": avail})
}
