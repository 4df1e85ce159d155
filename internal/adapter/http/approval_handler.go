package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sacco-backend/internal/domain/action"
	"sacco-backend/internal/usecase/approval"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type voteReq struct {
	Decision string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Comment  string `json:"comment"  validate:"lte=1000"`
}

func (h *ApprovalHandler) Vote(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	actionID := c.Param("action_id")
	if actionID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing action_id path param"})
	}
	var req voteReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Vote(c.Request().Context(), approval.VoteInput{
		ActionID: actionID,
		Verifier: actor,
		Decision: req.Decision,
		Comment:  req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) ListPending(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if !actor.IsStaff() {
		return fail(c, action.ErrNotStaff)
	}
	list, err := h.uc.ListPending(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"actions": list})
}

func (h *ApprovalHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if !actor.IsStaff() {
		return fail(c, action.ErrNotStaff)
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("action_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
