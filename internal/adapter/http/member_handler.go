package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"sacco-backend/internal/usecase/inbox"
	"sacco-backend/internal/usecase/member"
)

type MemberHandler struct {
	members *member.Usecase
	inbox   *inbox.Usecase
}

func NewMemberHandler(m *member.Usecase, i *inbox.Usecase) *MemberHandler {
	return &MemberHandler{members: m, inbox: i}
}

type registerReq struct {
	FullName    string `json:"full_name"    validate:"required,lte=255"`
	Email       string `json:"email"        validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"required,lte=32"`
}

// Register is open: the new member has no identity yet.
func (h *MemberHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.members.Register(c.Request().Context(), member.RegisterInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *MemberHandler) Approve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	var req reasonReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.members.Approve(c.Request().Context(), actor, c.Param("member_id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *MemberHandler) Get(c echo.Context) error {
	dto, err := h.members.Get(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *MemberHandler) UnreadCount(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	n, err := h.inbox.UnreadCount(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": n})
}

func (h *MemberHandler) Notifications(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.inbox.List(c.Request().Context(), actor.ID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notifications": list})
}

func (h *MemberHandler) MarkRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if err := h.inbox.MarkRead(c.Request().Context(), actor.ID, c.Param("notification_id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
