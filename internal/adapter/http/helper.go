package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/member"
	"sacco-backend/pkg/id"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

var errNoActor = errors.New("missing or invalid " + HeaderActorID)

// actorFrom reads the caller identity set by the gateway in front of this service.
func actorFrom(c echo.Context) (member.Actor, error) {
	actorID := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
	if !id.Valid(actorID) {
		return member.Actor{}, errNoActor
	}
	role := member.Role(strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderActorRole))))
	switch role {
	case member.RoleStaff, member.RoleAdmin:
	default:
		role = member.RoleMember
	}
	return member.Actor{ID: actorID, Role: role}, nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch errs.Kind(err) {
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrUnauthorized:
		return http.StatusForbidden
	case errs.ErrInvalidState, errs.ErrAlreadyVoted, errs.ErrConflict:
		return http.StatusConflict
	case errs.ErrInsufficientShares, errs.ErrInsufficientFunds, errs.ErrSelfGuarantee:
		return http.StatusUnprocessableEntity
	case errs.ErrValidation, errs.ErrUnsupportedAllocationType:
		return http.StatusBadRequest
	case errs.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

// bindValid binds the body into req and validates it, writing the 4xx response itself.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func unauthorized(c echo.Context, err error) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
}
