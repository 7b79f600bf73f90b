package handler

import (
	"errors"
	"net/http"
	"strings"

	"chirp/domain"

	"github.com/labstack/echo/v4"
)

type errorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error as {"code", "message"} and logs
// everything but not-found.
func HTTPErrorHandler(err error, c echo.Context) {
	he := toHTTPError(err)
	if he.Code != http.StatusNotFound {
		c.Logger().Error(err)
	}
	if c.Response().Committed {
		return
	}

	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(he.Code)
	}
	body := errorDTO{Code: codeName(he.Code), Message: message}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			// keep the public message, the internal error is only logged
			return &echo.HTTPError{Code: he.Code, Message: he.Message}
		}
		return he
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrTooManyRequests):
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, slow down.")
	case errors.Is(err, domain.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Wrong username or password")
	case errors.Is(err, domain.ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, "Username already taken")
	case errors.Is(err, domain.ErrAuthorNotFound):
		return echo.NewHTTPError(http.StatusInternalServerError, "Author for post not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

func codeName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
