package handler

import (
	"net/http"

	"chirp/domain"
	"chirp/identity"

	"github.com/labstack/echo/v4"
)

type credentials struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	ProfileImageURL string `json:"profile_image_url" form:"profile_image_url"`
}

type sessionDTO struct {
	Token  string        `json:"token"`
	Author domain.Author `json:"author"`
}

func (h *Handler) signupEnabled() bool {
	return h.Directory != nil && (h.Environment == "dev" || h.EnableSignup)
}

func (h *Handler) NewUser(c echo.Context) error {
	if !h.signupEnabled() {
		return echo.NewHTTPError(http.StatusForbidden, "Sign up has been disabled.")
	}

	form := credentials{}
	if err := c.Bind(&form); err != nil {
		return err
	}

	user, err := h.Directory.Register(c.Request().Context(), form.Username, form.Password, form.ProfileImageURL)
	if err != nil {
		return err
	}
	return h.startSession(c, http.StatusCreated, user)
}

func (h *Handler) Login(c echo.Context) error {
	form := credentials{}
	if err := c.Bind(&form); err != nil {
		return err
	}
	if len(form.Username) == 0 || len(form.Password) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required.")
	}

	user, err := h.Directory.Authenticate(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		return err
	}
	return h.startSession(c, http.StatusOK, user)
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(identity.ExpiredCookie())
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) startSession(c echo.Context, status int, user domain.User) error {
	cookie, err := h.Tokens.Cookie(user.ID)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(status, sessionDTO{Token: cookie.Value, Author: user.Author()})
}
