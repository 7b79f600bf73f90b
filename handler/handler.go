package handler

import (
	"net/http"

	"chirp/feed"
	"chirp/identity"
	"chirp/search"
	"chirp/store"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	Feed   *feed.Service
	Tokens *identity.Tokens
	// Directory is nil when accounts live in a remote identity provider.
	// No route issues sessions then: the provider hands out the HS256
	// tokens itself, signed with the shared JWT_SECRET.
	Directory    *identity.Directory
	Posts        *store.PostStore
	Index        *search.Index
	EnableSignup bool
	Environment  string
}

// Register mounts every route on e. Writes require a valid session token.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  h.Tokens.Secret(),
		TokenLookup: "header:Authorization:Bearer ,cookie:" + identity.CookieName,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		Skipper: func(c echo.Context) bool {
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodOptions || c.Path() == "/login" || c.Path() == "/signup" {
				return true
			}
			return false
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized").SetInternal(err)
		},
	}))

	api := e.Group("/api")
	api.GET("/posts", h.GetPosts)
	api.GET("/posts/:id", h.GetByID)
	api.POST("/posts", h.NewPost)
	api.GET("/users/:id/posts", h.GetPostsByUserID)
	api.GET("/profiles/:username", h.GetProfile)
	api.GET("/profiles/:username/posts", h.GetProfilePosts)
	api.GET("/search", h.Search)

	if h.Directory != nil {
		e.POST("/signup", h.NewUser)
		e.POST("/login", h.Login)
		e.GET("/logout", h.Logout)
	}

	e.GET("/health", h.Health)
}

// callerID returns the subject of the token validated by the jwt middleware.
func callerID(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := h.Posts.Count(ctx)
	if err != nil {
		return err
	}
	var indexed uint64
	if h.Index != nil {
		indexed, err = h.Index.Count()
		if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"posts":           posts,
		"posts_in_index":  indexed,
		"search_enabled":  h.Index != nil,
		"signup_enabled":  h.signupEnabled(),
		"identity_remote": h.Directory == nil,
	})
}
