package handler

import (
	"net/http"
	"strconv"
	"time"

	"chirp/domain"
	"chirp/ratelimit"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizerUGC = bluemonday.UGCPolicy()

type PostDTO struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	CreatedAt   time.Time `json:"created_at"`
}

type FeedItemDTO struct {
	Post   PostDTO       `json:"post"`
	Author domain.Author `json:"author"`
}

type ProfileDTO struct {
	Author domain.Author `json:"author"`
	Posts  []FeedItemDTO `json:"posts"`
}

type newPostRequest struct {
	Content string `json:"content" form:"content"`
}

func (h *Handler) GetPosts(c echo.Context) error {
	items, err := h.Feed.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedDTO(items))
}

func (h *Handler) GetByID(c echo.Context) error {
	item, err := h.Feed.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemDTO(item))
}

func (h *Handler) GetPostsByUserID(c echo.Context) error {
	items, err := h.Feed.GetByAuthor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedDTO(items))
}

func (h *Handler) GetProfile(c echo.Context) error {
	author, err := h.Feed.GetProfile(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, author)
}

func (h *Handler) GetProfilePosts(c echo.Context) error {
	author, items, err := h.Feed.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfileDTO{Author: author, Posts: feedDTO(items)})
}

func (h *Handler) Search(c echo.Context) error {
	items, err := h.Feed.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedDTO(items))
}

func (h *Handler) NewPost(c echo.Context) error {
	req := newPostRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}

	post, quota, err := h.Feed.Create(c.Request().Context(), callerID(c), req.Content)
	setQuotaHeaders(c, quota)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, postDTO(post))
}

func setQuotaHeaders(c echo.Context, quota ratelimit.Result) {
	if quota.Limit == 0 {
		return
	}
	header := c.Response().Header()
	header.Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
	header.Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
	header.Set("X-RateLimit-Reset", strconv.FormatInt(quota.Reset.Unix(), 10))
	if !quota.Success {
		retry := int(time.Until(quota.Reset).Seconds() + 1)
		if retry < 1 {
			retry = 1
		}
		header.Set("Retry-After", strconv.Itoa(retry))
	}
}

func feedDTO(items []domain.PostWithAuthor) []FeedItemDTO {
	out := make([]FeedItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemDTO(item))
	}
	return out
}

func itemDTO(item domain.PostWithAuthor) FeedItemDTO {
	return FeedItemDTO{Post: postDTO(item.Post), Author: item.Author}
}

func postDTO(p domain.Post) PostDTO {
	return PostDTO{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Content:     p.Content,
		ContentHTML: renderContent(p.Content),
		CreatedAt:   p.CreatedAt,
	}
}

// renderContent turns post markdown into HTML safe to embed in a page.
// Posts are stored as typed, so this is the only place markup is filtered.
func renderContent(content string) string {
	doc := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock).Parse([]byte(content))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(sanitizerUGC.SanitizeBytes(markdown.Render(doc, renderer)))
}
