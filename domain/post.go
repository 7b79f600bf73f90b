package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	MinContentLength = 3
	MaxContentLength = 500
)

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostWithAuthor is what every read path hands back to callers.
type PostWithAuthor struct {
	Post   Post   `json:"post"`
	Author Author `json:"author"`
}

// ValidateContent checks the character count of content as submitted.
// Content is stored verbatim and only sanitized when rendered.
func ValidateContent(content string, min, max int) error {
	n := utf8.RuneCountInString(content)
	if n < min {
		return &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("Post must be %d or more characters long.", min),
		}
	}
	if n > max {
		return &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("Post must be %d or fewer characters long.", max),
		}
	}
	return nil
}
