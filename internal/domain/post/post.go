package post

import (
	"errors"
	"time"
)

type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("post not found")

// returned when the caller is authenticated but does not own the post
var ErrNotOwner = errors.New("post owned by another user")

type CreatePostRequest struct {
	Title string `json:"title" binding:"required,max=200"`
	Body  string `json:"body" binding:"required"`
}

// UpdatePostRequest is a patch: nil fields are left as they are. An explicit
// JSON null decodes to nil too, so null and absent behave the same.
type UpdatePostRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=200"`
	Body  *string `json:"body" binding:"omitempty,min=1"`
}

// Empty reports whether the patch changes nothing.
func (r UpdatePostRequest) Empty() bool {
	return r.Title == nil && r.Body == nil
}
