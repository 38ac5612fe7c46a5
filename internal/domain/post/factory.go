package post

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a Post owned by ownerID. The owner is fixed
// here and never changes for the life of the post.
func NewFromCreateRequest(ownerID string, req CreatePostRequest) Post {
	now := time.Now().UTC()

	return Post{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
