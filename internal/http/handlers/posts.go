package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkstone9/quillpad/internal/cache"
	"github.com/inkstone9/quillpad/internal/config"
	"github.com/inkstone9/quillpad/internal/domain/post"
	"github.com/inkstone9/quillpad/internal/http/middlewares"
	"github.com/inkstone9/quillpad/internal/utils"
)

// Keep this small interface so tests can fake it easily. Ownership is the
// store's job: Update and Delete take the caller id and decide NotFound vs
// NotOwner themselves, atomically.
type PostStore interface {
	Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]post.Post, error)
	Update(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error)
	Delete(ctx context.Context, id, callerID string) error
}

const postsListCacheKey = "posts:all"

type PostsHandler struct {
	repo  PostStore
	cache *cache.Cache
}

func NewPostsHandler(repo PostStore) *PostsHandler {
	return &PostsHandler{repo: repo}
}

func NewPostsHandlerWithCache(repo PostStore, c *cache.Cache) *PostsHandler {
	return &PostsHandler{repo: repo, cache: c}
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// "required" accepts all-whitespace strings, so trim and re-check
	if strings.TrimSpace(req.Title) == "" {
		RespondBadRequest(ctx, "Title must not be blank", nil)
		return
	}

	if strings.TrimSpace(req.Body) == "" {
		RespondBadRequest(ctx, "Body must not be blank", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, userID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.invalidateListCache()

	RespondSuccess(ctx, http.StatusCreated, "Post created successfully", gin.H{
		"post": p,
	})
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(postsListCacheKey); ok {
			if posts, ok := v.([]post.Post); ok {
				respondPostsList(ctx, posts)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	posts, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	if h.cache != nil {
		h.cache.Set(postsListCacheKey, posts)
	}

	respondPostsList(ctx, posts)
}

func respondPostsList(ctx *gin.Context, posts []post.Post) {
	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Retrieved %d posts", len(posts)),
		"data": gin.H{
			"posts": posts,
			"count": len(posts),
		},
	})
}

func (h *PostsHandler) GetPost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "post id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not fetch post")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"message": "Post retrieved successfully",
		"data":    gin.H{"post": p},
	})
}

// MyPosts binds the owner filter to the authenticated caller; the owner id
// is never client input.
func (h *PostsHandler) MyPosts(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	posts, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	RespondSuccess(ctx, http.StatusOK, fmt.Sprintf("Retrieved %d posts", len(posts)), gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "post id must be a valid UUID", nil)
		return
	}

	var req post.UpdatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		RespondBadRequest(ctx, "Title must not be blank", nil)
		return
	}

	if req.Body != nil && strings.TrimSpace(*req.Body) == "" {
		RespondBadRequest(ctx, "Body must not be blank", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Update(cctx, id, userID, req)

	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			RespondNotFound(ctx, "Post not found")
		case errors.Is(err, post.ErrNotOwner):
			RespondForbidden(ctx, "You can only modify your own posts")
		default:
			RespondInternal(ctx, "Could not update post")
		}
		return
	}

	h.invalidateListCache()

	RespondSuccess(ctx, http.StatusOK, "Post updated successfully", gin.H{
		"post": p,
	})
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "post id must be a valid UUID", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id, userID)

	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			RespondNotFound(ctx, "Post not found")
		case errors.Is(err, post.ErrNotOwner):
			RespondForbidden(ctx, "You can only delete your own posts")
		default:
			RespondInternal(ctx, "Could not delete post")
		}
		return
	}

	h.invalidateListCache()

	ctx.Status(http.StatusNoContent)
}

func (h *PostsHandler) invalidateListCache() {
	if h.cache != nil {
		h.cache.Delete(postsListCacheKey)
	}
}
