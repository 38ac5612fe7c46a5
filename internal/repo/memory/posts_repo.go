package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkstone9/quillpad/internal/domain/post"
)

// PostsRepo keeps posts in process memory, mirroring the SQL store's
// semantics: newest-first listings and existence checked before ownership
// on mutations.
type PostsRepo struct {
	mu    sync.RWMutex
	items map[string]post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{
		items: make(map[string]post.Post),
	}
}

func (r *PostsRepo) Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
	p := post.NewFromCreateRequest(ownerID, req)

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]post.Post, 0, len(r.items))

	for _, p := range r.items {
		out = append(out, p)
	}

	sortNewestFirst(out)

	return out, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return p, nil
}

func (r *PostsRepo) ListByOwner(ctx context.Context, ownerID string) ([]post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]post.Post, 0)

	for _, p := range r.items {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}

	sortNewestFirst(out)

	return out, nil
}

// Update reports a missing post as NotFound before looking at ownership, so
// callers cannot probe whether an id ever existed.
func (r *PostsRepo) Update(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	if p.OwnerID != callerID {
		return post.Post{}, post.ErrNotOwner
	}

	changed := false

	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != p.Title {
			p.Title = title
			changed = true
		}
	}

	if patch.Body != nil {
		if body := strings.TrimSpace(*patch.Body); body != p.Body {
			p.Body = body
			changed = true
		}
	}

	if !changed {
		return p, nil
	}

	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id, callerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]

	if !ok {
		return post.ErrNotFound
	}

	if p.OwnerID != callerID {
		return post.ErrNotOwner
	}

	delete(r.items, id)

	return nil
}

// newest first, id as tie-break so equal timestamps still order stably
func sortNewestFirst(posts []post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}

		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
