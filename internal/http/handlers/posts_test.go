package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkstone9/quillpad/internal/cache"
	"github.com/inkstone9/quillpad/internal/domain/post"
	"github.com/inkstone9/quillpad/internal/http/handlers"
	"github.com/inkstone9/quillpad/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// staticVerifier stands in for the jwt manager: any bearer token maps to a
// fixed user id.

type staticVerifier struct {
	userID string
}

func (s staticVerifier) Validate(token string) (string, error) {
	return s.userID, nil
}

// small helpers which return a gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func setupAuthRouter(method, path, userID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	m := middlewares.NewAuthMiddleware(staticVerifier{userID: userID})
	r.Handle(method, path, m.RequireAuth(), h)

	return r
}

func authedRequest(method, url string, body string) *http.Request {
	var req *http.Request

	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	req.Header.Set("Authorization", "Bearer test-token")

	return req
}

// Fake repository implementation of the handlers.PostStore interface

type fakePostsRepo struct {
	createFn      func(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error)
	listFn        func(ctx context.Context) ([]post.Post, error)
	getFn         func(ctx context.Context, id string) (post.Post, error)
	listByOwnerFn func(ctx context.Context, ownerID string) ([]post.Post, error)
	updateFn      func(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error)
	deleteFn      func(ctx context.Context, id, callerID string) error
}

func (f *fakePostsRepo) Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}

	return post.Post{}, nil
}

func (f *fakePostsRepo) List(ctx context.Context) ([]post.Post, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []post.Post{}, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return post.Post{}, nil
}

func (f *fakePostsRepo) ListByOwner(ctx context.Context, ownerID string) ([]post.Post, error) {
	if f.listByOwnerFn != nil {
		return f.listByOwnerFn(ctx, ownerID)
	}

	return []post.Post{}, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, callerID, patch)
	}

	return post.Post{}, nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id, callerID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, callerID)
	}

	return nil
}

// Create post tests

func TestCreatePostHandler(t *testing.T) {
	now := time.Now().UTC()
	callerID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"title": "Hi", "body": "World"}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
					if ownerID != callerID {
						return post.Post{}, errors.New("owner not bound to caller")
					}
					return post.Post{
						ID:        newUUID(),
						OwnerID:   ownerID,
						Title:     req.Title,
						Body:      req.Body,
						CreatedAt: now,
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "validation_error",
			body: `{"title": ""}`,
			repoSetUp: func(f *fakePostsRepo) {
				// the repo should not be called on an invalid payload
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "blank_title_after_trim",
			body: `{"title": "   ", "body": "World"}`,
			repoSetUp: func(f *fakePostsRepo) {
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"title": "Hi", "body": "World"}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
					return post.Post{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)

			r := setupAuthRouter(http.MethodPost, "/posts", callerID, h.CreatePost)

			req := authedRequest(http.MethodPost, "/posts", tt.body)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp struct {
					Data struct {
						Post post.Post `json:"post"`
					} `json:"data"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Data.Post.OwnerID != callerID {
					t.Fatalf("post owner = %q, want caller %q", resp.Data.Post.OwnerID, callerID)
				}
			}
		})
	}
}

// List posts tests

func TestListPostsHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		repoSetup      func(*fakePostsRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success_mixed_owners",
			repoSetup: func(f *fakePostsRepo) {
				f.listFn = func(ctx context.Context) ([]post.Post, error) {
					return []post.Post{
						{ID: newUUID(), OwnerID: newUUID(), Title: "First", Body: "b", CreatedAt: now, UpdatedAt: now},
						{ID: newUUID(), OwnerID: newUUID(), Title: "Second", Body: "b", CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "success_empty",
			repoSetup: func(f *fakePostsRepo) {
				f.listFn = func(ctx context.Context) ([]post.Post, error) {
					return []post.Post{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name: "repo_error",
			repoSetup: func(f *fakePostsRepo) {
				f.listFn = func(ctx context.Context) ([]post.Post, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)
			r := setupRouter(http.MethodGet, "/posts", h.ListPosts)

			// no Authorization header: the list is public
			req := httptest.NewRequest(http.MethodGet, "/posts", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Data struct {
						Count int `json:"count"`
					} `json:"data"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Data.Count != tt.wantCount {
					t.Fatalf("got count %d, want %d", resp.Data.Count, tt.wantCount)
				}
			}
		})
	}
}

// Get post tests

func TestGetPostHandler(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()
	missingID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return post.Post{
						ID:        id,
						OwnerID:   newUUID(),
						Title:     "Hi",
						Body:      "World",
						CreatedAt: now.Add(-time.Hour),
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_id",
			url:            "/posts/not-a-uuid",
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/posts/" + missingID,
			repoSetup: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return post.Post{}, post.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return post.Post{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)
			r := setupRouter(http.MethodGet, "/posts/:id", h.GetPost)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// My posts tests

func TestMyPostsHandler(t *testing.T) {
	now := time.Now().UTC()
	callerID := newUUID()

	tests := []struct {
		name           string
		repoSetup      func(*fakePostsRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success_only_callers_posts",
			repoSetup: func(f *fakePostsRepo) {
				f.listByOwnerFn = func(ctx context.Context, ownerID string) ([]post.Post, error) {
					if ownerID != callerID {
						return nil, errors.New("owner filter not bound to caller")
					}
					return []post.Post{
						{ID: newUUID(), OwnerID: ownerID, Title: "Mine", Body: "b", CreatedAt: now, UpdatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "repo_error",
			repoSetup: func(f *fakePostsRepo) {
				f.listByOwnerFn = func(ctx context.Context, ownerID string) ([]post.Post, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)
			r := setupAuthRouter(http.MethodGet, "/posts/my", callerID, h.MyPosts)

			req := authedRequest(http.MethodGet, "/posts/my", "")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Data struct {
						Count int `json:"count"`
					} `json:"data"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Data.Count != tt.wantCount {
					t.Fatalf("got count %d, want %d", resp.Data.Count, tt.wantCount)
				}
			}
		})
	}
}

// Update post tests

func TestUpdatePostHandler(t *testing.T) {
	now := time.Now().UTC()
	callerID := newUUID()
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		body           string
		repoSetup      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/posts/" + validID,
			body: `{"title": "Updated"}`,
			repoSetup: func(f *fakePostsRepo) {
				f.updateFn = func(ctx context.Context, id, callerIDGot string, patch post.UpdatePostRequest) (post.Post, error) {
					if callerIDGot != callerID {
						return post.Post{}, errors.New("caller id not threaded through")
					}
					if patch.Title == nil || *patch.Title != "Updated" {
						return post.Post{}, errors.New("title patch not passed")
					}
					if patch.Body != nil {
						return post.Post{}, errors.New("absent body should stay nil")
					}
					return post.Post{
						ID:        id,
						OwnerID:   callerIDGot,
						Title:     *patch.Title,
						Body:      "World",
						CreatedAt: now.Add(-time.Hour),
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_id",
			url:            "/posts/nope",
			body:           `{"title": "Updated"}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "blank_title_after_trim",
			url:            "/posts/" + validID,
			body:           `{"title": "  "}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/posts/" + validID,
			body: `{"title": "Updated"}`,
			repoSetup: func(f *fakePostsRepo) {
				f.updateFn = func(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
					return post.Post{}, post.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "not_owner",
			url:  "/posts/" + validID,
			body: `{"title": "Updated"}`,
			repoSetup: func(f *fakePostsRepo) {
				f.updateFn = func(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
					return post.Post{}, post.ErrNotOwner
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "repo_error",
			url:  "/posts/" + validID,
			body: `{"title": "Updated"}`,
			repoSetup: func(f *fakePostsRepo) {
				f.updateFn = func(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
					return post.Post{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)

			r := setupAuthRouter(http.MethodPut, "/posts/:id", callerID, h.UpdatePost)
			req := authedRequest(http.MethodPut, tt.url, tt.body)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// Delete post tests

func TestDeletePostHandler(t *testing.T) {
	callerID := newUUID()
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.deleteFn = func(ctx context.Context, id, callerIDGot string) error {
					if callerIDGot != callerID {
						return errors.New("caller id not threaded through")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:           "invalid_id",
			url:            "/posts/nope",
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.deleteFn = func(ctx context.Context, id, callerID string) error {
					return post.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "not_owner",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.deleteFn = func(ctx context.Context, id, callerID string) error {
					return post.ErrNotOwner
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name: "repo_error",
			url:  "/posts/" + validID,
			repoSetup: func(f *fakePostsRepo) {
				f.deleteFn = func(ctx context.Context, id, callerID string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakePostsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewPostsHandler(fakeRepo)

			r := setupAuthRouter(http.MethodDelete, "/posts/:id", callerID, h.DeletePost)

			req := authedRequest(http.MethodDelete, tt.url, "")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListPostsHandler_CacheHit(t *testing.T) {
	now := time.Now().UTC()

	fakeRepo := &fakePostsRepo{}
	c := cache.New(30 * time.Second)

	calls := 0
	fakeRepo.listFn = func(ctx context.Context) ([]post.Post, error) {
		calls++
		return []post.Post{
			{ID: newUUID(), OwnerID: newUUID(), Title: "Hi", Body: "World", CreatedAt: now, UpdatedAt: now},
		}, nil
	}

	h := handlers.NewPostsHandlerWithCache(fakeRepo, c)
	r := setupRouter(http.MethodGet, "/posts", h.ListPosts)

	// First request: cache miss -> repo called
	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	r.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	// Second request: cache hit -> repo should NOT be called again
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Fatalf("second call got %d body=%s", w2.Code, w2.Body.String())
	}

	if calls != 1 {
		t.Fatalf("expected repo calls=1, got %d", calls)
	}
}

func TestCreatePostHandler_InvalidatesListCache(t *testing.T) {
	now := time.Now().UTC()
	callerID := newUUID()

	fakeRepo := &fakePostsRepo{}
	c := cache.New(30 * time.Second)

	listCalls := 0
	fakeRepo.listFn = func(ctx context.Context) ([]post.Post, error) {
		listCalls++
		return []post.Post{}, nil
	}
	fakeRepo.createFn = func(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
		return post.Post{ID: newUUID(), OwnerID: ownerID, Title: req.Title, Body: req.Body, CreatedAt: now, UpdatedAt: now}, nil
	}

	h := handlers.NewPostsHandlerWithCache(fakeRepo, c)

	r := gin.New()
	m := middlewares.NewAuthMiddleware(staticVerifier{userID: callerID})
	r.GET("/posts", h.ListPosts)
	r.POST("/posts", m.RequireAuth(), h.CreatePost)

	// Prime the cache
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/posts", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("list got %d body=%s", w1.Code, w1.Body.String())
	}

	// A write must purge the cached list
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, authedRequest(http.MethodPost, "/posts", `{"title": "Hi", "body": "World"}`))
	if w2.Code != http.StatusCreated {
		t.Fatalf("create got %d body=%s", w2.Code, w2.Body.String())
	}

	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/posts", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("second list got %d body=%s", w3.Code, w3.Body.String())
	}

	if listCalls != 2 {
		t.Fatalf("expected repo list calls=2 after invalidation, got %d", listCalls)
	}
}

func TestListPostsHandler_ETagNotModified(t *testing.T) {
	now := time.Now().UTC()

	fakeRepo := &fakePostsRepo{}
	c := cache.New(30 * time.Second)
	calls := 0

	fakeRepo.listFn = func(ctx context.Context) ([]post.Post, error) {
		calls++
		return []post.Post{
			{ID: "id-1", OwnerID: "owner-1", Title: "Hi", Body: "World", CreatedAt: now, UpdatedAt: now},
		}, nil
	}

	h := handlers.NewPostsHandlerWithCache(fakeRepo, c)
	r := setupRouter(http.MethodGet, "/posts", h.ListPosts)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	r.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d, body=%s", w2.Code, http.StatusNotModified, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}

	if got := w2.Header().Get("ETag"); got == "" {
		t.Fatalf("expected ETag header in 304 response")
	}

	if calls != 1 {
		t.Fatalf("expected repo calls=1 due cache hit, got %d", calls)
	}
}

func TestGetPostHandler_ETagNotModified(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()

	fakeRepo := &fakePostsRepo{}
	calls := 0

	fakeRepo.getFn = func(ctx context.Context, id string) (post.Post, error) {
		calls++
		return post.Post{
			ID:        id,
			OwnerID:   "owner-1",
			Title:     "Hi",
			Body:      "World",
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now,
		}, nil
	}

	h := handlers.NewPostsHandler(fakeRepo)
	r := setupRouter(http.MethodGet, "/posts/:id", h.GetPost)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/posts/"+validID, nil)
	r.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/posts/"+validID, nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d, body=%s", w2.Code, http.StatusNotModified, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}

	if calls != 2 {
		t.Fatalf("expected repo to be called on each lookup, got %d calls", calls)
	}
}
