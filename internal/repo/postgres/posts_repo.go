package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkstone9/quillpad/internal/domain/post"
	"github.com/inkstone9/quillpad/internal/observability"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
	p := post.NewFromCreateRequest(ownerID, req)

	err := r.observe("posts.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO posts (id, owner_id, title, body, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			p.ID, p.OwnerID, p.Title, p.Body, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	var rows pgx.Rows

	err := r.observe("posts.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx,
			`SELECT id, owner_id, title, body, created_at, updated_at
			 FROM posts
			 ORDER BY created_at DESC, id DESC`,
		)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, owner_id, title, body, created_at, updated_at
			 FROM posts
			 WHERE id = $1`,
			id,
		).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) ListByOwner(ctx context.Context, ownerID string) ([]post.Post, error) {
	var rows pgx.Rows

	err := r.observe("posts.list_by_owner", func() error {
		var e error
		rows, e = r.pool.Query(ctx,
			`SELECT id, owner_id, title, body, created_at, updated_at
			 FROM posts
			 WHERE owner_id = $1
			 ORDER BY created_at DESC, id DESC`,
			ownerID,
		)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanPosts(rows)
}

// Update locks the row, checks existence before ownership (a deliberate
// trade-off: existence is visible to any authenticated caller), applies the
// patch and commits. The lock keeps the ownership check and the write atomic.
func (r *PostsRepo) Update(ctx context.Context, id, callerID string, patch post.UpdatePostRequest) (post.Post, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return post.Post{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	p, err := getForUpdate(ctx, tx, r, id)
	if err != nil {
		return post.Post{}, err
	}

	if p.OwnerID != callerID {
		return post.Post{}, post.ErrNotOwner
	}

	changed := false

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title != p.Title {
			p.Title = title
			changed = true
		}
	}

	if patch.Body != nil {
		body := strings.TrimSpace(*patch.Body)
		if body != p.Body {
			p.Body = body
			changed = true
		}
	}

	if !changed {
		// nothing to write, the current row is already the answer
		return p, tx.Commit(ctx)
	}

	p.UpdatedAt = time.Now().UTC()

	err = r.observe("posts.update.write", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE posts
			 SET title = $2, body = $3, updated_at = $4
			 WHERE id = $1`,
			p.ID, p.Title, p.Body, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return post.Post{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// Delete uses the same lock-check-mutate sequence as Update.
func (r *PostsRepo) Delete(ctx context.Context, id, callerID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	p, err := getForUpdate(ctx, tx, r, id)
	if err != nil {
		return err
	}

	if p.OwnerID != callerID {
		return post.ErrNotOwner
	}

	err = r.observe("posts.delete.write", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, p.ID)
		return e
	})

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// getForUpdate locks a post row for the remainder of the transaction.
func getForUpdate(ctx context.Context, tx pgx.Tx, r *PostsRepo, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_for_update", func() error {
		return tx.QueryRow(ctx,
			`SELECT id, owner_id, title, body, created_at, updated_at
			 FROM posts
			 WHERE id = $1
			 FOR UPDATE`,
			id,
		).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

func scanPosts(rows pgx.Rows) ([]post.Post, error) {
	out := make([]post.Post, 0)

	for rows.Next() {
		var p post.Post

		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
