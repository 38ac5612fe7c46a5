package memory

import (
	"context"
	"sync"
	"time"

	"github.com/inkstone9/quillpad/internal/domain/user"
)

// UsersRepo keeps accounts in process memory. It backs local development and
// tests where a real database would be overkill. The byEmail index is the
// uniqueness arbiter: lookups and inserts share one lock, so two concurrent
// creates with the same address cannot both win.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string // normalized email -> user id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	u := user.New(name, email, passwordHash)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[user.NormalizeEmail(email)]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// Update applies the non-nil patch fields. An empty patch is a no-op and
// returns the current row without touching UpdatedAt.
func (r *UsersRepo) Update(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	changed := false

	if patch.Name != nil && *patch.Name != u.Name {
		u.Name = *patch.Name
		changed = true
	}

	if patch.Email != nil && *patch.Email != u.Email {
		// the address differs from the caller's own, so any index hit
		// belongs to another account
		if _, exists := r.byEmail[*patch.Email]; exists {
			return user.User{}, user.ErrEmailTaken
		}

		delete(r.byEmail, u.Email)
		u.Email = *patch.Email
		r.byEmail[u.Email] = id
		changed = true
	}

	if patch.PasswordHash != nil && *patch.PasswordHash != u.PasswordHash {
		u.PasswordHash = *patch.PasswordHash
		changed = true
	}

	if !changed {
		return u, nil
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}
