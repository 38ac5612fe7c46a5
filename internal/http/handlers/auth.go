package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkstone9/quillpad/internal/config"
	"github.com/inkstone9/quillpad/internal/domain/user"
	"github.com/inkstone9/quillpad/internal/http/middlewares"
	"github.com/inkstone9/quillpad/internal/security"
)

// Keep these small interfaces so tests can fake them easily.

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	hasher *security.Hasher
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, hasher *security.Hasher) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a patch: nil fields are left as they are, and an
// explicit JSON null decodes to nil too.
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// "required" accepts all-whitespace names, so trim and re-check
	name := strings.TrimSpace(req.Name)
	if name == "" {
		RespondBadRequest(ctx, "Name must not be blank", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := h.hasher.Hash(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, user.NormalizeEmail(req.Email), hash, name)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.tokens.Issue(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, "User registered successfully", gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))

	if err != nil {
		// unknown email and wrong password must look the same to the caller
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := h.hasher.Check(foundUser.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.tokens.Issue(foundUser.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  foundUser,
	})
}

// Profile re-fetches the caller's record: the token only proves identity,
// it carries no profile data.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Profile retrieved successfully", gin.H{
		"user": u,
	})
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	patch := user.ProfilePatch{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			RespondBadRequest(ctx, "Name must not be blank", nil)
			return
		}
		patch.Name = &name
	}

	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		patch.Email = &email
	}

	if req.Password != nil {
		hash, err := h.hasher.Hash(*req.Password)
		if err != nil {
			RespondInternal(ctx, "Could not update profile")
			return
		}
		patch.PasswordHash = &hash
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, userID, patch)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Profile updated successfully", gin.H{
		"user": u,
	})
}
