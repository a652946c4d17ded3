package controllers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/middleware"
	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store"
	"github.com/cppla/autoblog/utils"
)

// UserController handles registration, login and profile management.
type UserController struct {
	users store.UserStore
	gate  *services.AuthGate
}

// NewUserController creates a new UserController instance.
func NewUserController(users store.UserStore, gate *services.AuthGate) *UserController {
	return &UserController{users: users, gate: gate}
}

// Register creates an active account.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=1,max=64"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=1,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		badRequest(ctx, 40002, "username cannot be empty")
		return
	}

	rctx := ctx.Request.Context()
	taken, err := u.users.UserExists(rctx, username, email, 0)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if taken {
		respondError(ctx, store.ErrConflict)
		return
	}

	hash, err := u.gate.HashPassword(req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	user := models.User{Username: username, Email: email, Password: hash, Active: true}
	if err := u.users.CreateUser(rctx, &user); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"user": user})
}

// Login exchanges email and password for a bearer token.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40001, "invalid request payload")
		return
	}
	token, err := u.gate.Login(ctx.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, token)
}

// Logout revokes the caller's token until it expires.
func (u *UserController) Logout(ctx *gin.Context) {
	token := middleware.CurrentToken(ctx)
	exp, err := u.gate.ExpiresAt(token)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.BlacklistToken(ctx.Request.Context(), token, exp)
	utils.Success(ctx, nil)
}

// GetUser returns a public profile. Profiles are cached when Redis is enabled.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		respondError(ctx, store.ErrNotFound)
		return
	}

	rctx := ctx.Request.Context()
	var cached models.User
	if utils.CacheGetJSON(rctx, utils.UserCacheKey(id), &cached) {
		utils.Success(ctx, gin.H{"user": cached})
		return
	}

	user, err := u.users.GetUser(rctx, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(rctx, utils.UserCacheKey(id), user, 0)
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateUser partially updates the caller's own profile. Tokens name their user by
// username, so a rename revokes the presented token and returns a replacement.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok || id != me.ID {
		respondError(ctx, store.ErrNotFound)
		return
	}

	var req struct {
		Username        *string `json:"username"`
		Email           *string `json:"email"`
		Password        *string `json:"password"`
		CurrentPassword *string `json:"current_password"`
	}
	if err := bindOptionalJSON(ctx, &req); err != nil {
		badRequest(ctx, 40001, "invalid request payload")
		return
	}

	var patch models.UserPatch
	if req.Username != nil {
		v := strings.TrimSpace(*req.Username)
		if v == "" || len(v) > 64 {
			badRequest(ctx, 40002, "invalid username")
			return
		}
		patch.Username = &v
	}
	if req.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.Contains(v, "@") || len(v) > 255 {
			badRequest(ctx, 40003, "invalid email")
			return
		}
		patch.Email = &v
	}
	if req.Password != nil {
		if *req.Password == "" {
			badRequest(ctx, 40004, "password cannot be empty")
			return
		}
		if len(*req.Password) > services.MaxPasswordBytes {
			respondError(ctx, services.ErrPasswordTooLong)
			return
		}
		if req.CurrentPassword == nil {
			badRequest(ctx, 40005, "current_password is required to change password")
			return
		}
		if err := u.gate.CheckPassword(me, *req.CurrentPassword); err != nil {
			respondError(ctx, err)
			return
		}
		hash, err := u.gate.HashPassword(*req.Password)
		if err != nil {
			respondError(ctx, err)
			return
		}
		patch.PasswordHash = &hash
	}

	updated := *me
	patch.Apply(&updated)
	rctx := ctx.Request.Context()
	if patch.Username != nil || patch.Email != nil {
		taken, err := u.users.UserExists(rctx, updated.Username, updated.Email, me.ID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		if taken {
			respondError(ctx, store.ErrConflict)
			return
		}
	}
	if err := u.users.UpdateUser(rctx, &updated); err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProfile(rctx, me.ID)

	if updated.Username == me.Username {
		utils.Success(ctx, gin.H{"user": updated})
		return
	}
	token, err := u.gate.IssueToken(&updated)
	if err != nil {
		respondError(ctx, err)
		return
	}
	u.revokeCurrentToken(ctx)
	utils.Success(ctx, gin.H{"user": updated, "token": token})
}

// DeleteUser removes the caller's account after re-verifying the password.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	me, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := parseUintParam(ctx, "id")
	if !ok || id != me.ID {
		respondError(ctx, store.ErrNotFound)
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40006, "password is required")
		return
	}
	if err := u.gate.CheckPassword(me, req.Password); err != nil {
		respondError(ctx, err)
		return
	}

	rctx := ctx.Request.Context()
	if err := u.users.DeleteUser(rctx, me.ID); err != nil {
		respondError(ctx, err)
		return
	}
	invalidateProfile(rctx, me.ID)
	u.revokeCurrentToken(ctx)
	utils.Success(ctx, nil)
}

// revokeCurrentToken blacklists the token the request was authenticated with.
func (u *UserController) revokeCurrentToken(ctx *gin.Context) {
	token := middleware.CurrentToken(ctx)
	if exp, err := u.gate.ExpiresAt(token); err == nil {
		utils.BlacklistToken(ctx.Request.Context(), token, exp)
	}
}

func invalidateProfile(ctx context.Context, id uint) {
	utils.CacheDelete(ctx, utils.UserCacheKey(id))
}

