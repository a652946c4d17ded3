package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User in Gin context.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "token"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired ensures the request is authenticated via JWT and loads the caller.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(ctx, 40101, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(ctx, 40102, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(ctx, 40103, "empty bearer token")
			return
		}

		if utils.IsTokenBlacklisted(ctx.Request.Context(), tokenString) {
			unauthorized(ctx, 40104, "token revoked")
			return
		}

		user, err := auth.Authenticate(ctx.Request.Context(), tokenString)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrInvalidCredentials):
			unauthorized(ctx, 40105, err.Error())
			return
		case errors.Is(err, services.ErrInactiveUser):
			utils.Error(ctx, http.StatusBadRequest, 40001, err.Error())
			ctx.Abort()
			return
		default:
			utils.Sugar.Errorf("authenticate request: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50001, "authentication unavailable")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// CurrentUser returns the user loaded by AuthRequired, or nil on public routes.
func CurrentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// CurrentToken returns the bearer token accepted by AuthRequired.
func CurrentToken(ctx *gin.Context) string {
	return ctx.GetString(ContextTokenKey)
}

func unauthorized(ctx *gin.Context, code int, msg string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	utils.Error(ctx, http.StatusUnauthorized, code, msg)
	ctx.Abort()
}
